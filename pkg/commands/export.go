package commands

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/itemfile"
)

func addExport(topLevel *cobra.Command) {
	var out string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write every stored item as YAML",
		Example: "dayline export --out backup.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			items := a.store.List(cmd.Context())
			if out == "" {
				return itemfile.Encode(cmd.OutOrStdout(), items)
			}
			return itemfile.Save(out, items)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write instead of stdout")

	topLevel.AddCommand(cmd)
}
