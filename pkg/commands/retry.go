package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addRetry(topLevel *cobra.Command) {
	var list bool

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Persist time changes that failed to save earlier",
		Example: `
dayline retry
dayline retry --list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, openOptions{mirror: !list})
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.pending.List()
			if list {
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending changes")
					return nil
				}
				bold := color.New(color.Bold)
				tbl := uitable.New()
				tbl.Separator = "  "
				tbl.AddRow(bold.Sprint("KEY"), bold.Sprint("DATE"), bold.Sprint("TIME"), bold.Sprint("TRIES"), bold.Sprint("FAILED"), bold.Sprint("REASON"))
				for _, e := range entries {
					tbl.AddRow(e.Change.Key.String(), e.Change.Date, e.Change.Time, e.Attempts, e.FailedAt.Format(time.DateTime), e.Reason)
				}
				fmt.Fprintln(color.Output, tbl)
				return nil
			}

			done, err := a.engine.RetryPending(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d of %d pending changes\n", done, len(entries))
			return err
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "only list the pending changes")

	topLevel.AddCommand(cmd)
}
