package commands

import (
	"github.com/spf13/cobra"
)

// New returns the dayline root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dayline",
		Short: "Lay out, move and resize the day's tasks and habits on a timeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addLayout(topLevel)
	addMove(topLevel)
	addResize(topLevel)
	addComplete(topLevel)
	addImport(topLevel)
	addExport(topLevel)
	addRetry(topLevel)
	addAuth(topLevel)
	addConfig(topLevel)
	addUI(topLevel)
}
