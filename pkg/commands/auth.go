package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/auth"
)

func addAuth(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize calendar mirroring with Google",
		Long: `Discards any cached token and runs the OAuth flow again. The client
secrets are read from credentials.json in the config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.Reset(); err != nil {
				return err
			}
			if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			path, err := auth.TokenPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", path)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
