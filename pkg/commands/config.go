package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/config"
)

func addConfig(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file:        %s\n", path)
			fmt.Fprintf(w, "calendar:    %s\n", cfg.Calendar)
			fmt.Fprintf(w, "data_dir:    %s\n", cfg.DataDir)
			fmt.Fprintf(w, "hour_height: %g\n", cfg.HourHeight)
			fmt.Fprintf(w, "zoom:        %g\n", cfg.Zoom)
			fmt.Fprintf(w, "mirror:      %t\n", cfg.Mirror)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Change one setting",
		Example: "dayline config set calendar Work\ndayline config set mirror true",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applySetting(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", args[0], args[1])
			return nil
		},
	})

	topLevel.AddCommand(cmd)
}

func applySetting(cfg *config.Config, key, value string) error {
	switch key {
	case "calendar":
		cfg.Calendar = value
	case "data_dir":
		cfg.DataDir = value
	case "hour_height", "zoom":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number", key)
		}
		if key == "zoom" {
			cfg.Zoom = f
		} else {
			cfg.HourHeight = f
		}
	case "mirror":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("mirror must be true or false")
		}
		cfg.Mirror = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
