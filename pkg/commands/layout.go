package commands

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/render"
)

func addLayout(topLevel *cobra.Command) {
	do := &DateOptions{}
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show where each item of a day sits on the timeline",
		Example: `
dayline layout
dayline layout --date 2024-05-01 --grid
dayline layout --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, err := do.Resolve(time.Now())
			if err != nil {
				return err
			}
			a, err := openApp(ctx, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.SetDate(ctx, date); err != nil {
				return err
			}
			positions := a.engine.Positions()

			if oo.JSON {
				out := make(map[string]any, len(positions))
				for key, pos := range positions {
					out[key.String()] = pos
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			rows := render.Rows(a.engine.Items(), positions, a.completed(ctx, date))
			if oo.Grid {
				fmt.Fprintln(cmd.OutOrStdout(), render.Grid(rows, render.GridOptions{
					Width:      oo.Width,
					HourHeight: a.engine.Zoom().HourHeight(),
					Color:      a.colorOf,
				}))
				if err := a.palette.Save(); err != nil {
					log.Printf("Warning: failed to save colour palette: %v", err)
				}
				return nil
			}
			render.Table(color.Output, date, rows)
			return nil
		},
	}
	do.AddFlags(cmd)
	oo.AddFlags(cmd)

	topLevel.AddCommand(cmd)
}
