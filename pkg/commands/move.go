package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/drag"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

func addMove(topLevel *cobra.Command) {
	do := &DateOptions{}
	var to string

	cmd := &cobra.Command{
		Use:   "move <kind:id>",
		Short: "Move an item to a new start time, keeping its duration",
		Example: `
dayline move task:3f1c --to 09:15
dayline move habit:run --date tomorrow --to 07:30
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := model.ParseKey(args[0])
			if err != nil {
				return err
			}
			target, err := parseClock(to)
			if err != nil {
				return err
			}
			date, err := do.Resolve(time.Now())
			if err != nil {
				return err
			}
			a, err := openApp(ctx, openOptions{mirror: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.SetDate(ctx, date); err != nil {
				return err
			}
			pos, ok := a.engine.Position(key)
			if !ok {
				return fmt.Errorf("%s is not on the timeline for %s", key, date)
			}
			hh := a.engine.Zoom().HourHeight()

			wait := a.watchCommits(key)
			if !a.engine.BeginDrag(ctx, key, pos.Top) {
				wait()
				return fmt.Errorf("%s cannot be moved on %s", key, date)
			}
			a.engine.UpdateDrag(timeconv.MinutesToPixels(target, hh))
			a.engine.EndDrag(ctx)
			if err := wait(); err != nil {
				return err
			}
			return printTime(cmd, a, key, date)
		},
	}
	do.AddFlags(cmd)
	cmd.Flags().StringVar(&to, "to", "", "new start time, HH:MM")
	_ = cmd.MarkFlagRequired("to")

	topLevel.AddCommand(cmd)
}

func addResize(topLevel *cobra.Command) {
	do := &DateOptions{}
	var to, edge string

	cmd := &cobra.Command{
		Use:   "resize <kind:id>",
		Short: "Move the start or end of an item, keeping the other edge fixed",
		Example: `
dayline resize task:3f1c --to 11:00
dayline resize task:3f1c --edge start --to 08:45
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := model.ParseKey(args[0])
			if err != nil {
				return err
			}
			target, err := parseClock(to)
			if err != nil {
				return err
			}
			var e drag.Edge
			switch strings.ToLower(edge) {
			case "end":
				e = drag.EdgeEnd
			case "start":
				e = drag.EdgeStart
			default:
				return fmt.Errorf("invalid edge %q: want start or end", edge)
			}
			date, err := do.Resolve(time.Now())
			if err != nil {
				return err
			}
			a, err := openApp(ctx, openOptions{mirror: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.SetDate(ctx, date); err != nil {
				return err
			}
			pos, ok := a.engine.Position(key)
			if !ok {
				return fmt.Errorf("%s is not on the timeline for %s", key, date)
			}
			hh := a.engine.Zoom().HourHeight()
			grab := pos.Top
			if e == drag.EdgeEnd {
				grab = pos.Top + pos.Height
			}

			wait := a.watchCommits(key)
			if !a.engine.BeginResize(ctx, key, e, grab) {
				wait()
				return fmt.Errorf("%s cannot be resized on %s", key, date)
			}
			a.engine.UpdateResize(timeconv.MinutesToPixels(target, hh))
			a.engine.EndResize(ctx)
			if err := wait(); err != nil {
				return err
			}
			return printTime(cmd, a, key, date)
		},
	}
	do.AddFlags(cmd)
	cmd.Flags().StringVar(&to, "to", "", "new time of the edge, HH:MM")
	cmd.Flags().StringVar(&edge, "edge", "end", "edge to move: start or end")
	_ = cmd.MarkFlagRequired("to")

	topLevel.AddCommand(cmd)
}

func parseClock(s string) (int, error) {
	m, ok := timeconv.ParseClock(s)
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return m, nil
}

func printTime(cmd *cobra.Command, a *app, key model.Key, date string) error {
	pos, ok := a.engine.Position(key)
	if !ok {
		return fmt.Errorf("%s is no longer on the timeline for %s", key, date)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", key, date, pos.Time)
	return nil
}
