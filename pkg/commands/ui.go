package commands

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/store"
	"github.com/harrisonrobin/dayline/pkg/tui"
)

func addUI(topLevel *cobra.Command) {
	do := &DateOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Interactive timeline for moving and resizing items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

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

			changes := make(chan struct{}, 1)
			events, err := a.store.Watch(ctx, 100*time.Millisecond)
			if err != nil {
				log.Printf("Warning: not watching for external changes: %v", err)
			} else {
				go forwardChanges(events, changes)
			}

			err = tui.Run(ctx, tui.Options{
				Engine: a.engine,
				Color:  a.colorOf,
				Completed: func(it model.ScheduledItem) bool {
					return a.completions.IsCompleted(ctx, it, a.engine.Date())
				},
				Changes: changes,
			})
			if serr := a.palette.Save(); serr != nil {
				log.Printf("Warning: failed to save colour palette: %v", serr)
			}
			return err
		},
	}
	do.AddFlags(cmd)

	topLevel.AddCommand(cmd)
}

// forwardChanges turns store change batches into reload signals.
func forwardChanges(events <-chan store.Change, changes chan<- struct{}) {
	defer close(changes)
	for range events {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
}
