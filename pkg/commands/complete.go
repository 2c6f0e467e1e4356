package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/model"
)

func addComplete(topLevel *cobra.Command) {
	do := &DateOptions{}
	var undo bool

	cmd := &cobra.Command{
		Use:   "complete <kind:id>...",
		Short: "Mark items done on a day; completed items stay put on the timeline",
		Example: `
dayline complete habit:run
dayline complete task:3f1c --undo
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, err := do.Resolve(time.Now())
			if err != nil {
				return err
			}
			a, err := openApp(ctx, openOptions{mirror: true})
			if err != nil {
				return err
			}
			defer a.Close()

			for _, arg := range args {
				key, err := model.ParseKey(arg)
				if err != nil {
					return err
				}
				item, err := a.store.Get(key)
				if err != nil {
					return err
				}
				if err := a.completions.Mark(ctx, key, date, !undo); err != nil {
					return err
				}
				if a.mirror != nil {
					syncCompletion(ctx, a, item, date, !undo)
				}
				state := "done"
				if undo {
					state = "open"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", key, date, state)
			}
			return nil
		},
	}
	do.AddFlags(cmd)
	cmd.Flags().BoolVar(&undo, "undo", false, "clear the completion instead")

	topLevel.AddCommand(cmd)
}

// syncCompletion drops the mirrored event of a completed occurrence and puts
// it back when the completion is undone. Calendar errors only warn; the
// completion log is authoritative.
func syncCompletion(ctx context.Context, a *app, item model.ScheduledItem, date string, done bool) {
	if done {
		if err := a.mirror.Remove(ctx, item.Key(), date); err != nil {
			log.Printf("Warning: removing calendar event for %s on %s: %v", item.Key(), date, err)
		}
		return
	}
	tm, ok := interval.EffectiveTime(item, date)
	if !ok {
		return
	}
	change := commit.Change{Key: item.Key(), Date: date, Time: tm}
	if err := a.mirror.PersistTimeChange(ctx, change); err != nil {
		log.Printf("Warning: restoring calendar event for %s on %s: %v", item.Key(), date, err)
	}
}
