package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/itemfile"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/orgmode"
	"github.com/harrisonrobin/dayline/pkg/taskwarrior"
)

func addImport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "yaml <file>...",
		Short:   "Import tasks and habits from YAML files",
		Example: "dayline import yaml week.yaml",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []model.ScheduledItem
			for _, path := range args {
				got, err := itemfile.Load(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				items = append(items, got...)
			}
			return saveItems(cmd, items)
		},
	})

	var project string
	orgCmd := &cobra.Command{
		Use:     "org <file>...",
		Short:   "Import timed SCHEDULED headings from Org files",
		Example: "dayline import org ~/org/week.org --project work",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := orgmode.ParseFiles(args)
			if err != nil {
				return err
			}
			if project != "" {
				items = orgmode.FilterItems(items, project)
			}
			return saveItems(cmd, items)
		},
	}
	orgCmd.Flags().StringVar(&project, "project", "", "only import headings whose first tag matches")
	cmd.AddCommand(orgCmd)

	var file string
	twCmd := &cobra.Command{
		Use:   "taskwarrior [filter]...",
		Short: "Import scheduled tasks from Taskwarrior",
		Example: `
dayline import taskwarrior project:work
task export | dayline import taskwarrior --file -
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := taskwarrior.NewClient()
			var (
				tasks []taskwarrior.Task
				err   error
			)
			switch file {
			case "":
				filter := append([]string{"scheduled.any:"}, args...)
				tasks, err = client.GetTasks(cmd.Context(), filter)
			case "-":
				tasks, err = client.ParseExport(cmd.InOrStdin())
			default:
				f, ferr := os.Open(file)
				if ferr != nil {
					return ferr
				}
				defer f.Close()
				tasks, err = client.ParseExport(f)
			}
			if err != nil {
				return err
			}
			return saveItems(cmd, taskwarrior.ToItems(tasks, nil))
		},
	}
	twCmd.Flags().StringVar(&file, "file", "", "read export JSON from a file, or - for stdin, instead of running task")
	cmd.AddCommand(twCmd)

	topLevel.AddCommand(cmd)
}

func saveItems(cmd *cobra.Command, items []model.ScheduledItem) error {
	a, err := openApp(cmd.Context(), openOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	for _, it := range items {
		if err := a.store.Save(it); err != nil {
			return fmt.Errorf("save %s: %w", it.Key(), err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d items\n", len(items))
	return nil
}
