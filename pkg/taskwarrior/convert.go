package taskwarrior

import (
	"log"
	"time"

	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// DefaultEstimate is used for tasks without an est UDA.
const DefaultEstimate = 30 * time.Minute

// ToItems converts scheduled tasks into timeline items. Tasks without a
// scheduled time, and deleted tasks, are skipped.
func ToItems(tasks []Task, loc *time.Location) []model.ScheduledItem {
	if loc == nil {
		loc = time.Local
	}
	var items []model.ScheduledItem
	for _, task := range tasks {
		item, ok := ToItem(task, loc)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

// ToItem converts a single task. The scheduled timestamp sets the due date
// and start time; the estimate sets the length.
func ToItem(task Task, loc *time.Location) (model.ScheduledItem, bool) {
	if task.UUID == "" || !task.Active() || task.Scheduled == nil || task.Scheduled.IsZero() {
		return model.ScheduledItem{}, false
	}

	est := DefaultEstimate
	if task.Est != "" {
		d, err := ParseDuration(task.Est)
		if err != nil {
			log.Printf("Warning: task %s has invalid estimate %q: %v", task.UUID, task.Est, err)
		} else {
			est = d
		}
	}

	scheduled := task.Scheduled.In(loc)
	start := timeconv.Snap(scheduled.Hour()*60 + scheduled.Minute())
	if start > timeconv.LastStart {
		start = timeconv.MinutesPerDay - timeconv.SlotMinutes
	}
	end := start + int(est/time.Minute)
	if end-start < timeconv.SlotMinutes {
		end = start + timeconv.SlotMinutes
	}
	if end > timeconv.MinutesPerDay {
		end = timeconv.MinutesPerDay
	}

	return model.ScheduledItem{
		ID:      task.UUID,
		Kind:    model.KindTask,
		Title:   task.Description,
		Project: task.Project,
		Time:    timeconv.Range{Start: start, End: end}.String(),
		Task: &model.TaskSchedule{
			DueDate:   scheduled.Format(model.DateLayout),
			Completed: task.Status == StatusCompleted,
		},
	}, true
}
