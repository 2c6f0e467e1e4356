package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for exception keys and due dates.
const DateLayout = "2006-01-02"

// Kind discriminates the two sources of timeline items.
type Kind string

const (
	KindTask  Kind = "task"
	KindHabit Kind = "habit"
)

// Key identifies an item. IDs are only unique within their kind.
type Key struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	ID   string `json:"id" yaml:"id"`
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// ParseKey parses the "kind:id" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || id == "" {
		return Key{}, fmt.Errorf("invalid item key %q, want kind:id", s)
	}
	switch Kind(kind) {
	case KindTask, KindHabit:
		return Key{Kind: Kind(kind), ID: id}, nil
	}
	return Key{}, fmt.Errorf("invalid item kind %q", kind)
}

// Exception overrides a single date of an item's schedule.
type Exception struct {
	Time      string `json:"time,omitempty" yaml:"time,omitempty"`
	Completed *bool  `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// TaskSchedule holds the task-only scheduling fields.
type TaskSchedule struct {
	DueDate        string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Recurring      bool     `json:"recurring,omitempty" yaml:"recurring,omitempty"`
	RecurringDates []string `json:"recurring_dates,omitempty" yaml:"recurring_dates,omitempty"`
	Completed      bool     `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// HabitSchedule holds the habit-only scheduling fields. An empty EndDate
// means the habit runs indefinitely.
type HabitSchedule struct {
	StartDate    string         `json:"start_date" yaml:"start_date"`
	EndDate      string         `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	SelectedDays []time.Weekday `json:"selected_days,omitempty" yaml:"selected_days,omitempty"`
}

// ScheduledItem is a task or habit projected to what the timeline needs.
// Exactly one of Task or Habit is set, matching Kind.
type ScheduledItem struct {
	ID         string               `json:"id" yaml:"id"`
	Kind       Kind                 `json:"kind" yaml:"kind"`
	Title      string               `json:"title" yaml:"title"`
	Project    string               `json:"project,omitempty" yaml:"project,omitempty"`
	Time       string               `json:"time,omitempty" yaml:"time,omitempty"`
	Exceptions map[string]Exception `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Task       *TaskSchedule        `json:"task,omitempty" yaml:"task,omitempty"`
	Habit      *HabitSchedule       `json:"habit,omitempty" yaml:"habit,omitempty"`
}

func (it ScheduledItem) Key() Key {
	return Key{Kind: it.Kind, ID: it.ID}
}

// Validate checks that the kind tag and its schedule agree.
func (it ScheduledItem) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return fmt.Errorf("item has no id")
	}
	switch it.Kind {
	case KindTask:
		if it.Task == nil || it.Habit != nil {
			return fmt.Errorf("task %s must carry only a task schedule", it.ID)
		}
	case KindHabit:
		if it.Habit == nil || it.Task != nil {
			return fmt.Errorf("habit %s must carry only a habit schedule", it.ID)
		}
		if _, err := ParseDate(it.Habit.StartDate); err != nil {
			return fmt.Errorf("habit %s: start date: %w", it.ID, err)
		}
	default:
		return fmt.Errorf("item %s has unknown kind %q", it.ID, it.Kind)
	}
	return nil
}

// Recurring reports whether time changes go into the per-date exception map
// rather than the base time. Habits always recur.
func (it ScheduledItem) Recurring() bool {
	switch it.Kind {
	case KindHabit:
		return true
	case KindTask:
		return it.Task != nil && it.Task.Recurring
	}
	return false
}

// IsActiveOn reports whether the item belongs on the timeline for date.
func (it ScheduledItem) IsActiveOn(date string) bool {
	switch it.Kind {
	case KindTask:
		if it.Task == nil {
			return false
		}
		if it.Task.DueDate == date {
			return true
		}
		if it.Task.Recurring {
			for _, d := range it.Task.RecurringDates {
				if d == date {
					return true
				}
			}
		}
		return false
	case KindHabit:
		if it.Habit == nil {
			return false
		}
		// An exception keeps the habit on the timeline even on an unselected day.
		if _, ok := it.Exceptions[date]; ok {
			return true
		}
		day, err := ParseDate(date)
		if err != nil {
			return false
		}
		start, err := ParseDate(it.Habit.StartDate)
		if err != nil || day.Before(start) {
			return false
		}
		if it.Habit.EndDate != "" {
			end, err := ParseDate(it.Habit.EndDate)
			if err == nil && day.After(end) {
				return false
			}
		}
		return selectsWeekday(it.Habit.SelectedDays, day.Weekday())
	}
	return false
}

func selectsWeekday(days []time.Weekday, wd time.Weekday) bool {
	if len(days) == 0 || len(days) >= 7 {
		return true
	}
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

// Clone returns a copy whose exception map and schedules can be mutated
// without touching the original.
func (it ScheduledItem) Clone() ScheduledItem {
	out := it
	if it.Exceptions != nil {
		out.Exceptions = make(map[string]Exception, len(it.Exceptions))
		for d, ex := range it.Exceptions {
			out.Exceptions[d] = ex
		}
	}
	if it.Task != nil {
		t := *it.Task
		t.RecurringDates = append([]string(nil), it.Task.RecurringDates...)
		out.Task = &t
	}
	if it.Habit != nil {
		h := *it.Habit
		h.SelectedDays = append([]time.Weekday(nil), it.Habit.SelectedDays...)
		out.Habit = &h
	}
	return out
}

// ParseDate parses an ISO date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
}

// DateKey formats t as an ISO date.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
