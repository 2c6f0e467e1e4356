package taskwarrior

import (
	"fmt"
	"strings"
	"time"
)

// Task statuses as exported by `task export`.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusWaiting   = "waiting"
	StatusDeleted   = "deleted"
)

// timeLayout is the compact UTC form Taskwarrior uses for dates.
const timeLayout = "20060102T150405Z"

// CustomTime decodes Taskwarrior's compact timestamps. Empty and "0" decode to
// the zero time.
type CustomTime struct {
	time.Time
}

func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("parse taskwarrior time %q: %w", s, err)
	}
	ct.Time = t
	return nil
}

func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.UTC().Format(timeLayout) + `"`), nil
}

// Task is the subset of a Taskwarrior export the timeline imports.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Due         *CustomTime `json:"due,omitempty"`
	Scheduled   *CustomTime `json:"scheduled,omitempty"`
	Status      string      `json:"status"`
	Project     string      `json:"project,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	// Est is the estimate UDA, an ISO 8601 duration such as PT45M.
	Est string `json:"est,omitempty"`
}

// Active reports whether the task should appear on a timeline.
func (t Task) Active() bool {
	return t.Status != StatusDeleted
}
