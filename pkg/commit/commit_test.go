package commit

import (
	"context"
	"errors"
	"testing"

	"github.com/harrisonrobin/dayline/pkg/model"
)

func TestBuildPatchNonRecurring(t *testing.T) {
	it := model.ScheduledItem{ID: "a", Kind: model.KindTask, Time: "14:00-14:30", Task: &model.TaskSchedule{DueDate: "2024-05-01"}}
	p := BuildPatch(it, "2024-05-01", "09:15-09:45")
	if p.Time == nil || *p.Time != "09:15-09:45" || p.Exceptions != nil {
		t.Fatalf("patch = %+v", p)
	}
	out := p.Apply(it)
	if out.Time != "09:15-09:45" {
		t.Errorf("Time = %s", out.Time)
	}
	if it.Time != "14:00-14:30" {
		t.Errorf("original mutated")
	}
}

func TestBuildPatchRecurringIsolatesDate(t *testing.T) {
	done := true
	it := model.ScheduledItem{
		ID: "run", Kind: model.KindHabit, Time: "07:00-07:30",
		Habit: &model.HabitSchedule{StartDate: "2024-01-01"},
		Exceptions: map[string]model.Exception{
			"2024-04-30": {Time: "06:00-06:30"},
			"2024-05-01": {Completed: &done},
		},
	}
	out := ApplyChange(it, Change{Key: it.Key(), Date: "2024-05-01", Time: "08:00-08:30"})

	if out.Time != "07:00-07:30" {
		t.Errorf("base time changed to %s", out.Time)
	}
	if got := out.Exceptions["2024-05-01"]; got.Time != "08:00-08:30" || got.Completed == nil || !*got.Completed {
		t.Errorf("exception = %+v", got)
	}
	if got := out.Exceptions["2024-04-30"]; got.Time != "06:00-06:30" {
		t.Errorf("other date changed: %+v", got)
	}
	if len(out.Exceptions) != 2 {
		t.Errorf("exceptions = %+v", out.Exceptions)
	}
	if it.Exceptions["2024-05-01"].Time != "" {
		t.Errorf("original exception map mutated")
	}
}

func TestBuildPatchRecurringTask(t *testing.T) {
	it := model.ScheduledItem{ID: "a", Kind: model.KindTask, Time: "10:00-10:30",
		Task: &model.TaskSchedule{Recurring: true, RecurringDates: []string{"2024-05-01"}}}
	out := ApplyChange(it, Change{Key: it.Key(), Date: "2024-05-01", Time: "11:00-11:30"})
	if out.Time != "10:00-10:30" || out.Exceptions["2024-05-01"].Time != "11:00-11:30" {
		t.Errorf("out = %+v", out)
	}
}

func TestMulti(t *testing.T) {
	var calls []string
	ok := PersisterFunc(func(context.Context, Change) error {
		calls = append(calls, "ok")
		return nil
	})
	boom := errors.New("boom")
	bad := PersisterFunc(func(context.Context, Change) error {
		calls = append(calls, "bad")
		return boom
	})

	err := Multi{bad, nil, ok}.PersistTimeChange(context.Background(), Change{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if len(calls) != 2 || calls[0] != "bad" || calls[1] != "ok" {
		t.Errorf("calls = %v", calls)
	}
	if err := (Multi{ok}).PersistTimeChange(context.Background(), Change{}); err != nil {
		t.Errorf("err = %v", err)
	}
}
