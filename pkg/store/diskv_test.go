package store

import (
	"context"
	"errors"
	"testing"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/model"
)

func task(id, tm, due string) model.ScheduledItem {
	return model.ScheduledItem{ID: id, Kind: model.KindTask, Title: id, Time: tm, Task: &model.TaskSchedule{DueDate: due}}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveGetDelete(t *testing.T) {
	s := openStore(t)
	it := task("a/b-c:d", "09:00-10:00", "2024-05-01")
	if err := s.Save(it); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(it.Key())
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != it.ID || got.Time != it.Time || got.Task.DueDate != "2024-05-01" {
		t.Errorf("Get = %+v", got)
	}
	if err := s.Delete(it.Key()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(it.Key()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := s.Delete(it.Key()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing = %v", err)
	}
}

func TestSaveValidates(t *testing.T) {
	s := openStore(t)
	if err := s.Save(model.ScheduledItem{ID: "x", Kind: model.KindTask}); err == nil {
		t.Error("task without schedule accepted")
	}
}

func TestSameIDDifferentKinds(t *testing.T) {
	s := openStore(t)
	h := model.ScheduledItem{ID: "a", Kind: model.KindHabit, Time: "07:00-07:30", Habit: &model.HabitSchedule{StartDate: "2024-01-01"}}
	if err := s.Save(task("a", "09:00-10:00", "2024-05-01")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}
	all := s.List(context.Background())
	if len(all) != 2 || all[0].Kind != model.KindHabit || all[1].Kind != model.KindTask {
		t.Errorf("List = %+v", all)
	}
}

func TestItemsActiveOn(t *testing.T) {
	s := openStore(t)
	for _, it := range []model.ScheduledItem{
		task("a", "09:00-10:00", "2024-05-01"),
		task("b", "09:00-10:00", "2024-05-02"),
		{ID: "run", Kind: model.KindHabit, Time: "07:00-07:30", Habit: &model.HabitSchedule{StartDate: "2024-05-01", EndDate: "2024-05-01"}},
	} {
		if err := s.Save(it); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ItemsActiveOn(context.Background(), "2024-05-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("active = %+v", got)
	}
	if _, err := s.ItemsActiveOn(context.Background(), "May 1"); err == nil {
		t.Error("bad date accepted")
	}
}

func TestPersistTimeChange(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	it := task("a", "14:00-14:30", "2024-05-01")
	if err := s.Save(it); err != nil {
		t.Fatal(err)
	}
	if err := s.PersistTimeChange(ctx, commit.Change{Key: it.Key(), Date: "2024-05-01", Time: "09:15-09:45"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(it.Key())
	if got.Time != "09:15-09:45" {
		t.Errorf("Time = %s", got.Time)
	}

	missing := commit.Change{Key: model.Key{Kind: model.KindTask, ID: "zzz"}, Date: "2024-05-01", Time: "09:00-09:15"}
	if err := s.PersistTimeChange(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item = %v", err)
	}
}

func TestIDEncodingRoundTrip(t *testing.T) {
	for _, id := range []string{"a", "3f1c-aa", "with space", "ünï/code"} {
		got, err := decodeID(encodeID(id))
		if err != nil || got != id {
			t.Errorf("round trip %q = %q, %v", id, got, err)
		}
	}
}
