package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/dayline/pkg/model"
)

func TestWatchReportsItemChanges(t *testing.T) {
	s := openStore(t)
	// Create the kind directory before watching.
	if err := s.Save(task("first", "09:00-10:00", "2024-05-01")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := s.Watch(ctx, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	it := task("second", "10:00-11:00", "2024-05-01")
	if err := s.Save(it); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-changes:
			if !ok {
				t.Fatal("changes closed early")
			}
			if hasKey(c, it.Key()) {
				cancel()
				for range changes {
				}
				return
			}
		case <-timeout:
			t.Fatal("no change for saved item")
		}
	}
}

func TestWatchBatchesBursts(t *testing.T) {
	s := openStore(t)
	if err := s.Save(task("first", "09:00-10:00", "2024-05-01")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := s.Watch(ctx, 300*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	a := task("a", "10:00-11:00", "2024-05-01")
	b := task("b", "11:00-12:00", "2024-05-01")
	for _, it := range []model.ScheduledItem{a, b, a} {
		if err := s.Save(it); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case c := <-changes:
		if !hasKey(c, a.Key()) || !hasKey(c, b.Key()) {
			t.Fatalf("first batch = %+v, want both writes", c)
		}
		n := 0
		for _, k := range c.Keys {
			if k == a.Key() {
				n++
			}
		}
		if n != 1 {
			t.Errorf("key %s listed %d times", a.Key(), n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch")
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := s.Watch(ctx, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case _, ok := <-changes:
		if ok {
			for range changes {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func hasKey(c Change, k model.Key) bool {
	for _, got := range c.Keys {
		if got == k {
			return true
		}
	}
	return false
}

func TestKeyForPath(t *testing.T) {
	s := openStore(t)
	k := model.Key{Kind: model.KindHabit, ID: "run"}
	path := filepath.Join(s.BasePath(), "habit", encodeID("run"))
	if got, ok := s.keyForPath(path); !ok || got != k {
		t.Errorf("keyForPath = %v, %v", got, ok)
	}
	for _, p := range []string{
		filepath.Join(s.BasePath(), "habit"),
		filepath.Join(s.BasePath(), "note", encodeID("x")),
		filepath.Join(s.BasePath(), "task", "!!"),
	} {
		if _, ok := s.keyForPath(p); ok {
			t.Errorf("keyForPath(%s) accepted", p)
		}
	}
}
