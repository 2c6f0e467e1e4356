package pending

import (
	"testing"
	"time"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/model"
)

func change(id, date, tm string) commit.Change {
	return commit.Change{Key: model.Key{Kind: model.KindTask, ID: id}, Date: date, Time: tm}
}

func TestRecordAndReload(t *testing.T) {
	dir := t.TempDir()
	tbl, err := NewTable(dir)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := change("a", "2024-05-01", "09:15-09:45")
	tbl.Record(c, "offline", at)
	tbl.Record(c, "still offline", at.Add(time.Minute))
	tbl.Record(change("b", "2024-05-01", "10:00-10:30"), "offline", at.Add(-time.Minute))

	if err := tbl.Save(); err != nil {
		t.Fatal(err)
	}
	again, err := NewTable(dir)
	if err != nil {
		t.Fatal(err)
	}
	list := again.List()
	if len(list) != 2 {
		t.Fatalf("List = %+v", list)
	}
	if list[0].Change.Key.ID != "b" {
		t.Errorf("oldest failure should come first: %+v", list)
	}
	if list[1].Attempts != 2 || list[1].Reason != "still offline" {
		t.Errorf("entry = %+v", list[1])
	}
	if !again.Has(change("a", "2024-05-01", "")) {
		t.Errorf("Has should match on item and date")
	}
}

func TestRecordNewerTimeResetsAttempts(t *testing.T) {
	tbl, _ := NewTable(t.TempDir())
	at := time.Now()
	tbl.Record(change("a", "2024-05-01", "09:00-09:30"), "x", at)
	tbl.Record(change("a", "2024-05-01", "10:00-10:30"), "x", at)
	list := tbl.List()
	if len(list) != 1 || list[0].Attempts != 1 || list[0].Change.Time != "10:00-10:30" {
		t.Errorf("List = %+v", list)
	}
}

func TestResolve(t *testing.T) {
	tbl, _ := NewTable(t.TempDir())
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	older := change("a", "2024-05-01", "09:00-09:30")
	tbl.Record(older, "x", at)

	// A different time that started before the failure leaves it queued.
	tbl.Resolve(change("a", "2024-05-01", "11:00-11:30"), at.Add(-time.Second))
	if !tbl.Has(older) {
		t.Fatal("newer failure dropped by an earlier write")
	}

	// A later successful write supersedes it.
	tbl.Resolve(change("a", "2024-05-01", "11:00-11:30"), at.Add(time.Second))
	if tbl.Has(older) {
		t.Fatal("superseded entry kept")
	}

	tbl.Record(older, "x", at)
	tbl.Resolve(older, at)
	if tbl.Has(older) {
		t.Fatal("exact match kept")
	}
}

func TestWaitingMatchesExactChange(t *testing.T) {
	tbl, _ := NewTable(t.TempDir())
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	older := change("a", "2024-05-01", "09:00-09:30")
	newer := change("a", "2024-05-01", "10:00-10:30")
	tbl.Record(older, "x", at)
	if !tbl.Waiting(older) {
		t.Fatal("recorded change not waiting")
	}
	tbl.Record(newer, "x", at.Add(time.Minute))
	if tbl.Waiting(older) {
		t.Error("replaced change still waiting")
	}
	if !tbl.Waiting(newer) || !tbl.Has(older) {
		t.Error("newer change should be waiting for the same slot")
	}
}

func TestSaveWithoutChangesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tbl, _ := NewTable(dir)
	if err := tbl.Save(); err != nil {
		t.Fatal(err)
	}
	again, err := NewTable(dir)
	if err != nil || len(again.List()) != 0 {
		t.Errorf("List = %+v, err %v", again.List(), err)
	}
}
