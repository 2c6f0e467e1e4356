package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/drag"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/pending"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

const day = "2024-05-01"

type fakeSource struct {
	mu    sync.Mutex
	items []model.ScheduledItem
}

func (f *fakeSource) ItemsActiveOn(_ context.Context, date string) ([]model.ScheduledItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ScheduledItem
	for _, it := range f.items {
		if it.IsActiveOn(date) {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeCompletions map[model.Key]bool

func (f fakeCompletions) IsCompleted(_ context.Context, it model.ScheduledItem, _ string) bool {
	return f[it.Key()]
}

type fakePersister struct {
	mu      sync.Mutex
	err     error
	changes []commit.Change
}

func (f *fakePersister) PersistTimeChange(_ context.Context, c commit.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, c)
	return nil
}

func (f *fakePersister) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePersister) got() []commit.Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]commit.Change(nil), f.changes...)
}

func task(id, tm string) model.ScheduledItem {
	return model.ScheduledItem{ID: id, Kind: model.KindTask, Title: id, Time: tm, Task: &model.TaskSchedule{DueDate: day}}
}

func key(id string) model.Key {
	return model.Key{Kind: model.KindTask, ID: id}
}

type fixture struct {
	engine  *Engine
	persist *fakePersister
	pending *pending.Table
	done    fakeCompletions
	events  []Event
	mu      sync.Mutex
}

func newFixture(t *testing.T, items ...model.ScheduledItem) *fixture {
	t.Helper()
	tbl, err := pending.NewTable(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{persist: &fakePersister{}, pending: tbl, done: fakeCompletions{}}
	f.engine, err = New(Options{
		Source:      &fakeSource{items: items},
		Completions: f.done,
		Persister:   f.persist,
		Pending:     tbl,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.engine.Subscribe(func(ev Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	if err := f.engine.SetDate(context.Background(), day); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) count(typ EventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Persister: &fakePersister{}}); !errors.Is(err, ErrNoSource) {
		t.Errorf("err = %v", err)
	}
	if _, err := New(Options{Source: &fakeSource{}}); !errors.Is(err, ErrNoPersister) {
		t.Errorf("err = %v", err)
	}
}

func TestSetDateRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetDate(context.Background(), "01/05/2024"); err == nil {
		t.Fatal("expected error")
	}
	if f.engine.Date() != day {
		t.Errorf("date changed to %s", f.engine.Date())
	}
}

func TestDragCommitsAndRelayouts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"), task("b", "12:00-13:00"))

	if p := f.engine.Positions()[key("a")]; p.WidthPercent != 100 {
		t.Fatalf("initial a = %+v", p)
	}
	if !f.engine.BeginDrag(ctx, key("a"), 540) {
		t.Fatal("BeginDrag refused")
	}
	f.engine.UpdateDrag(720)

	live := f.engine.Positions()
	if live[key("a")].WidthPercent != 50 || live[key("b")].WidthPercent != 50 {
		t.Errorf("live overlap not shown: %+v", live)
	}

	f.engine.EndDrag(ctx)
	if _, ok := f.engine.Session(); ok {
		t.Fatal("session still active")
	}
	// The authoritative layout is in place before persistence returns.
	after := f.engine.Positions()
	if after[key("a")].Time != "12:00-13:00" || after[key("a")].TotalColumns != 2 {
		t.Errorf("a after drop = %+v", after[key("a")])
	}
	if it, _ := f.engine.Item(key("a")); it.Time != "12:00-13:00" {
		t.Errorf("local item = %s", it.Time)
	}

	f.engine.Wait()
	want := commit.Change{Key: key("a"), Date: day, Time: "12:00-13:00"}
	if got := f.persist.got(); len(got) != 1 || got[0] != want {
		t.Errorf("persisted %+v", got)
	}
	if f.count(EventCommitted) != 1 {
		t.Errorf("committed events = %d", f.count(EventCommitted))
	}
}

func TestDragKeepsDurationAndClamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "14:00-14:30"), task("b", "10:00-11:00"))

	f.engine.BeginDrag(ctx, key("a"), 850)
	f.engine.UpdateDrag(565)
	f.engine.EndDrag(ctx)

	f.engine.BeginDrag(ctx, key("b"), 600)
	f.engine.UpdateDrag(100000)
	f.engine.EndDrag(ctx)
	f.engine.Wait()

	got := f.persist.got()
	if len(got) != 2 || got[0].Time != "09:15-09:45" || got[1].Time != "22:55-23:55" {
		t.Errorf("persisted %+v", got)
	}
}

func TestRecurringDragWritesException(t *testing.T) {
	ctx := context.Background()
	h := model.ScheduledItem{ID: "run", Kind: model.KindHabit, Time: "07:00-07:30", Habit: &model.HabitSchedule{StartDate: "2024-01-01"}}
	f := newFixture(t, h)
	k := h.Key()

	if !f.engine.BeginDrag(ctx, k, 420) {
		t.Fatal("BeginDrag refused")
	}
	f.engine.UpdateDrag(480)
	f.engine.EndDrag(ctx)
	f.engine.Wait()

	it, _ := f.engine.Item(k)
	if it.Time != "07:00-07:30" || it.Exceptions[day].Time != "08:00-08:30" {
		t.Errorf("item = %+v", it)
	}
}

func TestCompletedItemCannotBeDragged(t *testing.T) {
	f := newFixture(t, task("a", "09:00-10:00"))
	f.done[key("a")] = true
	before := f.engine.Positions()[key("a")]

	if f.engine.BeginDrag(context.Background(), key("a"), 540) {
		t.Fatal("BeginDrag accepted a completed item")
	}
	if f.engine.BeginResize(context.Background(), key("a"), drag.EdgeEnd, 600) {
		t.Fatal("BeginResize accepted a completed item")
	}
	f.engine.UpdateDrag(900)
	f.engine.EndDrag(context.Background())
	f.engine.Wait()

	if _, ok := f.engine.Session(); ok {
		t.Error("session started")
	}
	if got := f.engine.Positions()[key("a")]; got != before {
		t.Errorf("position changed: %+v -> %+v", before, got)
	}
	if len(f.persist.got()) != 0 {
		t.Error("completed item persisted")
	}
}

func TestSecondGestureIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"), task("b", "12:00-13:00"))
	if !f.engine.BeginDrag(ctx, key("a"), 540) {
		t.Fatal("BeginDrag refused")
	}
	if f.engine.BeginDrag(ctx, key("b"), 720) {
		t.Error("second BeginDrag accepted")
	}
	if f.engine.BeginResize(ctx, key("b"), drag.EdgeEnd, 780) {
		t.Error("BeginResize accepted during drag")
	}
	if s, _ := f.engine.Session(); s.Key != key("a") {
		t.Errorf("session key = %s", s.Key)
	}
	if f.engine.BeginDrag(ctx, key("missing"), 0) {
		t.Error("unknown item accepted")
	}
}

func TestReleaseWithoutMovementCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	f.engine.BeginDrag(ctx, key("a"), 540)
	f.engine.UpdateDrag(545)
	f.engine.EndDrag(ctx)
	f.engine.Wait()
	if len(f.persist.got()) != 0 {
		t.Errorf("persisted %+v", f.persist.got())
	}
}

func TestResizeAndModeChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	if !f.engine.BeginResize(ctx, key("a"), drag.EdgeEnd, 600) {
		t.Fatal("BeginResize refused")
	}
	f.engine.UpdateDrag(900)
	f.engine.EndDrag(ctx)
	if _, ok := f.engine.Session(); !ok {
		t.Fatal("move calls ended a resize")
	}
	f.engine.UpdateResize(630)
	f.engine.EndResize(ctx)
	f.engine.Wait()

	if got := f.persist.got(); len(got) != 1 || got[0].Time != "09:00-10:30" {
		t.Errorf("persisted %+v", got)
	}
}

func TestCancelDrag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	f.engine.BeginDrag(ctx, key("a"), 540)
	f.engine.UpdateDrag(900)
	f.engine.CancelDrag()
	f.engine.Wait()

	if _, ok := f.engine.Session(); ok {
		t.Error("session survived cancel")
	}
	if p := f.engine.Positions()[key("a")]; p.Time != "09:00-10:00" {
		t.Errorf("position = %+v", p)
	}
	if len(f.persist.got()) != 0 {
		t.Error("cancelled gesture persisted")
	}
}

func TestCommitFailureKeepsChangeAndRetries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	f.persist.fail(errors.New("disk full"))

	f.engine.BeginDrag(ctx, key("a"), 540)
	f.engine.UpdateDrag(600)
	f.engine.EndDrag(ctx)
	f.engine.Wait()

	if f.count(EventCommitFailed) != 1 {
		t.Fatalf("commit-failed events = %d", f.count(EventCommitFailed))
	}
	p := f.engine.Positions()[key("a")]
	if p.Time != "10:00-11:00" || !p.Stale {
		t.Errorf("position after failure = %+v", p)
	}
	if list := f.pending.List(); len(list) != 1 || list[0].Reason != "disk full" {
		t.Errorf("pending = %+v", list)
	}

	f.persist.fail(nil)
	n, err := f.engine.RetryPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryPending = %d, %v", n, err)
	}
	if p := f.engine.Positions()[key("a")]; p.Stale {
		t.Error("still stale after retry")
	}
	if got := f.persist.got(); len(got) != 1 || got[0].Time != "10:00-11:00" {
		t.Errorf("persisted %+v", got)
	}
}

func TestZoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	if p := f.engine.Positions()[key("a")]; p.Top != 540 {
		t.Fatalf("Top = %v", p.Top)
	}

	f.engine.SetZoom(1, 0, 600)
	if hh := f.engine.Zoom().HourHeight(); hh != 2*timeconv.DefaultHourHeight {
		t.Fatalf("HourHeight = %v", hh)
	}
	if p := f.engine.Positions()[key("a")]; p.Top != 1080 || p.Height != 120 {
		t.Errorf("zoomed position = %+v", p)
	}

	f.engine.BeginDrag(ctx, key("a"), 1080)
	if top := f.engine.SetZoom(-1, 100, 600); top != 100 {
		t.Errorf("zoom during gesture returned %v", top)
	}
	if f.engine.Zoom().Level != 2 {
		t.Errorf("zoom changed during gesture")
	}
	f.engine.CancelDrag()
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	src := &fakeSource{items: []model.ScheduledItem{task("a", "09:00-10:00")}}
	e, err := New(Options{Source: src, Persister: &fakePersister{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Reload(context.Background()); !errors.Is(err, ErrNoDate) {
		t.Errorf("Reload without date = %v", err)
	}
	if err := e.SetDate(context.Background(), day); err != nil {
		t.Fatal(err)
	}

	src.mu.Lock()
	src.items = append(src.items, task("b", "09:30-10:30"))
	src.mu.Unlock()
	if err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p := e.Positions()[key("b")]; p.Column != 1 {
		t.Errorf("b = %+v", p)
	}
	if len(e.Items()) != 2 {
		t.Errorf("Items = %d", len(e.Items()))
	}
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t, task("a", "09:00-10:00"))
	var n int
	unsub := f.engine.Subscribe(func(Event) { n++ })
	f.engine.Invalidate()
	unsub()
	f.engine.Invalidate()
	if n != 1 {
		t.Errorf("events after unsubscribe: %d", n)
	}
}

func TestReleaseInPlaceKeepsOffGridTimes(t *testing.T) {
	ctx := context.Background()
	items := []model.ScheduledItem{
		task("a", "09:10-10:00"),
		task("b", "22:30-24:00"),
		task("c", "23:00-23:59"),
		task("d", "09:00-09:05"),
	}
	f := newFixture(t, items...)

	for _, it := range items {
		pos := f.engine.Positions()[it.Key()]
		if !f.engine.BeginDrag(ctx, it.Key(), pos.Top) {
			t.Fatalf("BeginDrag(%s) refused", it.ID)
		}
		f.engine.EndDrag(ctx)

		if !f.engine.BeginResize(ctx, it.Key(), drag.EdgeEnd, pos.Top+pos.Height) {
			t.Fatalf("BeginResize(%s) refused", it.ID)
		}
		f.engine.EndResize(ctx)

		if !f.engine.BeginResize(ctx, it.Key(), drag.EdgeStart, pos.Top) {
			t.Fatalf("BeginResize(%s) refused", it.ID)
		}
		f.engine.UpdateResize(pos.Top)
		f.engine.EndResize(ctx)
	}
	f.engine.Wait()

	if got := f.persist.got(); len(got) != 0 {
		t.Errorf("in-place releases persisted %+v", got)
	}
	for _, it := range items {
		if got, _ := f.engine.Item(it.Key()); got.Time != it.Time {
			t.Errorf("%s: time %s, want %s", it.ID, got.Time, it.Time)
		}
	}
}

func TestResizeEndClampsAndKeepsOneSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "22:00-23:00"), task("b", "09:00-09:05"))

	f.engine.BeginResize(ctx, key("a"), drag.EdgeEnd, 1380)
	f.engine.UpdateResize(5000)
	f.engine.EndResize(ctx)

	f.engine.BeginResize(ctx, key("b"), drag.EdgeEnd, 545)
	f.engine.UpdateResize(546)
	f.engine.EndResize(ctx)
	f.engine.Wait()

	got := f.persist.got()
	if len(got) != 2 || got[0].Time != "22:00-23:55" || got[1].Time != "09:00-09:15" {
		t.Errorf("persisted %+v", got)
	}
}

// gatedPersister holds the first write until release is closed and keeps
// the last time written per item.
type gatedPersister struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	calls  int
	writes []string
	stored map[model.Key]string
}

func newGatedPersister() *gatedPersister {
	return &gatedPersister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		stored:  make(map[model.Key]string),
	}
}

func (g *gatedPersister) PersistTimeChange(_ context.Context, c commit.Change) error {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, c.Key.ID+" "+c.Time)
	g.stored[c.Key] = c.Time
	return nil
}

func newGatedEngine(t *testing.T, g *gatedPersister, items ...model.ScheduledItem) *Engine {
	t.Helper()
	e, err := New(Options{Source: &fakeSource{items: items}, Persister: g})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetDate(context.Background(), day); err != nil {
		t.Fatal(err)
	}
	return e
}

func moveBy(e *Engine, k model.Key, dy float64) {
	ctx := context.Background()
	top := e.Positions()[k].Top
	e.BeginDrag(ctx, k, top)
	e.UpdateDrag(top + dy)
	e.EndDrag(ctx)
}

func TestSlowWriteDoesNotOverwriteNewerCommit(t *testing.T) {
	g := newGatedPersister()
	e := newGatedEngine(t, g, task("a", "09:00-10:00"))

	moveBy(e, key("a"), 60)
	<-g.entered
	moveBy(e, key("a"), 60)
	close(g.release)
	e.Wait()

	if it, _ := e.Item(key("a")); it.Time != "11:00-12:00" {
		t.Fatalf("engine holds %s", it.Time)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if got := g.stored[key("a")]; got != "11:00-12:00" {
		t.Errorf("storage holds %s, engine shows 11:00-12:00 (writes %v)", got, g.writes)
	}
	if len(g.writes) != 2 || g.writes[0] != "a 10:00-11:00" {
		t.Errorf("writes = %v", g.writes)
	}
}

func TestQueuedWritesForSameSlotCollapse(t *testing.T) {
	g := newGatedPersister()
	e := newGatedEngine(t, g, task("a", "09:00-10:00"), task("b", "14:00-15:00"))

	moveBy(e, key("b"), 60)
	<-g.entered
	moveBy(e, key("a"), 60)
	moveBy(e, key("a"), 60)
	close(g.release)
	e.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	want := []string{"b 15:00-16:00", "a 11:00-12:00"}
	if len(g.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", g.writes, want)
	}
	for i := range want {
		if g.writes[i] != want[i] {
			t.Errorf("writes[%d] = %s, want %s", i, g.writes[i], want[i])
		}
	}
}

func TestRetrySkipsChangeReplacedByNewerCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, task("a", "09:00-10:00"))
	f.persist.fail(errors.New("offline"))
	f.engine.BeginDrag(ctx, key("a"), 540)
	f.engine.UpdateDrag(600)
	f.engine.EndDrag(ctx)
	f.engine.Wait()

	f.persist.fail(nil)
	f.engine.BeginDrag(ctx, key("a"), 600)
	f.engine.UpdateDrag(660)
	f.engine.EndDrag(ctx)
	f.engine.Wait()

	n, err := f.engine.RetryPending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("RetryPending = %d, %v", n, err)
	}
	if got := f.persist.got(); len(got) != 1 || got[0].Time != "11:00-12:00" {
		t.Errorf("persisted %+v", got)
	}
}
