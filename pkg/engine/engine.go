// Package engine owns the day timeline: the items shown for a date, their
// cached layout, the single active drag session and the commit of finished
// gestures back to storage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/dayline/pkg/cache"
	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/drag"
	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/layout"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/pending"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

var (
	ErrNoSource    = errors.New("engine: item source is nil")
	ErrNoPersister = errors.New("engine: persister is nil")
	ErrNoDate      = errors.New("engine: no date selected")
)

// Source supplies the items active on a date.
type Source interface {
	ItemsActiveOn(ctx context.Context, date string) ([]model.ScheduledItem, error)
}

// CompletionChecker reports whether an item is done on a date. Completed
// items cannot be dragged or resized.
type CompletionChecker interface {
	IsCompleted(ctx context.Context, item model.ScheduledItem, date string) bool
}

type Options struct {
	Source      Source
	Completions CompletionChecker
	Persister   commit.Persister
	// Pending receives changes whose persistence failed. Optional.
	Pending *pending.Table
	Zoom    timeconv.Zoom
	Now     func() time.Time
}

// Engine is safe for use from multiple goroutines, but only one gesture can
// be active at a time.
type Engine struct {
	source      Source
	completions CompletionChecker
	persister   commit.Persister
	pending     *pending.Table
	now         func() time.Time

	mu      sync.Mutex
	zoom    timeconv.Zoom
	date    string
	items   map[model.Key]model.ScheduledItem
	cache   *cache.Positions
	session *drag.Session

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	// writes is the FIFO of changes waiting for the single writer goroutine.
	writeMu sync.Mutex
	writes  []queuedWrite
	writing bool
	// persistMu serializes persister calls between the writer and
	// RetryPending.
	persistMu sync.Mutex

	inflight sync.WaitGroup
}

func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.Persister == nil {
		return nil, ErrNoPersister
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	level := opts.Zoom.Level
	if level == 0 {
		level = 1
	}
	return &Engine{
		source:      opts.Source,
		completions: opts.Completions,
		persister:   opts.Persister,
		pending:     opts.Pending,
		now:         opts.Now,
		zoom:        timeconv.NewZoom(opts.Zoom.BaseHourHeight, level),
		items:       make(map[model.Key]model.ScheduledItem),
		cache:       cache.New(),
		subs:        make(map[int]func(Event)),
	}, nil
}

// SetDate switches the visible date and loads its items. Any gesture in
// progress is dropped without committing.
func (e *Engine) SetDate(ctx context.Context, date string) error {
	if _, err := model.ParseDate(date); err != nil {
		return fmt.Errorf("engine: invalid date %q: %w", date, err)
	}
	items, err := e.source.ItemsActiveOn(ctx, date)
	if err != nil {
		return fmt.Errorf("engine: load items for %s: %w", date, err)
	}

	e.mu.Lock()
	e.date = date
	e.session = nil
	e.replaceItems(items)
	e.cache.InvalidateAll()
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: date})
	return nil
}

// Reload re-reads the items of the current date from the source.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	date := e.date
	e.mu.Unlock()
	if date == "" {
		return ErrNoDate
	}
	items, err := e.source.ItemsActiveOn(ctx, date)
	if err != nil {
		return fmt.Errorf("engine: reload items for %s: %w", date, err)
	}

	e.mu.Lock()
	if e.date != date {
		e.mu.Unlock()
		return nil
	}
	e.replaceItems(items)
	if e.session != nil {
		if _, ok := e.items[e.session.Key]; !ok {
			e.session = nil
		}
	}
	e.cache.InvalidateAll()
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: date})
	return nil
}

// Invalidate drops every cached layout so the next read recomputes it.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	date := e.date
	e.cache.InvalidateAll()
	e.mu.Unlock()
	e.emit(Event{Type: EventLayoutChanged, Date: date})
}

func (e *Engine) replaceItems(items []model.ScheduledItem) {
	e.items = make(map[model.Key]model.ScheduledItem, len(items))
	for _, it := range items {
		e.items[it.Key()] = it
	}
}

// Date returns the visible date.
func (e *Engine) Date() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.date
}

// Item returns the engine's local copy of an item, including optimistic
// changes not yet persisted.
func (e *Engine) Item(key model.Key) (model.ScheduledItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, ok := e.items[key]
	return it, ok
}

// Items returns the local copies of the visible date's items, sorted by key.
func (e *Engine) Items() []model.ScheduledItem {
	e.mu.Lock()
	out := make([]model.ScheduledItem, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, it)
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// Zoom returns the current zoom state.
func (e *Engine) Zoom() timeconv.Zoom {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

// ComputeLayout runs the authoritative layout for items on date at the
// current zoom. It does not touch the cache.
func (e *Engine) ComputeLayout(items []model.ScheduledItem, date string) layout.Layout {
	e.mu.Lock()
	hh := e.zoom.HourHeight()
	e.mu.Unlock()
	return layout.Compute(items, date, hh)
}

// Positions returns the layout to render: cached positions, with the live
// gesture overriding the dragged item and its current collision set.
func (e *Engine) Positions() layout.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.date == "" {
		return layout.Layout{}
	}
	out := e.layoutLocked()
	if s := e.session; s != nil {
		for key, slot := range s.LiveOverlap {
			if key == s.Key {
				continue
			}
			if pos, ok := out[key]; ok {
				out[key] = reslot(pos, slot)
			}
		}
		out[s.Key] = s.Position()
	}
	if e.pending != nil {
		for key, pos := range out {
			if e.pending.Has(commit.Change{Key: key, Date: e.date}) {
				pos.Stale = true
				out[key] = pos
			}
		}
	}
	return out
}

// Position returns the render position of one item.
func (e *Engine) Position(key model.Key) (layout.Position, bool) {
	pos, ok := e.Positions()[key]
	return pos, ok
}

// layoutLocked returns a copy of the authoritative layout for the current
// date, computing and caching it on a miss.
func (e *Engine) layoutLocked() layout.Layout {
	if l, ok := e.cache.Layout(e.date); ok {
		return l
	}
	items := make([]model.ScheduledItem, 0, len(e.items))
	for _, it := range e.items {
		items = append(items, it)
	}
	l := layout.Compute(items, e.date, e.zoom.HourHeight())
	e.cache.Store(e.date, l)
	out := make(layout.Layout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// intervalsLocked returns the committed intervals of the current date.
func (e *Engine) intervalsLocked() []interval.Interval {
	items := make([]model.ScheduledItem, 0, len(e.items))
	for _, it := range e.items {
		if it.IsActiveOn(e.date) {
			items = append(items, it)
		}
	}
	return interval.Build(items, e.date)
}

func reslot(pos layout.Position, slot layout.Slot) layout.Position {
	if slot.TotalColumns < 1 {
		slot.TotalColumns = 1
	}
	width := 100 / float64(slot.TotalColumns)
	pos.Column = slot.Column
	pos.TotalColumns = slot.TotalColumns
	pos.WidthPercent = width
	pos.LeftPercent = float64(slot.Column) * width
	return pos
}

// SetZoom changes the zoom level by delta and returns the scroll offset that
// keeps the time at the viewport centre in view. Zooming is ignored while a
// gesture is active.
func (e *Engine) SetZoom(delta, scrollTop, viewportHeight float64) float64 {
	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return scrollTop
	}
	var top float64
	e.zoom, top = e.zoom.Apply(delta, scrollTop, viewportHeight)
	e.cache.InvalidateAll()
	date := e.date
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: date})
	return top
}

// Wait blocks until every in-flight persistence call has returned.
func (e *Engine) Wait() {
	e.inflight.Wait()
}
