package engine

import (
	"context"
	"log"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/drag"
	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// BeginDrag starts moving an item. It returns false, leaving the engine
// idle-or-unchanged, when another gesture is active, the item is not on
// the timeline, or the item is completed on the visible date.
func (e *Engine) BeginDrag(ctx context.Context, key model.Key, pointerY float64) bool {
	return e.begin(ctx, key, func(iv interval.Interval, date string, hh float64) *drag.Session {
		return drag.Begin(key, date, iv.Range(), pointerY, hh)
	})
}

// BeginResize starts resizing an item from the given edge.
func (e *Engine) BeginResize(ctx context.Context, key model.Key, edge drag.Edge, pointerY float64) bool {
	return e.begin(ctx, key, func(iv interval.Interval, date string, hh float64) *drag.Session {
		return drag.BeginResize(key, date, iv.Range(), edge, pointerY, hh)
	})
}

func (e *Engine) begin(ctx context.Context, key model.Key, start func(interval.Interval, string, float64) *drag.Session) bool {
	e.mu.Lock()
	if e.session != nil || e.date == "" {
		e.mu.Unlock()
		return false
	}
	item, ok := e.items[key]
	date := e.date
	e.mu.Unlock()
	if !ok || !item.IsActiveOn(date) {
		return false
	}
	iv, ok := interval.ToInterval(item, date)
	if !ok {
		return false
	}
	if e.completions != nil && e.completions.IsCompleted(ctx, item, date) {
		return false
	}

	e.mu.Lock()
	if e.session != nil || e.date != date {
		e.mu.Unlock()
		return false
	}
	s := start(iv, date, e.zoom.HourHeight())
	s.RefreshOverlap(e.intervalsLocked())
	e.session = s
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: date, Key: key})
	return true
}

// UpdateDrag moves the dragged item to follow the pointer.
func (e *Engine) UpdateDrag(pointerY float64) {
	e.update(pointerY, func(m drag.Mode) bool { return m == drag.Move })
}

// UpdateResize moves the resized edge to follow the pointer.
func (e *Engine) UpdateResize(pointerY float64) {
	e.update(pointerY, func(m drag.Mode) bool { return m != drag.Move })
}

func (e *Engine) update(pointerY float64, accept func(drag.Mode) bool) {
	e.mu.Lock()
	s := e.session
	if s == nil || !accept(s.Mode) {
		e.mu.Unlock()
		return
	}
	s.Update(pointerY)
	s.RefreshOverlap(e.intervalsLocked())
	date, key := e.date, s.Key
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: date, Key: key})
}

// EndDrag commits the move gesture.
func (e *Engine) EndDrag(ctx context.Context) {
	e.end(ctx, func(m drag.Mode) bool { return m == drag.Move })
}

// EndResize commits the resize gesture.
func (e *Engine) EndResize(ctx context.Context) {
	e.end(ctx, func(m drag.Mode) bool { return m != drag.Move })
}

// CancelDrag drops the active gesture without committing anything.
func (e *Engine) CancelDrag() {
	e.mu.Lock()
	s := e.session
	e.session = nil
	date := e.date
	e.mu.Unlock()
	if s != nil {
		e.emit(Event{Type: EventLayoutChanged, Date: date, Key: s.Key})
	}
}

// Session returns a copy of the active gesture.
func (e *Engine) Session() (drag.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return drag.Session{}, false
	}
	return *e.session, true
}

// end clears the session, applies the change locally, recomputes the
// authoritative layout and only then hands the change to the persister.
// A release without net movement commits nothing.
func (e *Engine) end(ctx context.Context, accept func(drag.Mode) bool) {
	e.mu.Lock()
	s := e.session
	if s == nil || !accept(s.Mode) {
		e.mu.Unlock()
		return
	}
	e.session = nil

	var change *commit.Change
	if s.Moved() {
		if item, ok := e.items[s.Key]; ok {
			c := commit.Change{Key: s.Key, Date: s.Date, Time: s.LiveRange().String()}
			e.items[s.Key] = commit.ApplyChange(item, c)
			change = &c
		}
	}
	e.cache.Invalidate(s.Date)
	if s.Date == e.date {
		e.layoutLocked()
	}
	e.mu.Unlock()

	e.emit(Event{Type: EventLayoutChanged, Date: s.Date, Key: s.Key})
	if change != nil {
		e.persist(ctx, *change)
	}
}

type queuedWrite struct {
	ctx    context.Context
	change commit.Change
}

// persist queues the change for the background writer. Changes are written
// in commit order; a change followed in the queue by another for the same
// item and date is dropped. Failures are logged, queued for retry and
// reported to subscribers; the optimistic local state stays.
func (e *Engine) persist(ctx context.Context, change commit.Change) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.writes = append(e.writes, queuedWrite{ctx: context.WithoutCancel(ctx), change: change})
	if !e.writing {
		e.writing = true
		e.inflight.Add(1)
		go e.drainWrites()
	}
}

func (e *Engine) drainWrites() {
	defer e.inflight.Done()
	for {
		w, ok := e.nextWrite()
		if !ok {
			return
		}
		if err := e.persistOnce(w.ctx, w.change); err != nil {
			e.emit(Event{Type: EventCommitFailed, Date: w.change.Date, Key: w.change.Key, Change: w.change, Err: err})
			continue
		}
		e.emit(Event{Type: EventCommitted, Date: w.change.Date, Key: w.change.Key, Change: w.change})
	}
}

// nextWrite pops the oldest write that is not superseded, or stops the
// writer when the queue is empty.
func (e *Engine) nextWrite() (queuedWrite, bool) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	for len(e.writes) > 0 {
		w := e.writes[0]
		e.writes = e.writes[1:]
		if !e.supersededLocked(w.change) {
			return w, true
		}
	}
	e.writes = nil
	e.writing = false
	return queuedWrite{}, false
}

func (e *Engine) supersededLocked(c commit.Change) bool {
	for _, later := range e.writes {
		if later.change.Key == c.Key && later.change.Date == c.Date {
			return true
		}
	}
	return false
}

func (e *Engine) persistOnce(ctx context.Context, change commit.Change) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return e.write(ctx, change)
}

// write calls the persister and updates the pending table. persistMu must
// be held.
func (e *Engine) write(ctx context.Context, change commit.Change) error {
	started := e.now()
	err := e.persister.PersistTimeChange(ctx, change)
	if err != nil {
		log.Printf("commit: persisting %s on %s: %v", change.Key, change.Date, err)
		if e.pending != nil {
			e.pending.Record(change, err.Error(), e.now())
		}
	} else if e.pending != nil {
		e.pending.Resolve(change, started)
	}
	if e.pending != nil {
		if serr := e.pending.Save(); serr != nil {
			log.Printf("Warning: failed to save pending commits: %v", serr)
		}
	}
	return err
}

// retryOnce re-sends a queued change unless a later write already replaced
// it.
func (e *Engine) retryOnce(ctx context.Context, change commit.Change) (bool, error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if !e.pending.Waiting(change) {
		return false, nil
	}
	return true, e.write(ctx, change)
}

// RetryPending re-sends every queued change and returns how many succeeded.
func (e *Engine) RetryPending(ctx context.Context) (int, error) {
	if e.pending == nil {
		return 0, nil
	}
	var (
		done    int
		lastErr error
	)
	for _, entry := range e.pending.List() {
		sent, err := e.retryOnce(ctx, entry.Change)
		if err != nil {
			lastErr = err
			continue
		}
		if !sent {
			continue
		}
		done++
		e.emit(Event{Type: EventCommitted, Date: entry.Change.Date, Key: entry.Change.Key, Change: entry.Change})
	}
	return done, lastErr
}
