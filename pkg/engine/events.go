package engine

import (
	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// EventType describes what changed in the engine.
type EventType int

const (
	// EventLayoutChanged means positions for Date must be re-read.
	EventLayoutChanged EventType = iota
	// EventCommitted reports a change that reached storage.
	EventCommitted
	// EventCommitFailed reports a change that could not be persisted. The
	// local state keeps the change and the item is marked stale.
	EventCommitFailed
)

func (t EventType) String() string {
	switch t {
	case EventLayoutChanged:
		return "layout-changed"
	case EventCommitted:
		return "committed"
	case EventCommitFailed:
		return "commit-failed"
	}
	return "unknown"
}

type Event struct {
	Type   EventType
	Date   string
	Key    model.Key
	Change commit.Change
	Err    error
}

// Subscribe registers fn for every engine event and returns a function that
// removes it. fn is called without engine locks held.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) emit(ev Event) {
	e.subMu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
