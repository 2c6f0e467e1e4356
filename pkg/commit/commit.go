// Package commit turns a finished gesture into a time change on an item.
package commit

import (
	"context"
	"errors"

	"github.com/harrisonrobin/dayline/pkg/model"
)

// Change is a committed time range for one item on one date.
type Change struct {
	Key  model.Key `json:"key"`
	Date string    `json:"date"`
	Time string    `json:"time"`
}

// Persister writes a change to durable storage.
type Persister interface {
	PersistTimeChange(ctx context.Context, change Change) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, change Change) error

func (f PersisterFunc) PersistTimeChange(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Multi writes a change to every persister in order and joins their errors.
type Multi []Persister

func (m Multi) PersistTimeChange(ctx context.Context, change Change) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PersistTimeChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Patch is the mutation a change makes. Exactly one of Time or Exceptions
// is set: non-recurring items change their base time, recurring items get
// a new exception map with only the committed date replaced.
type Patch struct {
	Key        model.Key
	Time       *string
	Exceptions map[string]model.Exception
}

// BuildPatch computes the patch for committing timeRange on date.
func BuildPatch(item model.ScheduledItem, date, timeRange string) Patch {
	p := Patch{Key: item.Key()}
	if !item.Recurring() {
		t := timeRange
		p.Time = &t
		return p
	}
	ex := make(map[string]model.Exception, len(item.Exceptions)+1)
	for d, e := range item.Exceptions {
		ex[d] = e
	}
	e := ex[date]
	e.Time = timeRange
	ex[date] = e
	p.Exceptions = ex
	return p
}

// Apply returns a copy of item with the patch applied.
func (p Patch) Apply(item model.ScheduledItem) model.ScheduledItem {
	out := item.Clone()
	if p.Time != nil {
		out.Time = *p.Time
	}
	if p.Exceptions != nil {
		out.Exceptions = make(map[string]model.Exception, len(p.Exceptions))
		for d, e := range p.Exceptions {
			out.Exceptions[d] = e
		}
	}
	return out
}

// ApplyChange is BuildPatch followed by Apply.
func ApplyChange(item model.ScheduledItem, change Change) model.ScheduledItem {
	return BuildPatch(item, change.Date, change.Time).Apply(item)
}
