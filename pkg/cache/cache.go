// Package cache memoises computed layouts per date.
package cache

import (
	"sync"

	"github.com/harrisonrobin/dayline/pkg/layout"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// Positions holds layout results keyed by date and item.
type Positions struct {
	mu    sync.RWMutex
	dates map[string]layout.Layout
}

func New() *Positions {
	return &Positions{dates: make(map[string]layout.Layout)}
}

// Get returns the cached position of one item.
func (c *Positions) Get(date string, key model.Key) (layout.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.dates[date]
	if !ok {
		return layout.Position{}, false
	}
	pos, ok := l[key]
	return pos, ok
}

// Layout returns a copy of the cached layout for date.
func (c *Positions) Layout(date string) (layout.Layout, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.dates[date]
	if !ok {
		return nil, false
	}
	out := make(layout.Layout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out, true
}

// Store replaces the cached layout for date.
func (c *Positions) Store(date string, l layout.Layout) {
	cp := make(layout.Layout, len(l))
	for k, v := range l {
		cp[k] = v
	}
	c.mu.Lock()
	c.dates[date] = cp
	c.mu.Unlock()
}

// Invalidate drops the layout for one date.
func (c *Positions) Invalidate(date string) {
	c.mu.Lock()
	delete(c.dates, date)
	c.mu.Unlock()
}

// InvalidateAll drops every cached layout.
func (c *Positions) InvalidateAll() {
	c.mu.Lock()
	c.dates = make(map[string]layout.Layout)
	c.mu.Unlock()
}

// Len returns the number of cached dates.
func (c *Positions) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dates)
}
