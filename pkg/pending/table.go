// Package pending keeps time changes whose persistence failed so they can
// be retried later.
package pending

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/dayline/pkg/commit"
)

const tableFile = "pending_commits.json"

type Entry struct {
	Change   commit.Change `json:"change"`
	Reason   string        `json:"reason"`
	FailedAt time.Time     `json:"failed_at"`
	Attempts int           `json:"attempts"`
}

// Table is a JSON-backed set of failed changes keyed by item and date.
type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	mu      sync.Mutex
	dirty   bool
}

// NewTable loads the table stored under dir, if any.
func NewTable(dir string) (*Table, error) {
	t := &Table{
		Path:    filepath.Join(dir, tableFile),
		Entries: make(map[string]Entry),
	}
	if _, err := os.Stat(t.Path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func entryKey(c commit.Change) string {
	return c.Key.String() + "@" + c.Date
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := json.NewDecoder(f).Decode(t); err != nil {
		return err
	}
	if t.Entries == nil {
		t.Entries = make(map[string]Entry)
	}
	return nil
}

func (t *Table) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(t); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Record stores a failed change. A newer change for the same item and date
// replaces the older one.
func (t *Table) Record(c commit.Change, reason string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := entryKey(c)
	e := t.Entries[k]
	if e.Change != c {
		e.Attempts = 0
	}
	e.Change = c
	e.Reason = reason
	e.FailedAt = at
	e.Attempts++
	t.Entries[k] = e
	t.dirty = true
}

// Resolve drops the entry for the item and date of c once c has been
// persisted. An entry for a different time is dropped only if it failed
// before the successful write started, so a newer failure survives.
func (t *Table) Resolve(c commit.Change, started time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := entryKey(c)
	if e, ok := t.Entries[k]; ok && (e.Change == c || e.FailedAt.Before(started)) {
		delete(t.Entries, k)
		t.dirty = true
	}
}

// Has reports whether a change for the item on date is waiting.
func (t *Table) Has(c commit.Change) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.Entries[entryKey(c)]
	return ok
}

// Waiting reports whether exactly c is still queued.
func (t *Table) Waiting(c commit.Change) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.Entries[entryKey(c)]
	return ok && e.Change == c
}

// List returns the waiting entries, oldest failure first.
func (t *Table) List() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FailedAt.Equal(out[j].FailedAt) {
			return out[i].FailedAt.Before(out[j].FailedAt)
		}
		return entryKey(out[i].Change) < entryKey(out[j].Change)
	})
	return out
}
