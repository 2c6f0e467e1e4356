// Package index remembers which calendar event mirrors an item on a date.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrisonrobin/dayline/pkg/model"
)

const indexFile = "events.json"

type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// NewEventIndex loads the index stored under dir, if any.
func NewEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]string),
		Path:     filepath.Join(dir, indexFile),
	}
	if _, err := os.Stat(idx.Path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// MirrorKey names one item occurrence: the item key plus its date.
func MirrorKey(key model.Key, date string) string {
	return key.String() + "@" + date
}

func (idx *EventIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return json.NewDecoder(f).Decode(&idx.Mappings)
}

func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(key model.Key, date string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[MirrorKey(key, date)]
}

func (idx *EventIndex) Set(key model.Key, date, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := MirrorKey(key, date)
	if idx.Mappings[k] != eventID {
		idx.Mappings[k] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(key model.Key, date string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := MirrorKey(key, date)
	if _, exists := idx.Mappings[k]; exists {
		delete(idx.Mappings, k)
		idx.dirty = true
	}
}
