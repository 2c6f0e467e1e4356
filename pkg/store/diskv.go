// Package store persists scheduled items on disk and serves them to the
// timeline engine.
package store

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/model"
)

var ErrNotFound = errors.New("store: item not found")

// Store keeps one JSON document per item, in a directory per kind.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Open creates a Store rooted at basePath.
func Open(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: basePath}, nil
}

// BasePath is the directory the store writes to.
func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) read(key string) (model.ScheduledItem, error) {
	val, err := s.d.Read(key)
	if err != nil {
		return model.ScheduledItem{}, err
	}
	var it model.ScheduledItem
	if err := json.Unmarshal(val, &it); err != nil {
		return model.ScheduledItem{}, err
	}
	return it, nil
}

// Get returns one item.
func (s *Store) Get(key model.Key) (model.ScheduledItem, error) {
	k := toKey(key)
	if !s.d.Has(k) {
		return model.ScheduledItem{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.read(k)
}

// Save writes an item, replacing any previous version.
func (s *Store) Save(it model.ScheduledItem) error {
	if err := it.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	data, err := json.Marshal(it)
	if err != nil {
		return err
	}
	return s.d.Write(toKey(it.Key()), data)
}

// Delete removes an item.
func (s *Store) Delete(key model.Key) error {
	k := toKey(key)
	if !s.d.Has(k) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.d.Erase(k)
}

// List returns every stored item ordered by key.
func (s *Store) List(ctx context.Context) []model.ScheduledItem {
	all := make([]model.ScheduledItem, 0)
	for key := range s.d.Keys(ctx.Done()) {
		it, err := s.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		all = append(all, it)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Key().String() < all[j].Key().String()
	})
	return all
}

// ItemsActiveOn returns the items that belong on the timeline for date.
func (s *Store) ItemsActiveOn(ctx context.Context, date string) ([]model.ScheduledItem, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, fmt.Errorf("store: invalid date %q: %w", date, err)
	}
	out := make([]model.ScheduledItem, 0)
	for _, it := range s.List(ctx) {
		if it.IsActiveOn(date) {
			out = append(out, it)
		}
	}
	return out, ctx.Err()
}

// PersistTimeChange applies a committed time change to the stored item.
func (s *Store) PersistTimeChange(_ context.Context, change commit.Change) error {
	it, err := s.Get(change.Key)
	if err != nil {
		return err
	}
	updated := commit.ApplyChange(it, change)
	if err := s.Save(updated); err != nil {
		return fmt.Errorf("store: save %s: %w", change.Key, err)
	}
	log.Printf("store: %s on %s set to %s", change.Key, change.Date, change.Time)
	return nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `kind-encodedid`. IDs are base32 encoded so they cannot clash
// with the separator or escape the kind directory.
func toKey(k model.Key) string {
	return fmt.Sprintf("%s-%s", k.Kind, encodeID(k.ID))
}

var idEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

func encodeID(id string) string {
	return idEncoding.EncodeToString([]byte(id))
}

func decodeID(s string) (string, error) {
	b, err := idEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
