package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrisonrobin/dayline/pkg/model"
)

// Change is one debounced batch of store writes. Reload is set when some
// write could not be attributed to an item file.
type Change struct {
	Keys   []model.Key
	Reload bool
}

// Watch reports batches of changes until ctx is done, then closes the
// channel. Writes less than debounce apart arrive in the same batch.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) (<-chan Change, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	dirs, err := collectDirs(s.basePath)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var (
			batch Change
			seen  = make(map[model.Key]bool)
			fire  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Warning: store watcher: %v", err)
				batch.Reload = true
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if key, ok := s.keyForPath(ev.Name); ok {
					if !seen[key] {
						seen[key] = true
						batch.Keys = append(batch.Keys, key)
					}
				} else {
					batch.Reload = true
					if ev.Op&fsnotify.Create != 0 {
						watchIfDir(w, ev.Name)
					}
				}
			case <-fire:
				fire = nil
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
				batch = Change{}
				seen = make(map[model.Key]bool)
				continue
			}
			if fire == nil {
				fire = time.After(debounce)
			}
		}
	}()
	return out, nil
}

// watchIfDir adds kind directories created after Watch started.
func watchIfDir(w *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.Add(path); err != nil {
		log.Printf("Warning: store: watch %s: %v", path, err)
	}
}

func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// keyForPath maps `<base>/<kind>/<encoded id>` back to an item key.
func (s *Store) keyForPath(path string) (model.Key, bool) {
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil {
		return model.Key{}, false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) != 2 {
		return model.Key{}, false
	}
	id, err := decodeID(parts[1])
	if err != nil {
		return model.Key{}, false
	}
	key := model.Key{Kind: model.Kind(parts[0]), ID: id}
	switch key.Kind {
	case model.KindTask, model.KindHabit:
		return key, true
	}
	return model.Key{}, false
}
