// Package itemfile reads and writes timeline items as a YAML document with
// separate task and habit lists.
package itemfile

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/dayline/pkg/model"
)

// File is the on-disk document.
type File struct {
	Tasks  []model.ScheduledItem `yaml:"tasks,omitempty"`
	Habits []model.ScheduledItem `yaml:"habits,omitempty"`
}

// Decode reads a document. The kind of each entry follows the list it is
// in, and entries without an id get a fresh one.
func Decode(r io.Reader) ([]model.ScheduledItem, error) {
	var f File
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]model.ScheduledItem, 0, len(f.Tasks)+len(f.Habits))
	for _, it := range f.Tasks {
		it.Kind = model.KindTask
		if it.Task == nil {
			it.Task = &model.TaskSchedule{}
		}
		items = append(items, it)
	}
	for _, it := range f.Habits {
		it.Kind = model.KindHabit
		items = append(items, it)
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i, items[i].Title, err)
		}
	}
	return items, nil
}

// Load decodes the file at path.
func Load(path string) ([]model.ScheduledItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes items grouped by kind.
func Encode(w io.Writer, items []model.ScheduledItem) error {
	var f File
	for _, it := range items {
		switch it.Kind {
		case model.KindTask:
			f.Tasks = append(f.Tasks, it)
		case model.KindHabit:
			f.Habits = append(f.Habits, it)
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	return enc.Close()
}

// Save writes items to path, replacing it.
func Save(path string, items []model.ScheduledItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
