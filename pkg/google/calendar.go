package google

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/dayline/pkg/colors"
	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/index"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// ItemLookup resolves the item a change refers to.
type ItemLookup interface {
	Get(key model.Key) (model.ScheduledItem, error)
}

// Mirror copies committed time changes into Google Calendar events, one
// event per item and date.
type Mirror struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	palette    *colors.Palette
	items      ItemLookup
	loc        *time.Location
}

func NewMirror(srv *calendar.Service, calendarID string, idx *index.EventIndex, palette *colors.Palette, items ItemLookup) *Mirror {
	return &Mirror{srv: srv, calendarID: calendarID, index: idx, palette: palette, items: items, loc: time.Local}
}

// PersistTimeChange creates or patches the event for the change.
func (m *Mirror) PersistTimeChange(ctx context.Context, change commit.Change) error {
	item, err := m.items.Get(change.Key)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	colorID := colors.NoProject
	if m.palette != nil {
		colorID = m.palette.ColorID(item.Project)
		if err := m.palette.Save(); err != nil {
			log.Printf("Warning: failed to save colour palette: %v", err)
		}
	}
	event, err := ToEvent(commit.ApplyChange(item, change), change.Date, change.Time, colorID, m.loc)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	existing, err := m.lookup(ctx, change.Key, change.Date)
	if err != nil {
		return fmt.Errorf("mirror: error searching for event: %w", err)
	}

	var saved *calendar.Event
	if existing != nil {
		patch, err := NeedsUpdate(existing, event)
		if err != nil {
			return fmt.Errorf("mirror: compare %s with its calendar event: %w", change.Key, err)
		}
		saved = existing
		if patch != nil {
			saved, err = m.srv.Events.Patch(m.calendarID, existing.Id, patch).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("mirror: patch event %s: %w", existing.Id, err)
			}
		}
	} else {
		saved, err = m.srv.Events.Insert(m.calendarID, event).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("mirror: insert event: %w", err)
		}
	}

	if m.index != nil {
		m.index.Set(change.Key, change.Date, saved.Id)
		if err := m.index.Save(); err != nil {
			log.Printf("Warning: failed to save event index: %v", err)
		}
	}
	return nil
}

// lookup tries the local index first and falls back to searching the
// calendar by extended property.
func (m *Mirror) lookup(ctx context.Context, key model.Key, date string) (*calendar.Event, error) {
	if m.index != nil {
		if id := m.index.Get(key, date); id != "" {
			ev, err := m.srv.Events.Get(m.calendarID, id).Context(ctx).Do()
			if err == nil && ev.Status != "cancelled" {
				return ev, nil
			}
			m.index.Remove(key, date)
		}
	}
	return m.FindEvent(ctx, key, date)
}

// FindEvent searches for the event tagged with the item's mirror key.
func (m *Mirror) FindEvent(ctx context.Context, key model.Key, date string) (*calendar.Event, error) {
	events, err := m.srv.Events.List(m.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", MirrorProperty, index.MirrorKey(key, date))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// Remove deletes the mirrored event of an item on date, if there is one.
func (m *Mirror) Remove(ctx context.Context, key model.Key, date string) error {
	ev, err := m.lookup(ctx, key, date)
	if err != nil || ev == nil {
		return err
	}
	if err := m.srv.Events.Delete(m.calendarID, ev.Id).Context(ctx).Do(); err != nil {
		return err
	}
	if m.index != nil {
		m.index.Remove(key, date)
		return m.index.Save()
	}
	return nil
}
