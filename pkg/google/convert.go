package google

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/dayline/pkg/index"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// MirrorProperty is the private extended property that tags mirrored events.
const MirrorProperty = "dayline_key"

// ToEvent builds the calendar event mirroring item on date at timeRange.
func ToEvent(item model.ScheduledItem, date, timeRange, colorID string, loc *time.Location) (*calendar.Event, error) {
	r, ok := timeconv.ParseRange(timeRange)
	if !ok {
		return nil, fmt.Errorf("invalid time range %q for %s", timeRange, item.Key())
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(model.DateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q for %s: %w", date, item.Key(), err)
	}
	start := day.Add(time.Duration(r.Start) * time.Minute)
	end := day.Add(time.Duration(r.End) * time.Minute)

	var desc strings.Builder
	desc.WriteString(fmt.Sprintf("Kind: %s\n", item.Kind))
	if item.Project != "" {
		desc.WriteString(fmt.Sprintf("Project: %s\n", item.Project))
	}
	if item.Recurring() {
		desc.WriteString(fmt.Sprintf("Occurrence: %s\n", date))
	}
	desc.WriteString(fmt.Sprintf("Key: %s\n", item.Key()))

	summary := item.Title
	if summary == "" {
		summary = item.ID
	}
	return &calendar.Event{
		Summary:     summary,
		ColorId:     colorID,
		Description: desc.String(),
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				MirrorProperty: index.MirrorKey(item.Key(), date),
			},
		},
	}, nil
}

// NeedsUpdate returns a patch when the existing event differs from target
// in summary, description, colour or time, and nil when they match.
func NeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	same, err := sameInstant(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameInstant(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !same || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameInstant(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil || a.DateTime == "" || b.DateTime == "" {
		return false, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}
