// Package interval resolves an item's effective time on a date into a
// half-open minute interval.
package interval

import (
	"sort"

	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// Interval is the effective [Start, End) of one item on one date.
type Interval struct {
	Key   model.Key
	Start int
	End   int
}

func (iv Interval) Range() timeconv.Range {
	return timeconv.Range{Start: iv.Start, End: iv.End}
}

// EffectiveTime returns the time range used for date: the exception
// override when present, otherwise the base time.
func EffectiveTime(item model.ScheduledItem, date string) (string, bool) {
	if ex, ok := item.Exceptions[date]; ok && ex.Time != "" {
		return ex.Time, true
	}
	if item.Time != "" {
		return item.Time, true
	}
	return "", false
}

// ToInterval parses the effective time. Items without a duration or with an
// end not after the start are left off the timeline.
func ToInterval(item model.ScheduledItem, date string) (Interval, bool) {
	s, ok := EffectiveTime(item, date)
	if !ok {
		return Interval{}, false
	}
	r, ok := timeconv.ParseRange(s)
	if !ok {
		return Interval{}, false
	}
	return Interval{Key: item.Key(), Start: r.Start, End: r.End}, true
}

// Collides reports whether two intervals share a minute or start together.
func Collides(a, b Interval) bool {
	return (a.Start < b.End && a.End > b.Start) || a.Start == b.Start
}

// Build returns the intervals of all items with a valid range on date,
// ordered by (start, key).
func Build(items []model.ScheduledItem, date string) []Interval {
	out := make([]Interval, 0, len(items))
	for _, it := range items {
		if iv, ok := ToInterval(it, date); ok {
			out = append(out, iv)
		}
	}
	Sort(out)
	return out
}

// Sort orders intervals by start minute, then by key.
func Sort(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].Key.String() < ivs[j].Key.String()
	})
}
