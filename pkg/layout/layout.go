package layout

import (
	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// Position is where an item renders on the day timeline.
type Position struct {
	Top          float64 `json:"top"`
	Height       float64 `json:"height"`
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
	Column       int     `json:"column"`
	TotalColumns int     `json:"total_columns"`
	// Time is the effective "HH:MM-HH:MM" the position was computed from.
	Time string `json:"time"`
	// Stale marks an item whose last committed change has not been persisted.
	Stale bool `json:"stale,omitempty"`
}

// Layout maps every positioned item to its position.
type Layout map[model.Key]Position

// MinHeight is the rendering floor for very short items: one slot.
func MinHeight(hourHeight float64) float64 {
	return hourHeight * timeconv.SlotMinutes / 60
}

// Compute lays out all items active on date that have a valid time range.
func Compute(items []model.ScheduledItem, date string, hourHeight float64) Layout {
	active := make([]model.ScheduledItem, 0, len(items))
	for _, it := range items {
		if it.IsActiveOn(date) {
			active = append(active, it)
		}
	}
	ivs := interval.Build(active, date)
	return FromSlots(ivs, Resolve(ivs), hourHeight)
}

// FromSlots converts column assignments into positions.
func FromSlots(ivs []interval.Interval, slots map[model.Key]Slot, hourHeight float64) Layout {
	out := make(Layout, len(ivs))
	for _, iv := range ivs {
		slot, ok := slots[iv.Key]
		if !ok {
			slot = Slot{Column: 0, TotalColumns: 1}
		}
		out[iv.Key] = Place(iv.Range(), slot, hourHeight)
	}
	return out
}

// Place computes the position of a single range in the given slot.
func Place(r timeconv.Range, slot Slot, hourHeight float64) Position {
	if slot.TotalColumns < 1 {
		slot.TotalColumns = 1
	}
	width := 100 / float64(slot.TotalColumns)
	height := timeconv.MinutesToPixels(r.Duration(), hourHeight)
	if floor := MinHeight(hourHeight); height < floor {
		height = floor
	}
	return Position{
		Top:          timeconv.MinutesToPixels(r.Start, hourHeight),
		Height:       height,
		LeftPercent:  float64(slot.Column) * width,
		WidthPercent: width,
		Column:       slot.Column,
		TotalColumns: slot.TotalColumns,
		Time:         r.String(),
	}
}
