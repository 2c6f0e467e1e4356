// Package drag tracks the live state of one move or resize gesture on the
// day timeline.
package drag

import (
	"math"

	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/layout"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// Mode is the kind of gesture in progress.
type Mode int

const (
	Move Mode = iota
	ResizeStart
	ResizeEnd
)

func (m Mode) String() string {
	switch m {
	case Move:
		return "move"
	case ResizeStart:
		return "resize-start"
	case ResizeEnd:
		return "resize-end"
	}
	return "unknown"
}

// Edge selects which end of an item a resize gesture holds.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Session is the state of the gesture in progress. Pixel values are in the
// coordinate space of HourHeight.
type Session struct {
	Key      model.Key
	Date     string
	Mode     Mode
	Original timeconv.Range

	// PointerOffset is the distance from the grabbed edge to the pointer at
	// gesture start, so moves track the pointer without jumping.
	PointerOffset float64
	LiveTop       float64
	LiveHeight    float64
	// LiveOverlap holds the approximate slots of the dragged item and the
	// items it currently collides with.
	LiveOverlap map[model.Key]layout.Slot

	HourHeight float64

	startPointer float64
	pointer      float64
}

// Begin starts a move gesture for an item currently at original.
func Begin(key model.Key, date string, original timeconv.Range, pointerY, hourHeight float64) *Session {
	s := newSession(key, date, original, Move, hourHeight)
	s.PointerOffset = pointerY - s.LiveTop
	s.startPointer, s.pointer = pointerY, pointerY
	return s
}

// BeginResize starts a resize gesture holding the opposite edge fixed.
func BeginResize(key model.Key, date string, original timeconv.Range, edge Edge, pointerY, hourHeight float64) *Session {
	mode := ResizeEnd
	if edge == EdgeStart {
		mode = ResizeStart
	}
	s := newSession(key, date, original, mode, hourHeight)
	if mode == ResizeStart {
		s.PointerOffset = pointerY - s.LiveTop
	} else {
		s.PointerOffset = pointerY - s.bottom()
	}
	s.startPointer, s.pointer = pointerY, pointerY
	return s
}

func newSession(key model.Key, date string, original timeconv.Range, mode Mode, hourHeight float64) *Session {
	return &Session{
		Key:        key,
		Date:       date,
		Mode:       mode,
		Original:   original,
		LiveTop:    timeconv.MinutesToPixels(original.Start, hourHeight),
		LiveHeight: timeconv.MinutesToPixels(original.Duration(), hourHeight),
		HourHeight: hourHeight,
	}
}

func (s *Session) px(minutes int) float64 {
	return timeconv.MinutesToPixels(minutes, s.HourHeight)
}

func (s *Session) bottom() float64 {
	return s.LiveTop + s.LiveHeight
}

// maxStart is the latest start minute that keeps the item inside the day.
func (s *Session) maxStart() int {
	m := timeconv.LastStart - s.Original.Duration()
	if m < 0 {
		return 0
	}
	return m
}

// Update applies a pointer position.
func (s *Session) Update(pointerY float64) {
	s.pointer = pointerY
	slot := s.px(timeconv.SlotMinutes)
	switch s.Mode {
	case Move:
		s.LiveTop = clamp(pointerY-s.PointerOffset, 0, s.px(s.maxStart()))
	case ResizeStart:
		bottom := s.px(s.Original.End)
		top := clamp(pointerY-s.PointerOffset, 0, maxf(0, bottom-slot))
		s.LiveTop = top
		s.LiveHeight = bottom - top
	case ResizeEnd:
		top := s.px(s.Original.Start)
		edge := clamp(pointerY-s.PointerOffset, top+slot, maxf(s.px(timeconv.LastStart), top+slot))
		s.LiveTop = top
		s.LiveHeight = edge - top
	}
}

// LiveRange is the snapped time range the gesture would commit right now.
// Until the pointer leaves its starting position that is the original range,
// even when the original is off the slot grid.
func (s *Session) LiveRange() timeconv.Range {
	if !s.pointerMoved() {
		return s.Original
	}
	switch s.Mode {
	case ResizeStart:
		start := timeconv.PixelsToMinutes(s.LiveTop, s.HourHeight)
		start = clampInt(start, 0, maxInt(0, s.Original.End-timeconv.SlotMinutes))
		return timeconv.Range{Start: start, End: s.Original.End}
	case ResizeEnd:
		end := timeconv.PixelsToMinutes(s.bottom(), s.HourHeight)
		lo := s.Original.Start + timeconv.SlotMinutes
		end = clampInt(end, lo, maxInt(timeconv.LastStart, lo))
		return timeconv.Range{Start: s.Original.Start, End: end}
	default:
		start := clampInt(timeconv.PixelsToMinutes(s.LiveTop, s.HourHeight), 0, s.maxStart())
		return timeconv.Range{Start: start, End: start + s.Original.Duration()}
	}
}

// Moved reports whether releasing now would change the item's time.
func (s *Session) Moved() bool {
	return s.pointerMoved() && s.LiveRange() != s.Original
}

func (s *Session) pointerMoved() bool {
	return math.Abs(s.pointer-s.startPointer) > 1e-9
}

// RefreshOverlap recomputes the slots of the dragged item and the items its
// live range collides with. Items outside that set keep their cached slots.
func (s *Session) RefreshOverlap(others []interval.Interval) {
	live := s.LiveRange()
	self := interval.Interval{Key: s.Key, Start: live.Start, End: live.End}
	set := []interval.Interval{self}
	for _, iv := range others {
		if iv.Key == s.Key {
			continue
		}
		if interval.Collides(self, iv) {
			set = append(set, iv)
		}
	}
	s.LiveOverlap = layout.Resolve(set)
}

// Position is where the dragged item renders mid-gesture.
func (s *Session) Position() layout.Position {
	slot, ok := s.LiveOverlap[s.Key]
	if !ok {
		slot = layout.Slot{TotalColumns: 1}
	}
	pos := layout.Place(s.LiveRange(), slot, s.HourHeight)
	pos.Top = s.LiveTop
	pos.Height = maxf(s.LiveHeight, layout.MinHeight(s.HourHeight))
	return pos
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
