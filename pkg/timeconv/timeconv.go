// Package timeconv converts between "HH:MM" strings, minutes since midnight
// and pixel offsets on a vertical day timeline.
package timeconv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the snapping granularity.
	SlotMinutes = 15
	// MinutesPerDay is the length of the timeline.
	MinutesPerDay = 24 * 60
	// LastStart is the latest minute an item may occupy (23:55).
	LastStart = 23*60 + 55
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// TimeToMinutes parses "HH:MM" into minutes since midnight. Malformed or
// empty input yields 0. "24:00" is accepted as the end of the day.
func TimeToMinutes(s string) int {
	m, ok := ParseClock(s)
	if !ok {
		return 0
	}
	return m
}

// ParseClock parses "HH:MM", reporting whether the input was well formed.
func ParseClock(s string) (int, bool) {
	matches := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesToTime formats minutes since midnight as "HH:MM", clamped to the day.
func MinutesToTime(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > MinutesPerDay {
		minutes = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Snap rounds minutes to the nearest slot boundary.
func Snap(minutes int) int {
	return int(math.Round(float64(minutes)/SlotMinutes)) * SlotMinutes
}

// MinutesToPixels converts a minute offset to pixels for the given hour height.
func MinutesToPixels(minutes int, hourHeight float64) float64 {
	return float64(minutes) * hourHeight / 60
}

// PixelsToMinutes converts a pixel offset back to minutes, snapped to the
// nearest 15-minute boundary.
func PixelsToMinutes(pixels, hourHeight float64) int {
	if hourHeight <= 0 {
		return 0
	}
	return Snap(int(math.Round(pixels * 60 / hourHeight)))
}

// Range is a half-open [Start, End) interval in minutes since midnight.
type Range struct {
	Start int
	End   int
}

func (r Range) Duration() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return MinutesToTime(r.Start) + "-" + MinutesToTime(r.End)
}

// ParseRange parses "HH:MM-HH:MM". It fails on a missing separator, a
// malformed clock on either side, or an end that is not after the start.
func ParseRange(s string) (Range, bool) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, false
	}
	start, ok := ParseClock(startStr)
	if !ok {
		return Range{}, false
	}
	end, ok := ParseClock(endStr)
	if !ok {
		return Range{}, false
	}
	if end <= start {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}
