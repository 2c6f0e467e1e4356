package timeconv

const (
	MinZoom = 0.5
	MaxZoom = 2.5
	// DefaultHourHeight is the unzoomed height of one hour in pixels.
	DefaultHourHeight = 60.0
)

// Zoom holds the zoom state of a timeline view.
type Zoom struct {
	BaseHourHeight float64
	Level          float64
}

// NewZoom returns a zoom state with the level clamped into range.
func NewZoom(baseHourHeight, level float64) Zoom {
	if baseHourHeight <= 0 {
		baseHourHeight = DefaultHourHeight
	}
	return Zoom{BaseHourHeight: baseHourHeight, Level: clampZoom(level)}
}

// HourHeight is the pixel height of one hour at the current level.
func (z Zoom) HourHeight() float64 {
	return z.BaseHourHeight * clampZoom(z.Level)
}

// Apply changes the level by delta and returns the new zoom together with
// the scroll offset that keeps the time at the viewport centre in place.
func (z Zoom) Apply(delta, scrollTop, viewportHeight float64) (Zoom, float64) {
	before := z.HourHeight()
	centre := (scrollTop + viewportHeight/2) * 60 / before

	next := Zoom{BaseHourHeight: z.BaseHourHeight, Level: clampZoom(z.Level + delta)}
	top := centre*next.HourHeight()/60 - viewportHeight/2
	if top < 0 {
		top = 0
	}
	return next, top
}

func clampZoom(level float64) float64 {
	if level < MinZoom {
		return MinZoom
	}
	if level > MaxZoom {
		return MaxZoom
	}
	return level
}
