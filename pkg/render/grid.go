package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/dayline/pkg/colors"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

const labelWidth = 6

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cellStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
)

// GridOptions controls the text grid.
type GridOptions struct {
	// Width is the number of characters available for items, excluding the
	// hour labels.
	Width      int
	HourHeight float64
	// Color returns the hex colour of an item. Defaults to the no-project colour.
	Color func(model.ScheduledItem) string
	// Selected is highlighted with a border-like marker.
	Selected model.Key
}

type cell struct {
	row   int
	first bool
}

// Grid draws rows as coloured blocks on a text timeline with one line per
// 15-minute slot, from the first to the last occupied hour.
func Grid(rows []Row, opts GridOptions) string {
	if len(rows) == 0 {
		return labelStyle.Render("nothing scheduled")
	}
	if opts.Width < 10 {
		opts.Width = 10
	}
	if opts.HourHeight <= 0 {
		opts.HourHeight = timeconv.DefaultHourHeight
	}
	slotPx := opts.HourHeight * timeconv.SlotMinutes / 60

	type span struct{ top, bottom, left, right int }
	spans := make([]span, len(rows))
	first, last := math.MaxInt, 0
	for i, r := range rows {
		p := r.Position
		top := int(math.Round(p.Top / slotPx))
		n := int(math.Round(p.Height / slotPx))
		if n < 1 {
			n = 1
		}
		left := int(math.Round(p.LeftPercent / 100 * float64(opts.Width)))
		right := int(math.Round((p.LeftPercent + p.WidthPercent) / 100 * float64(opts.Width)))
		if right-left > 2 {
			right--
		}
		spans[i] = span{top: top, bottom: top + n, left: left, right: right}
		first = min(first, top)
		last = max(last, top+n)
	}
	perHour := 60 / timeconv.SlotMinutes
	first = first / perHour * perHour
	last = (last + perHour - 1) / perHour * perHour

	grid := make([][]cell, last-first)
	for i := range grid {
		grid[i] = make([]cell, opts.Width)
		for j := range grid[i] {
			grid[i][j].row = -1
		}
	}
	for i, s := range spans {
		for y := s.top; y < s.bottom; y++ {
			for x := s.left; x < s.right && x < opts.Width; x++ {
				grid[y-first][x] = cell{row: i, first: y == s.top}
			}
		}
	}

	var b strings.Builder
	for y, line := range grid {
		slot := first + y
		label := strings.Repeat(" ", labelWidth)
		if slot%perHour == 0 {
			label = timeconv.MinutesToTime(slot*timeconv.SlotMinutes) + " "
		}
		b.WriteString(labelStyle.Render(label))

		for x := 0; x < len(line); {
			run := x
			for run < len(line) && line[run] == line[x] {
				run++
			}
			c := line[x]
			if c.row < 0 {
				b.WriteString(strings.Repeat(" ", run-x))
			} else {
				text := strings.Repeat(" ", run-x)
				if c.first && x == spans[c.row].left {
					text = fit(rows[c.row].Item.Title, run-x)
				}
				b.WriteString(styleFor(rows[c.row], opts).Render(text))
			}
			x = run
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func styleFor(r Row, opts GridOptions) lipgloss.Style {
	hex := colors.Hex(colors.NoProject)
	if opts.Color != nil {
		hex = opts.Color(r.Item)
	}
	style := cellStyle.Background(lipgloss.Color(hex))
	if r.Completed {
		style = style.Faint(true).Strikethrough(true)
	}
	if r.Position.Stale {
		style = style.Italic(true)
	}
	if r.Item.Key() == opts.Selected {
		style = style.Bold(true).Underline(true)
	}
	return style
}

// fit truncates or pads s to exactly n runes.
func fit(s string, n int) string {
	rs := []rune(s)
	if len(rs) > n {
		if n > 1 {
			return string(rs[:n-1]) + "…"
		}
		return string(rs[:n])
	}
	return s + strings.Repeat(" ", n-len(rs))
}
