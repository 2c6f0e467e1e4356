// Package render prints a day's layout as a table or as a text grid.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/harrisonrobin/dayline/pkg/layout"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// Row joins an item with its position on the timeline.
type Row struct {
	Item      model.ScheduledItem
	Position  layout.Position
	Completed bool
}

// Rows pairs items with their positions, dropping items that have none, and
// orders them top to bottom then left to right.
func Rows(items []model.ScheduledItem, l layout.Layout, completed func(model.ScheduledItem) bool) []Row {
	rows := make([]Row, 0, len(l))
	for _, it := range items {
		pos, ok := l[it.Key()]
		if !ok {
			continue
		}
		row := Row{Item: it, Position: pos}
		if completed != nil {
			row.Completed = completed(it)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Position, rows[j].Position
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return rows[i].Item.Key().String() < rows[j].Item.Key().String()
	})
	return rows
}

// Table writes one line per row with its time, column and geometry.
func Table(w io.Writer, date string, rows []Row) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	stale := color.New(color.FgYellow)

	_, _ = fmt.Fprintln(w, bold.Sprint(date))
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("  nothing scheduled"))
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("TIME"), bold.Sprint("KEY"), bold.Sprint("TITLE"), bold.Sprint("COL"), bold.Sprint("TOP"), bold.Sprint("HEIGHT"), bold.Sprint("LEFT"), bold.Sprint("WIDTH"), "")
	for _, r := range rows {
		p := r.Position
		title := r.Item.Title
		if r.Completed {
			title = faint.Sprint("✓ " + title)
		}
		var flag string
		if p.Stale {
			flag = stale.Sprint("unsaved")
		}
		tbl.AddRow(
			p.Time,
			r.Item.Key().String(),
			title,
			fmt.Sprintf("%d/%d", p.Column+1, p.TotalColumns),
			fmt.Sprintf("%.0f", p.Top),
			fmt.Sprintf("%.0f", p.Height),
			fmt.Sprintf("%.1f%%", p.LeftPercent),
			fmt.Sprintf("%.1f%%", p.WidthPercent),
			flag,
		)
	}
	_, _ = fmt.Fprintln(w, tbl)
}
