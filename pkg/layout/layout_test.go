package layout

import (
	"testing"

	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

func task(id, tm, due string) model.ScheduledItem {
	return model.ScheduledItem{ID: id, Kind: model.KindTask, Time: tm, Task: &model.TaskSchedule{DueDate: due}}
}

func TestComputePositions(t *testing.T) {
	items := []model.ScheduledItem{
		task("a", "09:00-10:00", "2024-05-01"),
		task("b", "09:30-10:30", "2024-05-01"),
		task("c", "12:00-12:05", "2024-05-01"),
		task("other-day", "09:00-10:00", "2024-05-02"),
		task("no-time", "", "2024-05-01"),
	}
	l := Compute(items, "2024-05-01", 60)
	if len(l) != 3 {
		t.Fatalf("len = %d", len(l))
	}

	a := l[key("a")]
	if a.Top != 540 || a.Height != 60 || a.LeftPercent != 0 || a.WidthPercent != 50 || a.Time != "09:00-10:00" {
		t.Errorf("a = %+v", a)
	}
	b := l[key("b")]
	if b.LeftPercent != 50 || b.WidthPercent != 50 || b.Column != 1 {
		t.Errorf("b = %+v", b)
	}
	c := l[key("c")]
	if c.Height != MinHeight(60) || c.WidthPercent != 100 {
		t.Errorf("short item not floored: %+v", c)
	}
}

func TestComputeScalesWithHourHeight(t *testing.T) {
	items := []model.ScheduledItem{task("a", "09:00-10:00", "2024-05-01")}
	l := Compute(items, "2024-05-01", 120)
	if p := l[key("a")]; p.Top != 1080 || p.Height != 120 {
		t.Errorf("position = %+v", p)
	}
}

func TestPlaceDefaultsTotalColumns(t *testing.T) {
	p := Place(timeconv.Range{Start: 60, End: 120}, Slot{}, 60)
	if p.TotalColumns != 1 || p.WidthPercent != 100 {
		t.Errorf("p = %+v", p)
	}
}
