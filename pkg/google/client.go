package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/dayline/pkg/auth"
	"github.com/harrisonrobin/dayline/pkg/colors"
	"github.com/harrisonrobin/dayline/pkg/index"
)

// NewClient authenticates and returns a Mirror writing to the calendar
// with the given name.
func NewClient(ctx context.Context, calendarName string, idx *index.EventIndex, palette *colors.Palette, items ItemLookup) (*Mirror, error) {
	srv, err := auth.GetCalendarService(ctx)
	if err != nil {
		return nil, err
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	return NewMirror(srv, calendarID, idx, palette, items), nil
}
