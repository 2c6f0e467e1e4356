package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/dayline/pkg/model"
)

// DateOptions selects the day a command works on.
type DateOptions struct {
	Date string
}

func (o *DateOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Date, "date", "d", "today", "day to work on: YYYY-MM-DD, today, yesterday or tomorrow")
}

// Resolve returns the selected day as YYYY-MM-DD.
func (o *DateOptions) Resolve(now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(o.Date)) {
	case "", "today":
		return now.Format(model.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(model.DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(model.DateLayout), nil
	}
	if _, err := model.ParseDate(o.Date); err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", o.Date)
	}
	return o.Date, nil
}

// OutputOptions selects how a layout is printed.
type OutputOptions struct {
	Grid  bool
	JSON  bool
	Width int
}

func (o *OutputOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.Grid, "grid", false, "draw a text timeline instead of a table")
	cmd.Flags().BoolVar(&o.JSON, "json", false, "print positions as JSON")
	cmd.Flags().IntVar(&o.Width, "width", 60, "grid width in characters")
}
