package tui

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "15:04"
)

// adminLocation resolves the administration's time zone, falling back
// to UTC when the name is empty or unknown.
func adminLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// combineWall interprets a date and an hour:minute string as wall-clock
// time in loc and returns the corresponding UTC instant.
func combineWall(date, hour string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	h, err := time.Parse(hourLayout, hour)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", hour, err)
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), h.Hour(), h.Minute(), 0, 0, loc)
	return t.UTC(), nil
}

// splitWall is the inverse of combineWall: it renders a UTC instant as
// date and hour:minute strings in loc.
func splitWall(t time.Time, loc *time.Location) (date, hour string) {
	local := t.In(loc)
	return local.Format(dateLayout), local.Format(hourLayout)
}

// weekBounds returns the Monday 00:00 and Sunday end-of-day of the week
// containing t, in loc.
func weekBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -(weekday - 1))
	end = start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%d:%02d", h, m)
}
