/*
Package calendar provides the day/week arithmetic underneath the weekly
report engine.

PURPOSE:
  Everything here is a pure function of its inputs: week enumeration,
  Monday anchoring, weekend detection, and public-holiday lookup for a
  single configured region. No state beyond the holiday set a Calendar
  is constructed with.

KEY CONCEPTS:
  - Week identity: a week is identified by its Monday-anchored start date
    (the "week key"). All dates are normalized to UTC midnight.
  - Working day: not a weekend and not a public holiday. Only holidays
    whose Type is "public" count; regional/provincial observances are
    carried in the data but never reduce capacity.
  - Region: a Calendar is built from a holiday set for one region. Making
    the region configurable is a construction concern, not behavior.

USAGE:
  cal := calendar.New("NZ", holidays)
  for ws := range calendar.WeekStarts(from, to) {
      for _, d := range calendar.DaysOfWeek(ws) {
          if cal.IsWorkingDay(d) { ... }
      }
  }

SEE ALSO:
  - report/engine.go: The sole consumer of working-day capacity
*/
package calendar

import (
	"iter"
	"time"
)

// HolidayTypePublic is the only holiday type that reduces working-day
// capacity. Other types (regional anniversaries, observances) are data
// the calendar carries but does not act on.
const HolidayTypePublic = "public"

// Holiday is a single dated holiday for the calendar's region.
type Holiday struct {
	Date time.Time
	Name string
	Type string
}

// Calendar answers holiday questions for one region.
type Calendar struct {
	region   string
	holidays map[string]Holiday
}

// New builds a calendar for the given region from its holiday set.
// Later duplicates of the same date win, matching a load-and-overwrite
// refresh of the holiday table.
func New(region string, holidays []Holiday) *Calendar {
	c := &Calendar{
		region:   region,
		holidays: make(map[string]Holiday, len(holidays)),
	}
	for _, h := range holidays {
		c.holidays[DateKey(h.Date)] = Holiday{
			Date: Day(h.Date.Year(), h.Date.Month(), h.Date.Day()),
			Name: h.Name,
			Type: h.Type,
		}
	}
	return c
}

// Region returns the region the calendar was configured for.
func (c *Calendar) Region() string { return c.region }

// PublicHoliday returns the holiday record for date if date is a public
// holiday in the calendar's region. Non-public holiday types do not match.
func (c *Calendar) PublicHoliday(date time.Time) (Holiday, bool) {
	h, ok := c.holidays[DateKey(date)]
	if !ok || h.Type != HolidayTypePublic {
		return Holiday{}, false
	}
	return h, true
}

// IsWorkingDay reports whether date is neither a weekend nor a public
// holiday.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	if IsWeekend(date) {
		return false
	}
	_, holiday := c.PublicHoliday(date)
	return !holiday
}

// =============================================================================
// DAY / WEEK ARITHMETIC (region independent)
// =============================================================================

// Day constructs a date normalized to UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date as its canonical yyyy-mm-dd key.
func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// IsWeekend reports whether date falls on a Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekStart returns the Monday that anchors the week containing date.
func WeekStart(date time.Time) time.Time {
	d := Day(date.Year(), date.Month(), date.Day())
	// time.Weekday has Sunday == 0; shift so Monday == 0.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday closing the week that starts at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

// WeekStarts yields the distinct Monday-anchored start dates of every
// week intersecting [from, to], in ascending order. An inverted range
// yields nothing. The sequence is finite and restartable.
func WeekStarts(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		end := Day(to.Year(), to.Month(), to.Day())
		for ws := WeekStart(from); !ws.After(end); ws = ws.AddDate(0, 0, 7) {
			if !yield(ws) {
				return
			}
		}
	}
}

// DaysOfWeek returns the 7 calendar days from weekStart through
// weekStart+6.
func DaysOfWeek(weekStart time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}
