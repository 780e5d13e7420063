// Package calendar provides weekend and holiday aware business-day
// arithmetic for settlement scheduling.
package calendar

import (
	"fmt"
	"time"
)

// dateFormat is the civil date layout used for holiday lookups.
const dateFormat = "2006-01-02"

// maxStepsPerDay caps calendar iteration per requested business day. A
// calendar where every day is a holiday would otherwise loop forever.
const maxStepsPerDay = 366

// CalendarError reports a pathological calendar that exhausted the iteration
// cap before finding a business day.
type CalendarError struct {
	From  time.Time
	Steps int
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("no business day found within %d days of %s",
		e.Steps, e.From.Format(dateFormat))
}

// BusinessCalendar answers business-day questions against an immutable
// holiday snapshot. A business day is a day that is neither a weekend day nor
// present in the holiday set. An empty holiday set is valid.
type BusinessCalendar struct {
	holidays map[string]struct{}
}

// New builds a calendar from holiday dates in YYYY-MM-DD form. Unparseable
// entries are ignored; holiday data is externally maintained and a stray row
// must not poison the whole calendar.
func New(holidayDates []string) *BusinessCalendar {
	set := make(map[string]struct{}, len(holidayDates))
	for _, d := range holidayDates {
		if _, err := time.Parse(dateFormat, d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return &BusinessCalendar{holidays: set}
}

// IsBusinessDay reports whether d is a business day.
func (c *BusinessCalendar) IsBusinessDay(d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := c.holidays[d.Format(dateFormat)]
	return !holiday
}

// NextBusinessDay returns the smallest business day strictly after d. It
// always advances at least one calendar day, even when d itself is a
// business day.
func (c *BusinessCalendar) NextBusinessDay(d time.Time) (time.Time, error) {
	x := d
	for i := 0; i < maxStepsPerDay; i++ {
		x = x.AddDate(0, 0, 1)
		if c.IsBusinessDay(x) {
			return x, nil
		}
	}
	return time.Time{}, &CalendarError{From: d, Steps: maxStepsPerDay}
}

// AddBusinessDays advances from d one calendar day at a time, counting a step
// only when the resulting day is a business day, until n business-day steps
// have been counted.
func (c *BusinessCalendar) AddBusinessDays(d time.Time, n int) (time.Time, error) {
	x := d
	counted := 0
	for i := 0; counted < n; i++ {
		if i >= n*maxStepsPerDay {
			return time.Time{}, &CalendarError{From: d, Steps: i}
		}
		x = x.AddDate(0, 0, 1)
		if c.IsBusinessDay(x) {
			counted++
		}
	}
	return x, nil
}
