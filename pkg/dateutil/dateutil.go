package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// PostDateLayout is the date layout used by the post queue: 2023-Jul-18
const PostDateLayout = "2006-Jan-02"

// gregorianReform is the first JDN of the Gregorian calendar (1582-10-15)
const gregorianReform = 2299161

var monthAbbr = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// CivilDate is a calendar date that may lie outside time.Time's comfortable
// range. Year uses astronomical numbering (1 BCE = 0).
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats the date like 2023-Jul-18, or 0431-Jul-21 BCE
func (d CivilDate) String() string {
	if d.Year > 0 {
		return fmt.Sprintf("%04d-%s-%02d", d.Year, monthAbbr[d.Month-1], d.Day)
	}
	return fmt.Sprintf("%04d-%s-%02d BCE", 1-d.Year, monthAbbr[d.Month-1], d.Day)
}

// MonthDay formats the month and day only: Jul 18
func (d CivilDate) MonthDay() string {
	return fmt.Sprintf("%s %02d", monthAbbr[d.Month-1], d.Day)
}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}

// ToJDN returns the Julian Day Number of the civil date of t.
// Only the date part counts; the time of day is ignored.
func ToJDN(t time.Time) int {
	y, m, d := t.Date()
	a := (14 - int(m)) / 12
	yy := y + 4800 - a
	mm := int(m) + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

// FromJDN converts a Julian Day Number to a civil date. Days before the
// Gregorian reform are given in the proleptic Julian calendar.
func FromJDN(jdn int) CivilDate {
	a := jdn
	if jdn >= gregorianReform {
		alpha := (4*jdn - 7468865) / 146097
		a = jdn + 1 + alpha - alpha/4
	}
	b := a + 1524
	c := floorDiv(20*b-2442, 7305)
	d := floorDiv(1461*c, 4)
	e := floorDiv(10000*(b-d), 306001)

	day := b - d - floorDiv(306001*e, 10000)
	month := e - 1
	if e >= 14 {
		month = e - 13
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	return CivilDate{Year: year, Month: time.Month(month), Day: day}
}

// FormatPostDate formats a date the way the post queue stores it
func FormatPostDate(date time.Time) string {
	return date.Format(PostDateLayout)
}

// ParsePostDate parses a queue date like 2023-Jul-18. Month names are
// matched case-insensitively.
func ParsePostDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) == 3 && len(parts[1]) == 3 {
		parts[1] = strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
		s = strings.Join(parts, "-")
	}

	date, err := time.ParseInLocation(PostDateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid post date %q (want YYYY-Mon-DD): %w", s, err)
	}
	return date, nil
}

// FormatISO8601 formats a timestamp in UTC with millisecond precision and a Z suffix.
// Example: 2025-01-15T10:00:00.000Z
func FormatISO8601(date time.Time) string {
	return date.UTC().Format("2006-01-02T15:04:05.000Z")
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
