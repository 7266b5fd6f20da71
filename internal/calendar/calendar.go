package calendar

import (
	"fmt"
	"strings"

	"github.com/username/hemerologion-bot/pkg/dateutil"
	"golang.org/x/text/unicode/norm"
)

// Month identifies an Athenian month. Posideiṓn hústeros (the intercalary
// month) has its own number, so later months shift by one.
type Month int

const (
	Hekatombaion Month = iota + 1
	Metageitnion
	Boedromion
	Puanepsion
	Maimakterion
	Posideion
	PosideionHusteros
	Gamelion
	Anthesterion
	Elaphebolion
	Mounukhion
	Thargelion
	Skirophorion
)

var monthNames = map[Month]struct{ translit, greek string }{
	Hekatombaion:      {"Hekatombaiṓn", "Ἑκατομβαιών"},
	Metageitnion:      {"Metageitniṓn", "Μεταγειτνιών"},
	Boedromion:        {"Boēdromiṓn", "Βοηδρομιών"},
	Puanepsion:        {"Puanepsiṓn", "Πυανεψιών"},
	Maimakterion:      {"Maimaktēriṓn", "Μαιμακτηριών"},
	Posideion:         {"Posideiṓn", "Ποσιδεών"},
	PosideionHusteros: {"Posideiṓn hústeros", "Ποσιδεών ὕστερος"},
	Gamelion:          {"Gamēliṓn", "Γαμηλιών"},
	Anthesterion:      {"Anthestēriṓn", "Ἀνθεστηριών"},
	Elaphebolion:      {"Elaphēboliṓn", "Ἐλαφηβολιών"},
	Mounukhion:        {"Mounukhiṓn", "Μουνυχιών"},
	Thargelion:        {"Thargēliṓn", "Θαργηλιών"},
	Skirophorion:      {"Skirophoriṓn", "Σκιροφοριών"},
}

// IntercalaryThreshold separates ordinary years (354/355 days) from
// intercalary years (383/384 days)
const IntercalaryThreshold = 380

// Day is one day of the festival calendar, as exported by the
// calendrical library
type Day struct {
	JDN              int
	AstronomicalYear int
	Month            Month
	MonthName        string
	Day              int
	DOY              int
	MonthLength      int
	YearLength       int
}

// Calendar provides access to festival calendar days
type Calendar interface {
	// Year returns every day of the archon year beginning in astronomicalYear, in order
	Year(astronomicalYear int) ([]Day, error)

	// DaysAfter returns the next count days strictly after jdn
	DaysAfter(jdn int, count int) ([]Day, error)

	// Day returns the day with the given Julian Day Number
	Day(jdn int) (*Day, error)
}

// IsHollow reports whether the day's month has 29 days
func (d Day) IsHollow() bool {
	return d.MonthLength == 29
}

// IsIntercalary reports whether the day's year has a thirteenth month
func (d Day) IsIntercalary() bool {
	return d.YearLength >= IntercalaryThreshold
}

// IsLastOfYear reports whether this is the final day of its year
func (d Day) IsLastOfYear() bool {
	return d.DOY == d.YearLength
}

// Civil returns the civil (Julian/Gregorian) date of the day
func (d Day) Civil() dateutil.CivilDate {
	return dateutil.FromJDN(d.JDN)
}

// ArchonYear returns the label of the archon year that began in the given
// astronomical year, e.g. "2023/2024" or "432/431 BCE"
func (d Day) ArchonYear() string {
	return ArchonYear(d.AstronomicalYear)
}

// ArchonYear formats an archon year label. Archon years straddle two
// civil years, starting in summer.
func ArchonYear(astronomicalYear int) string {
	switch {
	case astronomicalYear > 0:
		return fmt.Sprintf("%d/%d", astronomicalYear, astronomicalYear+1)
	case astronomicalYear == 0:
		return "1 BCE/1 CE"
	default:
		return fmt.Sprintf("%d/%d BCE", 1-astronomicalYear, -astronomicalYear)
	}
}

// Name returns the transliterated month name
func (m Month) Name() string {
	if n, ok := monthNames[m]; ok {
		return n.translit
	}
	return fmt.Sprintf("Month %d", int(m))
}

// GreekName returns the polytonic Greek month name
func (m Month) GreekName() string {
	if n, ok := monthNames[m]; ok {
		return n.greek
	}
	return ""
}

// Valid reports whether m is a known month
func (m Month) Valid() bool {
	_, ok := monthNames[m]
	return ok
}

// Genitive converts a Greek month name to the genitive case
func Genitive(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, norm.NFC.String("ών"), "ῶνος")
	return strings.ReplaceAll(name, "ὕστερος", "ὑστέρου")
}

// ByMonths splits a year's days into consecutive months
func ByMonths(days []Day) [][]Day {
	var months [][]Day
	for i, day := range days {
		if i == 0 || day.Month != days[i-1].Month {
			months = append(months, []Day{})
		}
		months[len(months)-1] = append(months[len(months)-1], day)
	}
	return months
}
