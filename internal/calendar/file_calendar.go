package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/username/hemerologion-bot/pkg/tsv"
	"go.uber.org/zap"
)

// Required columns of a calendar export. month_name is optional and is
// derived from the month number when missing.
var requiredColumns = []string{"jdn", "year", "month", "day", "doy", "month_length", "year_length"}

// FileCalendar implements Calendar using a TSV export of the festival calendar
//
// Format (tab separated, with a header row, '#' starts a comment):
//
//	jdn	year	month	month_name	day	doy	month_length	year_length
//	2460144	2023	1	Hekatombaiṓn	1	1	29	384
type FileCalendar struct {
	filePath string
	logger   *zap.Logger
	days     []Day       // sorted by JDN
	index    map[int]int // JDN -> position in days
}

// NewFileCalendar creates a new FileCalendar instance
func NewFileCalendar(filePath string, logger *zap.Logger) *FileCalendar {
	return &FileCalendar{
		filePath: filePath,
		logger:   logger,
		index:    make(map[int]int),
	}
}

// Load loads calendar data from file
func (fc *FileCalendar) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	if err := fc.Read(file); err != nil {
		return err
	}

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("days", len(fc.days)))

	return nil
}

// Read parses calendar rows from r, replacing anything loaded before
func (fc *FileCalendar) Read(r io.Reader) error {
	reader := tsv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("calendar file is empty")
		}
		return fmt.Errorf("failed to read calendar header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("calendar file is missing column %q", name)
		}
	}

	days := []Day{}
	seen := make(map[int]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading calendar file: %w", err)
		}

		day, err := parseDay(record, columns)
		if err != nil {
			fc.logger.Warn("Invalid calendar row",
				zap.Strings("row", record),
				zap.Error(err))
			continue
		}

		if seen[day.JDN] {
			return fmt.Errorf("duplicate calendar day for JDN %d", day.JDN)
		}
		seen[day.JDN] = true

		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].JDN < days[j].JDN
	})

	fc.days = days
	fc.index = make(map[int]int, len(days))
	for i, day := range days {
		fc.index[day.JDN] = i
	}

	return nil
}

// Year returns every day of the archon year beginning in astronomicalYear
func (fc *FileCalendar) Year(astronomicalYear int) ([]Day, error) {
	var days []Day
	for _, day := range fc.days {
		if day.AstronomicalYear == astronomicalYear {
			days = append(days, day)
		}
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("year not found in calendar: %s", ArchonYear(astronomicalYear))
	}

	return days, nil
}

// DaysAfter returns the next count days strictly after jdn
func (fc *FileCalendar) DaysAfter(jdn int, count int) ([]Day, error) {
	if count <= 0 {
		return []Day{}, nil
	}

	start := sort.Search(len(fc.days), func(i int) bool {
		return fc.days[i].JDN > jdn
	})

	if start+count > len(fc.days) {
		return nil, fmt.Errorf("calendar covers only %d of %d requested days after JDN %d",
			len(fc.days)-start, count, jdn)
	}

	days := make([]Day, count)
	copy(days, fc.days[start:start+count])

	return days, nil
}

// Day returns the day with the given Julian Day Number
func (fc *FileCalendar) Day(jdn int) (*Day, error) {
	i, ok := fc.index[jdn]
	if !ok {
		return nil, fmt.Errorf("day not found in calendar: JDN %d", jdn)
	}

	day := fc.days[i]
	return &day, nil
}

func parseDay(record []string, columns map[string]int) (Day, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ints := make(map[string]int, len(requiredColumns))
	for _, name := range requiredColumns {
		value, err := tsv.ParseNumber(field(name))
		if err != nil {
			return Day{}, fmt.Errorf("column %s: %w", name, err)
		}
		ints[name] = value
	}

	day := Day{
		JDN:              ints["jdn"],
		AstronomicalYear: ints["year"],
		Month:            Month(ints["month"]),
		MonthName:        field("month_name"),
		Day:              ints["day"],
		DOY:              ints["doy"],
		MonthLength:      ints["month_length"],
		YearLength:       ints["year_length"],
	}

	if !day.Month.Valid() {
		return Day{}, fmt.Errorf("unknown month %d", int(day.Month))
	}
	if day.MonthLength != 29 && day.MonthLength != 30 {
		return Day{}, fmt.Errorf("month length must be 29 or 30, got %d", day.MonthLength)
	}
	if day.Day < 1 || day.Day > day.MonthLength {
		return Day{}, fmt.Errorf("day %d outside month of %d days", day.Day, day.MonthLength)
	}
	if day.DOY < 1 || day.DOY > day.YearLength {
		return Day{}, fmt.Errorf("day of year %d outside year of %d days", day.DOY, day.YearLength)
	}
	if day.MonthName == "" {
		day.MonthName = day.Month.Name()
	}

	return day, nil
}
