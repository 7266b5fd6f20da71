package hemerologion

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/username/hemerologion-bot/internal/calendar"
	"github.com/username/hemerologion-bot/pkg/tsv"
)

//go:embed data/day_names.tsv
var defaultDayNames string

//go:embed data/festivals.tsv
var defaultFestivals string

// DayNames maps a day count (1-30) to its Greek name
type DayNames map[int]string

// FestivalKey identifies a festival by month and day
type FestivalKey struct {
	Month calendar.Month
	Day   int
}

// Festival is a festival table entry. Description may be empty.
type Festival struct {
	Name        string
	Description string
}

// Festivals is the festival table. A day may carry several festivals,
// kept in table order.
type Festivals map[FestivalKey][]Festival

// DefaultDayNames returns the built-in table of Greek day names
func DefaultDayNames() DayNames {
	names, err := ReadDayNames(strings.NewReader(defaultDayNames))
	if err != nil {
		panic(fmt.Sprintf("embedded day names are invalid: %v", err))
	}
	return names
}

// DefaultFestivals returns the built-in festival table
func DefaultFestivals() Festivals {
	fests, err := ReadFestivals(strings.NewReader(defaultFestivals))
	if err != nil {
		panic(fmt.Sprintf("embedded festivals are invalid: %v", err))
	}
	return fests
}

// LoadDayNames loads day names from a TSV file, or returns the built-in
// table if path is empty
func LoadDayNames(path string) (DayNames, error) {
	if path == "" {
		return DefaultDayNames(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open day names file: %w", err)
	}
	defer f.Close()

	return ReadDayNames(f)
}

// LoadFestivals loads festivals from a TSV file, or returns the built-in
// table if path is empty
func LoadFestivals(path string) (Festivals, error) {
	if path == "" {
		return DefaultFestivals(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open festivals file: %w", err)
	}
	defer f.Close()

	return ReadFestivals(f)
}

// ReadDayNames parses rows of: day<TAB>"name"
func ReadDayNames(r io.Reader) (DayNames, error) {
	reader := tsv.NewReader(r)
	names := make(DayNames)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read day names: %w", err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("day names row has %d fields, want 2", len(record))
		}

		day, err := tsv.ParseNumber(record[0])
		if err != nil {
			return nil, fmt.Errorf("day names row: %w", err)
		}
		if day < 1 || day > 30 {
			return nil, fmt.Errorf("day names row: day %d out of range", day)
		}
		names[day] = strings.TrimSpace(record[1])
	}

	for day := 1; day <= 30; day++ {
		if names[day] == "" {
			return nil, fmt.Errorf("day names table has no name for day %d", day)
		}
	}

	return names, nil
}

// ReadFestivals parses rows of: month<TAB>day<TAB>"name"<TAB>"description"
func ReadFestivals(r io.Reader) (Festivals, error) {
	reader := tsv.NewReader(r)
	fests := make(Festivals)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read festivals: %w", err)
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("festival row has %d fields, want at least 3", len(record))
		}

		month, err := tsv.ParseNumber(record[0])
		if err != nil {
			return nil, fmt.Errorf("festival row month: %w", err)
		}
		if !calendar.Month(month).Valid() {
			return nil, fmt.Errorf("festival row: unknown month %d", month)
		}
		day, err := tsv.ParseNumber(record[1])
		if err != nil {
			return nil, fmt.Errorf("festival row day: %w", err)
		}

		fest := Festival{Name: strings.TrimSpace(record[2])}
		if len(record) > 3 {
			fest.Description = strings.TrimSpace(record[3])
		}

		if day < 1 || day > 30 {
			return nil, fmt.Errorf("festival row: day %d out of range", day)
		}

		key := FestivalKey{Month: calendar.Month(month), Day: day}
		fests[key] = append(fests[key], fest)
	}

	return fests, nil
}

// Lookup returns the festivals on the given day. The 29th of a hollow
// month is ἕνη καὶ νέα, so it takes the festivals of the 30th.
func (f Festivals) Lookup(day calendar.Day) []Festival {
	d := day.Day
	if day.IsHollow() && d == 29 {
		d = 30
	}
	return f[FestivalKey{Month: day.Month, Day: d}]
}
