package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// buildExport renders a calendar export for consecutive years. Months
// alternate full and hollow; years listed in intercalary get Posideiṓn
// hústeros.
func buildExport(startJDN, firstYear, years int, intercalary map[int]bool) string {
	var b strings.Builder
	b.WriteString("jdn\tyear\tmonth\tmonth_name\tday\tdoy\tmonth_length\tyear_length\n")

	jdn := startJDN
	for y := firstYear; y < firstYear+years; y++ {
		var months []Month
		for m := Hekatombaion; m <= Skirophorion; m++ {
			if m == PosideionHusteros && !intercalary[y] {
				continue
			}
			months = append(months, m)
		}

		lengths := make([]int, len(months))
		yearLength := 0
		for i := range months {
			lengths[i] = 30 - i%2
			yearLength += lengths[i]
		}

		doy := 1
		for i, m := range months {
			for d := 1; d <= lengths[i]; d++ {
				fmt.Fprintf(&b, "%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\n",
					jdn, y, int(m), m.Name(), d, doy, lengths[i], yearLength)
				jdn++
				doy++
			}
		}
	}

	return b.String()
}

func newTestCalendar(t *testing.T, export string) *FileCalendar {
	t.Helper()
	fc := NewFileCalendar("", zap.NewNop())
	require.NoError(t, fc.Read(strings.NewReader(export)))
	return fc
}

func TestFileCalendar_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.tsv")
	require.NoError(t, os.WriteFile(path, []byte(buildExport(2460144, 2023, 2, map[int]bool{2023: true})), 0o644))

	fc := NewFileCalendar(path, zap.NewNop())
	require.NoError(t, fc.Load())

	year, err := fc.Year(2023)
	require.NoError(t, err)
	assert.Len(t, year, 384)
	assert.True(t, year[0].IsIntercalary())

	next, err := fc.Year(2024)
	require.NoError(t, err)
	assert.Len(t, next, 354)
	assert.False(t, next[0].IsIntercalary())
}

func TestFileCalendar_LoadMissingFile(t *testing.T) {
	fc := NewFileCalendar(filepath.Join(t.TempDir(), "nope.tsv"), zap.NewNop())
	assert.Error(t, fc.Load())
}

func TestFileCalendar_DaysAfter(t *testing.T) {
	fc := newTestCalendar(t, buildExport(1000, 2023, 2, nil))

	days, err := fc.DaysAfter(1000, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 1001, days[0].JDN)
	assert.Equal(t, 2, days[0].Day)

	// crosses into the next year
	days, err = fc.DaysAfter(1000+352, 3)
	require.NoError(t, err)
	assert.Equal(t, 2023, days[0].AstronomicalYear)
	assert.True(t, days[0].IsLastOfYear())
	assert.Equal(t, 2024, days[1].AstronomicalYear)
	assert.Equal(t, 1, days[1].DOY)

	// before the first row starts at the first row
	days, err = fc.DaysAfter(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1000, days[0].JDN)

	_, err = fc.DaysAfter(1000+700, 10)
	assert.Error(t, err)

	days, err = fc.DaysAfter(1000, 0)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestFileCalendar_Day(t *testing.T) {
	fc := newTestCalendar(t, buildExport(1000, 2023, 1, nil))

	day, err := fc.Day(1030)
	require.NoError(t, err)
	assert.Equal(t, Metageitnion, day.Month)
	assert.Equal(t, 1, day.Day)
	assert.Equal(t, 31, day.DOY)
	assert.True(t, day.IsHollow())

	_, err = fc.Day(5)
	assert.Error(t, err)
}

func TestFileCalendar_Read(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantDays int
	}{
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing column",
			input:   "jdn\tyear\tmonth\tday\n1\t2023\t1\t1\n",
			wantErr: true,
		},
		{
			name: "comments and blank lines",
			input: "# exported calendar\n" +
				"jdn\tyear\tmonth\tday\tdoy\tmonth_length\tyear_length\n" +
				"\n" +
				"# first day\n" +
				"100\t2023\t1\t1\t1\t30\t354\n",
			wantDays: 1,
		},
		{
			name: "floats from non-numeric quoting",
			input: "\"jdn\"\t\"year\"\t\"month\"\t\"day\"\t\"doy\"\t\"month_length\"\t\"year_length\"\n" +
				"100.0\t2023.0\t1.0\t1.0\t1.0\t30.0\t354.0\n",
			wantDays: 1,
		},
		{
			name: "invalid rows are skipped",
			input: "jdn\tyear\tmonth\tday\tdoy\tmonth_length\tyear_length\n" +
				"100\t2023\t1\t1\t1\t30\t354\n" +
				"101\t2023\t14\t2\t2\t30\t354\n" +
				"102\t2023\t1\t31\t3\t30\t354\n" +
				"103\t2023\t1\tx\t4\t30\t354\n" +
				"104\t2023\t1\t5\t5\t28\t354\n",
			wantDays: 1,
		},
		{
			name: "duplicate JDN",
			input: "jdn\tyear\tmonth\tday\tdoy\tmonth_length\tyear_length\n" +
				"100\t2023\t1\t1\t1\t30\t354\n" +
				"100\t2023\t1\t2\t2\t30\t354\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := NewFileCalendar("", zap.NewNop())
			err := fc.Read(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, fc.days, tt.wantDays)
		})
	}
}

func TestFileCalendar_MonthNameDefaults(t *testing.T) {
	fc := newTestCalendar(t, "jdn\tyear\tmonth\tday\tdoy\tmonth_length\tyear_length\n"+
		"100\t2023\t7\t1\t181\t30\t384\n")

	day, err := fc.Day(100)
	require.NoError(t, err)
	assert.Equal(t, "Posideiṓn hústeros", day.MonthName)
}
