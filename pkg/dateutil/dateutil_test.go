package dateutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	input := time.Date(2025, 1, 15, 14, 30, 45, 123456789, time.UTC)
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	result := StartOfDay(input)

	if !result.Equal(expected) {
		t.Errorf("StartOfDay(%v) = %v, want %v", input, result, expected)
	}
}

func TestToJDN(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  int
	}{
		{"J2000 epoch", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 2451545},
		{"Late evening same day", time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC), 2451545},
		{"Gregorian reform", time.Date(1582, 10, 15, 0, 0, 0, 0, time.UTC), 2299161},
		{"Summer 2023", time.Date(2023, 7, 18, 12, 0, 0, 0, time.UTC), 2460144},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToJDN(tt.input); got != tt.want {
				t.Errorf("ToJDN(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromJDN(t *testing.T) {
	tests := []struct {
		name string
		jdn  int
		want CivilDate
	}{
		{"J2000 epoch", 2451545, CivilDate{2000, time.January, 1}},
		{"First Gregorian day", 2299161, CivilDate{1582, time.October, 15}},
		{"Last Julian day", 2299160, CivilDate{1582, time.October, 4}},
		{"Julian period start", 0, CivilDate{-4712, time.January, 1}},
		{"Summer 2023", 2460144, CivilDate{2023, time.July, 18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromJDN(tt.jdn); got != tt.want {
				t.Errorf("FromJDN(%d) = %+v, want %+v", tt.jdn, got, tt.want)
			}
		})
	}
}

func TestJDNRoundTrip(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2000; i += 37 {
		date := start.AddDate(0, 0, i)
		civil := FromJDN(ToJDN(date))
		if civil.Year != date.Year() || civil.Month != date.Month() || civil.Day != date.Day() {
			t.Errorf("round trip of %s gave %s", date.Format("2006-01-02"), civil)
		}
	}
}

func TestCivilDateFormat(t *testing.T) {
	if got := (CivilDate{2024, time.July, 5}).String(); got != "2024-Jul-05" {
		t.Errorf("String() = %q", got)
	}
	if got := (CivilDate{-430, time.July, 21}).String(); got != "0431-Jul-21 BCE" {
		t.Errorf("String() BCE = %q", got)
	}
	if got := (CivilDate{2024, time.August, 3}).MonthDay(); got != "Aug 03" {
		t.Errorf("MonthDay() = %q", got)
	}
}

func TestParsePostDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2023-Jul-18", time.Date(2023, 7, 18, 0, 0, 0, 0, time.Local), false},
		{"2023-jul-18", time.Date(2023, 7, 18, 0, 0, 0, 0, time.Local), false},
		{" 2024-FEB-29 ", time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), false},
		{"2023-07-18", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePostDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePostDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParsePostDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPostDate(t *testing.T) {
	date := time.Date(2023, 7, 8, 15, 0, 0, 0, time.UTC)
	if got := FormatPostDate(date); got != "2023-Jul-08" {
		t.Errorf("FormatPostDate() = %q, want 2023-Jul-08", got)
	}
}

func TestFormatISO8601(t *testing.T) {
	date := time.Date(2025, 1, 15, 13, 0, 0, 0, time.FixedZone("MSK", 3*60*60))
	if got := FormatISO8601(date); got != "2025-01-15T10:00:00.000Z" {
		t.Errorf("FormatISO8601() = %q", got)
	}
}
