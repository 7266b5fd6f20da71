package hemerologion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/hemerologion-bot/internal/calendar"
)

func TestDefaultTables(t *testing.T) {
	names := DefaultDayNames()
	assert.Len(t, names, 30)
	assert.Equal(t, nfc("νουμηνίᾳ"), nfc(names[1]))
	assert.Equal(t, nfc("ἕνῃ καὶ νέᾳ"), nfc(names[30]))

	fests := DefaultFestivals()
	found := fests.Lookup(calendar.Day{Month: calendar.Anthesterion, Day: 12, MonthLength: 30})
	require.Len(t, found, 1)
	assert.True(t, strings.HasPrefix(found[0].Name, "Anthesteria: Choes"))
	assert.NotEmpty(t, found[0].Description)

	found = fests.Lookup(calendar.Day{Month: calendar.Maimakterion, Day: 20, MonthLength: 30})
	require.Len(t, found, 1)
	assert.Empty(t, found[0].Description)

	assert.Empty(t, fests.Lookup(calendar.Day{Month: calendar.Gamelion, Day: 1, MonthLength: 30}))
}

func TestFestivalsLookup(t *testing.T) {
	fests := DefaultFestivals()

	tests := []struct {
		name        string
		month       calendar.Month
		day         int
		monthLength int
		want        []string
	}{
		{"single festival", calendar.Hekatombaion, 12, 30, []string{nfc("Kronia (Κρόνια)")}},
		{"two festivals on one day", calendar.Puanepsion, 6, 30,
			[]string{nfc("Proerosia (Προηρόσια)"), nfc("Oschophoria (Ὠσχοφόρια)")}},
		{"thirtieth of full month", calendar.Puanepsion, 30, 30, []string{nfc("Chalkeia (Χαλκεῖα)")}},
		{"29th of hollow month is the thirtieth", calendar.Puanepsion, 29, 29, []string{nfc("Chalkeia (Χαλκεῖα)")}},
		{"29th of full month", calendar.Puanepsion, 29, 30, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := calendar.Day{Month: tt.month, Day: tt.day, MonthLength: tt.monthLength}
			var names []string
			for _, f := range fests.Lookup(day) {
				names = append(names, nfc(f.Name))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestReadDayNames_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"incomplete table", "1\t\"νουμηνίᾳ\"\n"},
		{"out of range", "31\t\"Extra\"\n"},
		{"bad number", "one\t\"νουμηνίᾳ\"\n"},
		{"missing name", "1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDayNames(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadFestivals(t *testing.T) {
	input := "1.0\t28.0\t\"Panathenaia\"\t\"Athena's \"\"birthday\"\"\"\n" +
		"9\t12\t\"Choes\"\n" +
		"4\t6\t\"Proerosia\"\t\"Ploughing\"\n" +
		"4\t6\t\"Oschophoria\"\t\"Grapes\"\n"

	fests, err := ReadFestivals(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, fests, 3)

	assert.Equal(t, []Festival{{Name: "Panathenaia", Description: `Athena's "birthday"`}},
		fests[FestivalKey{Month: calendar.Hekatombaion, Day: 28}])
	assert.Equal(t, []Festival{{Name: "Choes"}},
		fests[FestivalKey{Month: calendar.Anthesterion, Day: 12}])
	assert.Equal(t, []Festival{
		{Name: "Proerosia", Description: "Ploughing"},
		{Name: "Oschophoria", Description: "Grapes"},
	}, fests[FestivalKey{Month: calendar.Puanepsion, Day: 6}])
}

func TestReadFestivals_Errors(t *testing.T) {
	_, err := ReadFestivals(strings.NewReader("14\t1\t\"Nope\"\t\"\"\n"))
	assert.Error(t, err)

	_, err = ReadFestivals(strings.NewReader("1\t1\n"))
	assert.Error(t, err)

	_, err = ReadFestivals(strings.NewReader("1\t31\t\"Nope\"\n"))
	assert.Error(t, err)
}

func TestLoadTables(t *testing.T) {
	names, err := LoadDayNames("")
	require.NoError(t, err)
	assert.Len(t, names, 30)

	path := filepath.Join(t.TempDir(), "festivals.tsv")
	require.NoError(t, os.WriteFile(path, []byte("3\t15\t\"Agyrmos\"\t\"Gathering\"\n"), 0o644))

	fests, err := LoadFestivals(path)
	require.NoError(t, err)
	assert.Len(t, fests, 1)

	_, err = LoadDayNames(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)
}
