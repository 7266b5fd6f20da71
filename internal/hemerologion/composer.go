package hemerologion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/username/hemerologion-bot/internal/calendar"
	"github.com/username/hemerologion-bot/pkg/dateutil"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	hollowMonthSummary = "\nThis month will have 29 days, which the ancient Greeks called a “hollow month” (κοῖλος μήν) as opposed to a “full month” (πλήρης μήν) of 30.\n"
	fullMonthSummary   = "\nThis month will have 30 days, which the ancient Greeks called a “full month” (πλήρης μήν) as opposed to a “hollow month” (κοῖλος μήν) of 29.\n"
)

// Post is a composed post for one calendar day
type Post struct {
	Day       calendar.Day
	Date      dateutil.CivilDate
	Text      string
	Chars     int // Unicode code points
	Graphemes int // user-perceived characters
}

// Header returns the post's date line, optionally with its length
func (p Post) Header(showChars bool) string {
	if showChars {
		return fmt.Sprintf("%s (%d chars)", p.Date, p.Chars)
	}
	return p.Date.String()
}

// Composer turns calendar days into post text
type Composer struct {
	calendar  calendar.Calendar
	dayNames  DayNames
	festivals Festivals
	logger    *zap.Logger
}

// NewComposer creates a new Composer. The calendar is consulted for year
// summaries on New Year's Day.
func NewComposer(cal calendar.Calendar, dayNames DayNames, festivals Festivals, logger *zap.Logger) *Composer {
	return &Composer{
		calendar:  cal,
		dayNames:  dayNames,
		festivals: festivals,
		logger:    logger,
	}
}

// Compose crafts the post for the given day
func (c *Composer) Compose(day calendar.Day) (*Post, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s %d (%s), %s\n", day.MonthName, day.Day, c.GreekDate(day), doyCount(day))

	if day.Day == 1 {
		b.WriteString(monthSummary(day))
	}

	if day.DOY == 1 {
		summary, err := c.yearSummary(day)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize year %s: %w", day.ArchonYear(), err)
		}
		b.WriteString(summary)
	}

	b.WriteString(c.festival(day))

	text := norm.NFC.String(b.String())
	post := &Post{
		Day:       day,
		Date:      day.Civil(),
		Text:      text,
		Chars:     utf8.RuneCountInString(text),
		Graphemes: uniseg.GraphemeClusterCount(text),
	}

	c.logger.Debug("Post composed",
		zap.Int("jdn", day.JDN),
		zap.String("date", post.Date.String()),
		zap.Int("chars", post.Chars),
		zap.Int("graphemes", post.Graphemes))

	return post, nil
}

// ComposeAll composes posts for each day in order
func (c *Composer) ComposeAll(days []calendar.Day) ([]*Post, error) {
	posts := make([]*Post, 0, len(days))
	for _, day := range days {
		post, err := c.Compose(day)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// GreekDayName returns the Greek name of the day. After the 20th the days
// count down to the end of the month, and hollow months skip one name.
func (c *Composer) GreekDayName(day calendar.Day) string {
	if day.Day <= 20 || !day.IsHollow() {
		return c.dayNames[day.Day]
	}
	return c.dayNames[day.Day+1]
}

// GreekDate returns the date in Greek: day name and month in the genitive
func (c *Composer) GreekDate(day calendar.Day) string {
	return fmt.Sprintf("%s %s", c.GreekDayName(day), calendar.Genitive(day.Month.GreekName()))
}

// festival describes the day's festivals. Festivals without a description
// are not mentioned.
func (c *Composer) festival(day calendar.Day) string {
	var b strings.Builder
	for _, fest := range c.festivals.Lookup(day) {
		if fest.Description == "" {
			continue
		}
		b.WriteString("\n" + fest.Name + "\n\n" + fest.Description + "\n")
	}
	return b.String()
}

func (c *Composer) yearSummary(day calendar.Day) (string, error) {
	days, err := c.calendar.Year(day.AstronomicalYear)
	if err != nil {
		return "", err
	}
	months := calendar.ByMonths(days)
	last := days[len(days)-1]

	yearType := "ordinary"
	if day.IsIntercalary() {
		yearType = "intercalary"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s will be an %s year of %d days, ending on %s. As an %s year there will be %d months:\n\n",
		day.ArchonYear(), yearType, day.YearLength, last.Civil(), yearType, len(months))

	for _, month := range months {
		start := month[0].Civil().MonthDay()
		end := month[len(month)-1].Civil().MonthDay()
		fmt.Fprintf(&b, "%s: %s–%s\n", month[0].MonthName, start, end)
	}

	return b.String(), nil
}

func monthSummary(day calendar.Day) string {
	if day.IsHollow() {
		return hollowMonthSummary
	}
	return fullMonthSummary
}

func doyCount(day calendar.Day) string {
	year := day.ArchonYear()

	if day.DOY == 1 {
		return fmt.Sprintf("day %d of %d. Happy New Year %s!", day.DOY, day.YearLength, year)
	}

	if day.IsLastOfYear() {
		return fmt.Sprintf("the last day of %s!", year)
	}

	return fmt.Sprintf("day %d of %d in the year %s.", day.DOY, day.YearLength, year)
}
