package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/hemerologion-bot/internal/calendar"
	"github.com/username/hemerologion-bot/internal/hemerologion"
	"github.com/username/hemerologion-bot/internal/queue"
	"github.com/username/hemerologion-bot/pkg/dateutil"
	"go.uber.org/zap"
)

const defaultDays = 10

type generateOptions struct {
	days         int
	year         int
	yearSet      bool
	showChars    bool
	enqueue      bool
	queueFile    string
	calendarFile string
}

func generateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose posts for upcoming days or a whole archon year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.yearSet = cmd.Flags().Changed("year")
			if opts.calendarFile == "" {
				opts.calendarFile = cfg.Calendar.File
			}

			composer, cal, err := newComposer(opts.calendarFile)
			if err != nil {
				return err
			}

			days, err := selectDays(cal, opts, dateutil.Today())
			if err != nil {
				return err
			}

			posts, err := composer.ComposeAll(days)
			if err != nil {
				return err
			}

			logger.Info("Posts composed",
				zap.Int("count", len(posts)),
				zap.Bool("whole_year", opts.yearSet))

			if opts.queueFile != "" {
				return appendToQueue(cmd.OutOrStdout(), opts.queueFile, posts)
			}
			if opts.enqueue {
				return appendToQueue(cmd.OutOrStdout(), cfg.Queue.File, posts)
			}

			printPosts(cmd.OutOrStdout(), posts, opts.showChars)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.days, "days", "d", defaultDays, "Number of days after today to generate")
	cmd.Flags().IntVarP(&opts.year, "year", "y", 0, "Generate the archon year beginning in this year (overrides --days)")
	cmd.Flags().BoolVarP(&opts.showChars, "characters", "c", false, "Show the character count of each post")
	cmd.Flags().BoolVarP(&opts.enqueue, "enqueue", "q", false, "Append posts to the queue file (queue.file) instead of printing")
	cmd.Flags().StringVar(&opts.queueFile, "queue", "", "Append posts to this TSV queue instead of printing")
	cmd.Flags().StringVar(&opts.calendarFile, "calendar", "", "Calendar export file (overrides calendar.file)")

	return cmd
}

// selectDays picks the calendar days a generate run covers
func selectDays(cal calendar.Calendar, opts generateOptions, today time.Time) ([]calendar.Day, error) {
	if opts.yearSet {
		return cal.Year(opts.year)
	}
	if opts.days < 0 {
		return nil, fmt.Errorf("--days must not be negative")
	}
	return cal.DaysAfter(dateutil.ToJDN(today), opts.days)
}

func printPosts(w io.Writer, posts []*hemerologion.Post, showChars bool) {
	for _, p := range posts {
		fmt.Fprintln(w, p.Header(showChars))
		fmt.Fprintln(w, strings.Repeat("-", 30))
		fmt.Fprintln(w, p.Text)
	}
}

func appendToQueue(w io.Writer, path string, posts []*hemerologion.Post) error {
	q, err := queue.Load(path, logger)
	if err != nil {
		return err
	}

	entries := make([]queue.Entry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, queue.Entry{
			Date: time.Date(p.Date.Year, p.Date.Month, p.Date.Day, 0, 0, 0, 0, time.Local),
			Text: p.Text,
		})
	}

	result := q.Append(entries)
	if len(result.Added) > 0 {
		if err := q.Save(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Added %d post(s) to %s", len(result.Added), path)
	if n := len(result.Duplicates); n > 0 {
		fmt.Fprintf(w, ", %d already queued", n)
	}
	if n := len(result.OutOfOrder); n > 0 {
		fmt.Fprintf(w, ", %d skipped as earlier than the end of the queue", n)
	}
	fmt.Fprintln(w)

	return nil
}
