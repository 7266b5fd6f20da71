package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/hemerologion-bot/internal/queue"
	"github.com/username/hemerologion-bot/internal/social"
	"github.com/username/hemerologion-bot/pkg/dateutil"
	"go.uber.org/zap"
)

func postCmd() *cobra.Command {
	var (
		forDate string
		show    bool
		flags   networkFlags
	)

	cmd := &cobra.Command{
		Use:   "post [FILE]",
		Short: "Publish the queued posts for a date (FILE defaults to queue.file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.immediate && (flags.bluesky || flags.mastodon) {
				return fmt.Errorf("--bluesky and --mastodon require --immediate")
			}

			date := dateutil.Today()
			if forDate != "" {
				var err error
				date, err = dateutil.ParsePostDate(forDate)
				if err != nil {
					return err
				}
			}

			q, err := queue.Load(queuePath(args), logger)
			if err != nil {
				return err
			}

			entries := q.ForDate(date)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No posts queued for %s\n", dateutil.FormatPostDate(date))
				return nil
			}

			if show {
				for _, e := range entries {
					printPreview(out, e)
				}
				return nil
			}

			b := social.NewBroadcaster(newPublishers(cfg, flags), cfg.Publish.GetDelay(), logger)
			return publishEntries(cmd.Context(), out, b, entries)
		},
	}

	cmd.Flags().StringVarP(&forDate, "for-date", "d", "", "Date to publish, YYYY-Mon-DD (default today)")
	cmd.Flags().BoolVarP(&show, "show", "s", false, "Show the posts instead of publishing them")
	cmd.Flags().BoolVarP(&flags.immediate, "immediate", "m", false, "Publish only to networks named by --bluesky/--mastodon")
	cmd.Flags().BoolVar(&flags.bluesky, "bluesky", false, "Publish to Bluesky (with --immediate)")
	cmd.Flags().BoolVar(&flags.mastodon, "mastodon", false, "Publish to Mastodon (with --immediate)")

	return cmd
}

func printPreview(w io.Writer, e queue.Entry) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "#%d %s (%d characters)\n", e.Serial, e.DateString(), e.Chars)
	fmt.Fprintln(w, strings.Repeat("=", 35))
	fmt.Fprintln(w, e.Text)
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

// queuePath returns the queue file named on the command line, or queue.file
func queuePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Queue.File
}

// publishEntries sends each entry to every network and prints one result
// line per network. It fails if some entry reached no network at all.
func publishEntries(ctx context.Context, w io.Writer, b *social.Broadcaster, entries []queue.Entry) error {
	if len(b.Networks()) == 0 {
		logger.Warn("No networks enabled, nothing published")
		fmt.Fprintln(w, "No networks enabled")
		return nil
	}

	var failed []string
	for _, e := range entries {
		logger.Info("Publishing queued post",
			zap.Int("serial", e.Serial),
			zap.String("date", e.DateString()),
			zap.Strings("networks", b.Networks()))

		msgs, err := b.PublishAll(ctx, e.Text)
		for _, msg := range msgs {
			fmt.Fprintln(w, msg)
		}
		if err != nil {
			failed = append(failed, fmt.Sprintf("#%d", e.Serial))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("post %s: %w", strings.Join(failed, ", "), social.ErrNothingPublished)
	}
	return nil
}

// publishQueued loads the queue and publishes the posts for date
func publishQueued(ctx context.Context, w io.Writer, path string, date time.Time) error {
	q, err := queue.Load(path, logger)
	if err != nil {
		return err
	}

	entries := q.ForDate(date)
	if len(entries) == 0 {
		logger.Warn("No posts queued",
			zap.String("file", path),
			zap.String("date", dateutil.FormatPostDate(date)))
		return nil
	}

	b := social.NewBroadcaster(newPublishers(cfg, networkFlags{}), cfg.Publish.GetDelay(), logger)
	return publishEntries(ctx, w, b, entries)
}
