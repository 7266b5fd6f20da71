package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/hemerologion-bot/internal/daemon"
	"go.uber.org/zap"
)

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon [FILE]",
		Short: "Publish queued posts every day on the configured schedule (FILE defaults to queue.file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := queuePath(args)
			out := cmd.OutOrStdout()

			job := func(ctx context.Context, date time.Time) error {
				return publishQueued(ctx, out, path, date)
			}

			state := daemon.NewStateManager(daemon.StateFileFor(path), logger)
			d, err := daemon.New(job, cfg.Daemon.GetSchedule(), cfg.Daemon.GetLocation(), logger,
				daemon.WithState(state))
			if err != nil {
				return err
			}

			logger.Info("Starting daemon",
				zap.String("queue", path),
				zap.Bool("bluesky", cfg.Bluesky.Enabled),
				zap.Bool("mastodon", cfg.Mastodon.Enabled))

			return d.Start()
		},
	}
}
