package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/username/hemerologion-bot/internal/calendar"
	"github.com/username/hemerologion-bot/internal/config"
	"github.com/username/hemerologion-bot/internal/hemerologion"
	"github.com/username/hemerologion-bot/internal/social"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hemerologion",
		Short:         "Athenian calendar bot",
		Long:          "Compose daily posts about the ancient Athenian calendar, queue them and publish to Bluesky and Mastodon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				initLogger("info")
				return err
			}

			if cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else {
				initLogger(cfg.Log.Level)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	// -c is taken by generate --characters
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Config file path")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(postCmd())
	rootCmd.AddCommand(daemonCmd())

	return rootCmd
}

// newComposer loads the calendar export and text tables
func newComposer(calendarFile string) (*hemerologion.Composer, calendar.Calendar, error) {
	if calendarFile == "" {
		return nil, nil, fmt.Errorf("calendar file is required (calendar.file or --calendar)")
	}

	cal := calendar.NewFileCalendar(calendarFile, logger)
	if err := cal.Load(); err != nil {
		return nil, nil, err
	}

	dayNames, err := hemerologion.LoadDayNames(cfg.Calendar.DayNames)
	if err != nil {
		return nil, nil, err
	}
	festivals, err := hemerologion.LoadFestivals(cfg.Calendar.Festivals)
	if err != nil {
		return nil, nil, err
	}

	return hemerologion.NewComposer(cal, dayNames, festivals, logger), cal, nil
}

// networkFlags are the explicit network selections for immediate mode
type networkFlags struct {
	immediate bool
	bluesky   bool
	mastodon  bool
}

// newPublishers builds a publisher for every enabled network
func newPublishers(c *config.Config, flags networkFlags) []social.Publisher {
	var publishers []social.Publisher
	retries := c.Publish.GetRetries()

	if social.Enabled(c.Bluesky.Enabled, flags.immediate, flags.bluesky) {
		publishers = append(publishers, social.NewBlueskyClient(
			c.Bluesky.BaseURL,
			c.Bluesky.Identifier,
			c.Bluesky.Password,
			logger,
			social.WithRetries(retries),
		))
	}

	if social.Enabled(c.Mastodon.Enabled, flags.immediate, flags.mastodon) {
		publishers = append(publishers, social.NewMastodonClient(social.MastodonConfig{
			Server:       c.Mastodon.Server,
			ClientID:     c.Mastodon.ClientID,
			ClientSecret: c.Mastodon.ClientSecret,
			AccessToken:  c.Mastodon.AccessToken,
			Visibility:   c.Mastodon.Visibility,
		}, logger, retries, 0))
	}

	return publishers
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
