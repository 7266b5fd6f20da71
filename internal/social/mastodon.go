package social

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-mastodon"
	"go.uber.org/zap"
)

const (
	// MastodonMaxChars is the default status length limit of a Mastodon instance
	MastodonMaxChars = 500

	// DefaultVisibility is used when no visibility is configured
	DefaultVisibility = "public"

	mastodonName = "Mastodon"
)

// MastodonConfig holds the instance URL and credentials
type MastodonConfig struct {
	Server       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	Visibility   string
}

// MastodonClient publishes statuses to a Mastodon instance
type MastodonClient struct {
	client     *mastodon.Client
	visibility string
	logger     *zap.Logger
	retries    int
	retryDelay time.Duration
}

// NewMastodonClient creates a Mastodon publisher. Zero retries or delay
// select the defaults.
func NewMastodonClient(cfg MastodonConfig, logger *zap.Logger, retries int, retryDelay time.Duration) *MastodonClient {
	client := mastodon.NewClient(&mastodon.Config{
		Server:       cfg.Server,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AccessToken:  cfg.AccessToken,
	})
	client.Timeout = defaultTimeout

	visibility := cfg.Visibility
	if visibility == "" {
		visibility = DefaultVisibility
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &MastodonClient{
		client:     client,
		visibility: visibility,
		logger:     logger,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

// Name implements Publisher
func (m *MastodonClient) Name() string {
	return mastodonName
}

// Publish posts text as a new status
func (m *MastodonClient) Publish(ctx context.Context, text string) (*Result, error) {
	if n := utf8.RuneCountInString(text); n > MastodonMaxChars {
		return nil, fmt.Errorf("%w: %d characters, limit %d", ErrTooLong, n, MastodonMaxChars)
	}

	toot := &mastodon.Toot{
		Status:     text,
		Visibility: m.visibility,
	}

	var status *mastodon.Status
	err := retry(ctx, m.logger, "statuses", m.retries, m.retryDelay, func() error {
		var err error
		status, err = m.client.PostStatus(ctx, toot)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Mastodon status posted",
		zap.String("id", string(status.ID)),
		zap.String("url", status.URL),
		zap.String("visibility", m.visibility))

	return &Result{Network: mastodonName, URI: status.URL}, nil
}
