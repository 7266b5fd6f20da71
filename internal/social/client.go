package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/rivo/uniseg"
	"github.com/username/hemerologion-bot/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 2
	defaultRetryDelay = time.Second

	// DefaultBlueskyURL is the PDS used when none is configured
	DefaultBlueskyURL = "https://bsky.social"

	// BlueskyMaxGraphemes is the post length limit enforced by Bluesky
	BlueskyMaxGraphemes = 300

	blueskyName    = "BlueSky"
	postCollection = "app.bsky.feed.post"
	userAgent      = "hemerologion-bot"
)

// ErrTooLong is returned when a post exceeds a network's length limit
var ErrTooLong = errors.New("post is too long")

// BlueskyClient publishes posts through the AT Protocol XRPC API
type BlueskyClient struct {
	baseURL    string
	identifier string
	password   string
	sessions   *SessionManager
	httpClient *http.Client
	logger     *zap.Logger
	retries    int
	retryDelay time.Duration
	now        func() time.Time
}

// BlueskyOption configures a BlueskyClient
type BlueskyOption func(*BlueskyClient)

// WithRetries sets the number of attempts per request
func WithRetries(n int) BlueskyOption {
	return func(c *BlueskyClient) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the base pause between attempts
func WithRetryDelay(d time.Duration) BlueskyOption {
	return func(c *BlueskyClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) BlueskyOption {
	return func(c *BlueskyClient) {
		c.httpClient = hc
	}
}

// NewBlueskyClient creates a Bluesky client for the account identifier
func NewBlueskyClient(baseURL, identifier, password string, logger *zap.Logger, opts ...BlueskyOption) *BlueskyClient {
	if baseURL == "" {
		baseURL = DefaultBlueskyURL
	}

	c := &BlueskyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		identifier: identifier,
		password:   password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     logger,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sessions = NewSessionManager(c.createSession, defaultSessionLifetime, logger)

	return c
}

// Name implements Publisher
func (c *BlueskyClient) Name() string {
	return blueskyName
}

// Publish creates a post record on the account's repository
func (c *BlueskyClient) Publish(ctx context.Context, text string) (*Result, error) {
	if n := uniseg.GraphemeClusterCount(text); n > BlueskyMaxGraphemes {
		return nil, fmt.Errorf("%w: %d graphemes, limit %d", ErrTooLong, n, BlueskyMaxGraphemes)
	}

	auth, err := c.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	input := &comatproto.RepoCreateRecord_Input{
		Repo:       auth.Did,
		Collection: postCollection,
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.FeedPost{
			LexiconTypeID: postCollection,
			Text:          text,
			CreatedAt:     dateutil.FormatISO8601(c.now()),
		}},
	}

	var out *comatproto.RepoCreateRecord_Output
	err = retry(ctx, c.logger, "com.atproto.repo.createRecord", c.retries, c.retryDelay, func() error {
		var err error
		out, err = comatproto.RepoCreateRecord(ctx, c.xrpcClient(auth), input)
		return err
	})
	if err != nil {
		var xerr *xrpc.Error
		if errors.As(err, &xerr) && xerr.StatusCode == http.StatusUnauthorized {
			c.sessions.Invalidate()
		}
		return nil, err
	}

	c.logger.Info("Bluesky post created",
		zap.String("uri", out.Uri),
		zap.String("cid", out.Cid))

	return &Result{Network: blueskyName, URI: out.Uri}, nil
}

// createSession logs in with identifier and app password
func (c *BlueskyClient) createSession(ctx context.Context) (*xrpc.AuthInfo, error) {
	input := &comatproto.ServerCreateSession_Input{
		Identifier: c.identifier,
		Password:   c.password,
	}

	var out *comatproto.ServerCreateSession_Output
	err := retry(ctx, c.logger, "com.atproto.server.createSession", c.retries, c.retryDelay, func() error {
		var err error
		out, err = comatproto.ServerCreateSession(ctx, c.xrpcClient(nil), input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}, nil
}

// xrpcClient returns a client for the PDS, authenticated when auth is set
func (c *BlueskyClient) xrpcClient(auth *xrpc.AuthInfo) *xrpc.Client {
	ua := userAgent
	return &xrpc.Client{
		Client:    c.httpClient,
		Host:      c.baseURL,
		Auth:      auth,
		UserAgent: &ua,
	}
}

// retry runs fn up to attempts times, pausing delay*attempt between tries
func retry(ctx context.Context, logger *zap.Logger, op string, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warn("Request failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", attempts),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay * time.Duration(attempt)):
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}
