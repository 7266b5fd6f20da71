package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNothingPublished is returned when every network rejected a post
var ErrNothingPublished = errors.New("no network accepted the post")

// Result describes the outcome of publishing one post to one network
type Result struct {
	Network string
	URI     string // location of the created post, if known
}

// Publisher posts text to one social network
type Publisher interface {
	Name() string
	Publish(ctx context.Context, text string) (*Result, error)
}

// Enabled reports whether a network should receive posts. In immediate
// mode the network must also have been requested on the command line.
func Enabled(configured, immediate, requested bool) bool {
	if immediate {
		return configured && requested
	}
	return configured
}

// Broadcaster publishes each post to every configured network in turn
type Broadcaster struct {
	publishers []Publisher
	delay      time.Duration
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewBroadcaster creates a broadcaster that pauses delay after each post
func NewBroadcaster(publishers []Publisher, delay time.Duration, logger *zap.Logger) *Broadcaster {
	if delay < 0 {
		delay = 0
	}
	return &Broadcaster{
		publishers: publishers,
		delay:      delay,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Networks returns the names of the configured publishers
func (b *Broadcaster) Networks() []string {
	names := make([]string, 0, len(b.publishers))
	for _, p := range b.publishers {
		names = append(names, p.Name())
	}
	return names
}

// PublishAll posts text to each network and returns one message per
// network. A failing network does not stop the others. The error is
// ErrNothingPublished when no network accepted the post.
func (b *Broadcaster) PublishAll(ctx context.Context, text string) ([]string, error) {
	messages := make([]string, 0, len(b.publishers))
	published := 0

	for _, p := range b.publishers {
		if err := ctx.Err(); err != nil {
			messages = append(messages, FailureMessage(p.Name(), err))
			continue
		}

		result, err := p.Publish(ctx, text)
		if err != nil {
			b.logger.Error("Publish failed",
				zap.String("network", p.Name()),
				zap.Error(err))
			messages = append(messages, FailureMessage(p.Name(), err))
		} else {
			b.logger.Info("Published",
				zap.String("network", p.Name()),
				zap.String("uri", result.URI))
			messages = append(messages, SuccessMessage(p.Name()))
			published++
		}

		if err := b.sleep(ctx, b.delay); err != nil {
			b.logger.Warn("Pause between posts interrupted", zap.Error(err))
		}
	}

	if published == 0 && len(b.publishers) > 0 {
		return messages, ErrNothingPublished
	}
	return messages, nil
}

// SuccessMessage is the result line for a successful post
func SuccessMessage(network string) string {
	return "posted to " + network
}

// FailureMessage is the result line for a failed post
func FailureMessage(network string, err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return fmt.Sprintf("Failed to authenticate to %s. %v", network, authErr.Err)
	}
	return fmt.Sprintf("Failed to post to %s. %v", network, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
