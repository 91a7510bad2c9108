package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"absbot/models"
)

// timeoutRegistry bounds every call on the wrapped registry with a deadline
type timeoutRegistry struct {
	next    Registry
	timeout time.Duration
}

// WithTimeout wraps r so that no Get or Set blocks longer than timeout.
// A deadline expiry is reported as ErrStorage. A non-positive timeout
// returns r unchanged.
func WithTimeout(r Registry, timeout time.Duration) Registry {
	if timeout <= 0 {
		return r
	}
	return &timeoutRegistry{next: r, timeout: timeout}
}

func (t *timeoutRegistry) Get(ctx context.Context, guild models.GuildID) (models.ChannelID, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	channel, err := t.next.Get(ctx, guild)
	return channel, t.classify(err)
}

func (t *timeoutRegistry) Set(ctx context.Context, guild models.GuildID, channel models.ChannelID) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.classify(t.next.Set(ctx, guild, channel))
}

// List delegates when the wrapped registry supports it
func (t *timeoutRegistry) List(ctx context.Context) ([]models.NotificationBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	bindings, err := List(ctx, t.next)
	return bindings, t.classify(err)
}

func (t *timeoutRegistry) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrStorage) {
		return fmt.Errorf("%w: timed out after %s: %w", ErrStorage, t.timeout, err)
	}
	return err
}
