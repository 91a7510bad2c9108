package registry

import (
	"context"
	"errors"
	"time"

	"absbot/models"
)

// CallRecorder receives one observation per registry call
type CallRecorder interface {
	RecordRegistryCall(method, outcome string, duration time.Duration)
}

// Outcome labels reported to a CallRecorder
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

type instrumentedRegistry struct {
	next     Registry
	recorder CallRecorder
}

// WithMetrics reports the method, outcome and duration of every call on r
func WithMetrics(r Registry, recorder CallRecorder) Registry {
	if recorder == nil {
		return r
	}
	return &instrumentedRegistry{next: r, recorder: recorder}
}

func (i *instrumentedRegistry) Get(ctx context.Context, guild models.GuildID) (models.ChannelID, error) {
	start := time.Now()
	channel, err := i.next.Get(ctx, guild)
	i.recorder.RecordRegistryCall("get", callOutcome(err), time.Since(start))
	return channel, err
}

func (i *instrumentedRegistry) Set(ctx context.Context, guild models.GuildID, channel models.ChannelID) error {
	start := time.Now()
	err := i.next.Set(ctx, guild, channel)
	i.recorder.RecordRegistryCall("set", callOutcome(err), time.Since(start))
	return err
}

func (i *instrumentedRegistry) List(ctx context.Context) ([]models.NotificationBinding, error) {
	lister, ok := i.next.(Lister)
	if !ok {
		return nil, ErrListingUnsupported
	}

	start := time.Now()
	bindings, err := lister.List(ctx)
	i.recorder.RecordRegistryCall("list", callOutcome(err), time.Since(start))
	return bindings, err
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInvalidChannel):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
