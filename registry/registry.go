// Package registry owns the guild -> notification channel bindings.
//
// Callers depend on the Registry interface only. The in-memory store lives
// here; durable stores live in the repository package.
package registry

import (
	"context"
	"errors"

	"absbot/models"
)

var (
	// ErrNotFound is returned by Get when a guild has no binding
	ErrNotFound = errors.New("no notification channel bound for guild")

	// ErrInvalidChannel is returned by Set for the zero channel id
	ErrInvalidChannel = errors.New("invalid notification channel id")

	// ErrStorage wraps failures of the backing store
	ErrStorage = errors.New("notification channel storage failure")

	// ErrListingUnsupported is returned when the store cannot enumerate bindings
	ErrListingUnsupported = errors.New("registry cannot list bindings")
)

// Registry maps each guild to at most one notification channel
type Registry interface {
	// Get returns the channel bound to guild, or ErrNotFound
	Get(ctx context.Context, guild models.GuildID) (models.ChannelID, error)

	// Set replaces (or creates) the binding for guild atomically
	Set(ctx context.Context, guild models.GuildID, channel models.ChannelID) error
}

// Lister is implemented by stores that can enumerate their bindings
type Lister interface {
	List(ctx context.Context) ([]models.NotificationBinding, error)
}

// List enumerates the bindings of r, or returns ErrListingUnsupported when
// the store behind r cannot list
func List(ctx context.Context, r Registry) ([]models.NotificationBinding, error) {
	lister, ok := r.(Lister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	return lister.List(ctx)
}
