package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"absbot/events"
	"absbot/registry"

	log "github.com/sirupsen/logrus"
)

// DepartureMessage renders the announcement for a member who left. The
// display name falls back to the username.
func DepartureMessage(ev events.MemberLeftEvent) string {
	name := ev.DisplayName
	if name == "" {
		name = ev.Username
	}
	return fmt.Sprintf(departureMessageForm, name, ev.UserID.String())
}

// HandleMemberLeft announces a departure in the guild's bound channel. Every
// failure is logged and the event dropped; nothing is retried.
func (f *Feature) HandleMemberLeft(ctx context.Context, ev events.MemberLeftEvent) (Outcome, error) {
	entry := log.WithFields(log.Fields{
		"event":    string(events.EventTypeMemberLeft),
		"guild_id": ev.GuildID.String(),
		"user_id":  ev.UserID.String(),
	})

	channel, err := f.registry.Get(ctx, ev.GuildID)
	if err != nil {
		outcome := OutcomeStorageFailure
		if errors.Is(err, registry.ErrNotFound) {
			outcome = OutcomeLookupMiss
			entry.Info("No notification channel bound, dropping departure")
		} else {
			entry.WithError(err).Error("Failed to look up notification channel")
		}
		f.recordDeparture(outcome)
		return outcome, err
	}

	entry = entry.WithField("channel_id", channel.String())

	listCtx, cancel := f.withCallTimeout(ctx)
	channels, err := f.platform.GuildChannels(listCtx, ev.GuildID)
	cancel()
	if err != nil {
		entry.WithError(err).Error("Error getting guild channels")
		f.recordDeparture(OutcomeUpstreamFailure)
		return OutcomeUpstreamFailure, fmt.Errorf("%w: list channels: %w", ErrUpstreamFailure, err)
	}

	if !slices.Contains(channels, channel) {
		entry.Warn("Bound notification channel no longer exists in guild")
		f.recordDeparture(OutcomeStaleChannel)
		return OutcomeStaleChannel, ErrStaleChannel
	}

	sendCtx, cancel := f.withCallTimeout(ctx)
	err = f.platform.Send(sendCtx, channel, DepartureMessage(ev))
	cancel()
	if err != nil {
		entry.WithError(err).Error("Couldn't send departure message")
		f.recordDeparture(OutcomeDeliveryFailed)
		return OutcomeDeliveryFailed, fmt.Errorf("%w: send: %w", ErrUpstreamFailure, err)
	}

	entry.Debug("Departure message sent")
	f.recordDeparture(OutcomeAnnounced)
	return OutcomeAnnounced, nil
}
