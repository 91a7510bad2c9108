package notify

import "errors"

var (
	// ErrMalformedCommand means the prefix was present but the subcommand was not
	ErrMalformedCommand = errors.New("malformed notify command")

	// ErrInvalidChannelID means the argument was not a non-zero base-10 uint64
	ErrInvalidChannelID = errors.New("invalid channel id")

	// ErrTargetUnreachable means the confirmation could not be delivered to the target channel
	ErrTargetUnreachable = errors.New("target channel unreachable")

	// ErrNoGuild means a command arrived outside a guild
	ErrNoGuild = errors.New("message has no guild")

	// ErrUpstreamFailure means a Discord API call failed
	ErrUpstreamFailure = errors.New("discord api failure")

	// ErrStaleChannel means the bound channel no longer exists in the guild
	ErrStaleChannel = errors.New("bound channel no longer exists")
)

// Outcome names the branch a handler took
type Outcome string

// Command outcomes
const (
	OutcomeIgnored         Outcome = "ignored"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeInvalidArgument Outcome = "invalid_argument"
	OutcomeProbeFailed     Outcome = "probe_failed"
	OutcomeNoGuild         Outcome = "no_guild"
	OutcomeStorageFailure  Outcome = "storage_failure"
	OutcomeAccepted        Outcome = "accepted"
)

// Departure outcomes
const (
	OutcomeAnnounced       Outcome = "announced"
	OutcomeLookupMiss      Outcome = "lookup_miss"
	OutcomeUpstreamFailure Outcome = "upstream_failure"
	OutcomeStaleChannel    Outcome = "stale_channel"
	OutcomeDeliveryFailed  Outcome = "delivery_failed"
)
