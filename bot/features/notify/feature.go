package notify

import (
	"context"
	"time"

	"absbot/events"
	"absbot/models"
	"absbot/registry"

	log "github.com/sirupsen/logrus"
)

// IncomingMessage is the part of a gateway message the feature looks at
type IncomingMessage struct {
	ID          string
	GuildID     models.GuildID // zero for direct messages
	ChannelID   models.ChannelID
	AuthorID    models.UserID
	AuthorIsBot bool
	Content     string
}

// InGuild reports whether the message was posted in a guild channel
func (m *IncomingMessage) InGuild() bool {
	return m.GuildID != 0
}

// Platform is the subset of the Discord API the feature needs
type Platform interface {
	// Send posts text into channel
	Send(ctx context.Context, channel models.ChannelID, content string) error

	// Reply answers msg in its own channel, mentioning the author
	Reply(ctx context.Context, msg *IncomingMessage, content string) error

	// GuildChannels lists the channels currently present in guild
	GuildChannels(ctx context.Context, guild models.GuildID) ([]models.ChannelID, error)
}

// Recorder receives one observation per handled command or departure
type Recorder interface {
	RecordCommandOutcome(outcome string)
	RecordDepartureOutcome(outcome string)
}

// Feature handles the notification channel command and member departures
type Feature struct {
	registry    registry.Registry
	platform    Platform
	publisher   events.Publisher
	recorder    Recorder
	callTimeout time.Duration
	now         func() time.Time
}

// New creates a new notify feature. publisher and recorder may be nil.
func New(reg registry.Registry, platform Platform, publisher events.Publisher, recorder Recorder, callTimeout time.Duration) *Feature {
	return &Feature{
		registry:    reg,
		platform:    platform,
		publisher:   publisher,
		recorder:    recorder,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// Register subscribes the departure path to member-left events on bus
func (f *Feature) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMemberLeft, func(ctx context.Context, event events.Event) {
		ev, ok := event.(events.MemberLeftEvent)
		if !ok {
			log.WithField("event", event.Type()).Warn("Unexpected event payload for member_left")
			return
		}
		f.HandleMemberLeft(ctx, ev)
	})
}

// withCallTimeout bounds a single platform call
func (f *Feature) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.callTimeout)
}

func (f *Feature) recordCommand(outcome Outcome) {
	if f.recorder != nil {
		f.recorder.RecordCommandOutcome(string(outcome))
	}
}

func (f *Feature) recordDeparture(outcome Outcome) {
	if f.recorder != nil {
		f.recorder.RecordDepartureOutcome(string(outcome))
	}
}
