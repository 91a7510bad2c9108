package bot

import (
	"context"
	"fmt"
	"time"

	"absbot/bot/features/notify"
	"absbot/events"
	"absbot/models"
	"absbot/registry"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Intents the bot identifies with
const Intents = discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// Config holds bot configuration
type Config struct {
	Token          string
	CallTimeout    time.Duration
	SendRatePerSec int
}

// Bot manages the Discord session and the notify feature
type Bot struct {
	config   Config
	session  *discordgo.Session
	bus      *events.Bus
	registry registry.Registry

	notify *notify.Feature
}

// New creates the Discord session, wires the notify feature to reg and bus,
// and opens the gateway connection
func New(config Config, reg registry.Registry, bus *events.Bus, recorder notify.Recorder) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = Intents

	feature := notify.New(reg, NewDiscordPlatform(dg, config.SendRatePerSec), bus, recorder, config.CallTimeout)
	bot := newBot(config, dg, reg, bus, feature)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	log.WithField("intents", int(Intents)).Info("Discord session opened")
	return bot, nil
}

// newBot registers handlers without touching the network
func newBot(config Config, session *discordgo.Session, reg registry.Registry, bus *events.Bus, feature *notify.Feature) *Bot {
	bot := &Bot{
		config:   config,
		session:  session,
		bus:      bus,
		registry: reg,
		notify:   feature,
	}

	feature.Register(bus)
	session.AddHandler(bot.handleMessageCreate)
	session.AddHandler(bot.handleGuildMemberRemove)

	return bot
}

// Close gracefully shuts down the Discord session
func (b *Bot) Close() error {
	return b.session.Close()
}

// AuditBindings reports bindings whose channel no longer exists
func (b *Bot) AuditBindings(ctx context.Context) (notify.AuditReport, error) {
	return b.notify.Audit(ctx)
}

// GetSession returns the Discord session
func (b *Bot) GetSession() *discordgo.Session {
	return b.session
}

// handleMessageCreate feeds every message into the notify command processor
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg, err := toIncomingMessage(s, m.Message)
	if err != nil {
		log.WithError(err).WithField("message_id", m.ID).Warn("Skipping message with unparsable ids")
		return
	}

	b.notify.HandleMessage(context.Background(), msg)
}

// handleGuildMemberRemove raises a MemberLeftEvent on the bus
func (b *Bot) handleGuildMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ev, err := toMemberLeftEvent(m)
	if err != nil {
		log.WithError(err).Warn("Skipping member removal with unparsable ids")
		return
	}

	log.WithFields(log.Fields{
		"event":    string(events.EventTypeMemberLeft),
		"guild_id": ev.GuildID.String(),
		"user_id":  ev.UserID.String(),
	}).Debug("Guild member removed")

	b.bus.Emit(context.Background(), ev)
}

func toIncomingMessage(s *discordgo.Session, m *discordgo.Message) (*notify.IncomingMessage, error) {
	if m == nil || m.Author == nil {
		return nil, fmt.Errorf("message without author")
	}

	msg := &notify.IncomingMessage{
		ID:          m.ID,
		Content:     m.Content,
		AuthorIsBot: m.Author.Bot,
	}

	// Our own messages are ignored even if the account is not flagged as a bot
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		msg.AuthorIsBot = true
	}

	var err error
	if msg.AuthorID, err = models.ParseUserID(m.Author.ID); err != nil {
		return nil, err
	}
	if msg.ChannelID, err = models.ParseChannelID(m.ChannelID); err != nil {
		return nil, err
	}
	if m.GuildID != "" {
		if msg.GuildID, err = models.ParseGuildID(m.GuildID); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

func toMemberLeftEvent(m *discordgo.GuildMemberRemove) (events.MemberLeftEvent, error) {
	if m.Member == nil || m.User == nil {
		return events.MemberLeftEvent{}, fmt.Errorf("member removal without user")
	}

	guild, err := models.ParseGuildID(m.GuildID)
	if err != nil {
		return events.MemberLeftEvent{}, err
	}
	user, err := models.ParseUserID(m.User.ID)
	if err != nil {
		return events.MemberLeftEvent{}, err
	}

	return events.MemberLeftEvent{
		GuildID:     guild,
		UserID:      user,
		Username:    m.User.Username,
		DisplayName: m.User.GlobalName,
		OccurredAt:  time.Now().UTC(),
	}, nil
}
