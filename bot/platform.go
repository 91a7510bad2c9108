package bot

import (
	"context"
	"fmt"

	"absbot/bot/features/notify"
	"absbot/models"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// DiscordPlatform implements notify.Platform on top of a discordgo session
type DiscordPlatform struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

// NewDiscordPlatform wraps session. Outbound calls are paced to ratePerSec
// with a burst of the same size; zero leaves pacing to discordgo alone.
func NewDiscordPlatform(session *discordgo.Session, ratePerSec int) *DiscordPlatform {
	p := &DiscordPlatform{session: session}
	if ratePerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return p
}

// wait blocks for a limiter token or until ctx is done
func (p *DiscordPlatform) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Send posts content into channel
func (p *DiscordPlatform) Send(ctx context.Context, channel models.ChannelID, content string) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	_, err := p.session.ChannelMessageSend(channel.String(), content, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channel, err)
	}
	return nil
}

// Reply answers msg in its channel as a message reply that mentions the author
func (p *DiscordPlatform) Reply(ctx context.Context, msg *notify.IncomingMessage, content string) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	send := &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> %s", msg.AuthorID, content),
		Reference: &discordgo.MessageReference{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID.String(),
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users:       []string{msg.AuthorID.String()},
			RepliedUser: true,
		},
	}
	if msg.InGuild() {
		send.Reference.GuildID = msg.GuildID.String()
	}

	_, err := p.session.ChannelMessageSendComplex(msg.ChannelID.String(), send, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("reply to message %s: %w", msg.ID, err)
	}
	return nil
}

// GuildChannels lists the ids of every channel in guild
func (p *DiscordPlatform) GuildChannels(ctx context.Context, guild models.GuildID) ([]models.ChannelID, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	channels, err := p.session.GuildChannels(guild.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels of guild %s: %w", guild, err)
	}

	ids := make([]models.ChannelID, 0, len(channels))
	for _, ch := range channels {
		id, err := models.ParseChannelID(ch.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
