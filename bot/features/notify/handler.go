package notify

import (
	"context"
	"errors"
	"fmt"

	"absbot/bot/common"
	"absbot/events"

	log "github.com/sirupsen/logrus"
)

// HandleMessage runs one message through the configuration command. Only an
// accepted command mutates the registry. User mistakes and an unreachable
// target are answered in the origin channel; every other failure is logged
// and the message dropped. The returned error, when set, is a *common.BotError.
func (f *Feature) HandleMessage(ctx context.Context, msg *IncomingMessage) (Outcome, error) {
	if msg.AuthorIsBot {
		return OutcomeIgnored, nil
	}

	channel, isCommand, err := ParseCommand(msg.Content)
	if !isCommand {
		return OutcomeIgnored, nil
	}

	fields := log.Fields{
		"event":      "notify_command",
		"message_id": msg.ID,
		"guild_id":   msg.GuildID.String(),
	}

	if err != nil {
		outcome, reply := OutcomeInvalidArgument, InvalidChannelReply
		if errors.Is(err, ErrMalformedCommand) {
			outcome, reply = OutcomeMalformed, UsageMessage
		}
		return f.rejectCommand(ctx, msg, fields, outcome, common.NewUserError(err, reply, "rejected notify command"))
	}

	fields["channel_id"] = channel.String()

	if !msg.InGuild() {
		botErr := common.NewSystemError(ErrNoGuild, "notify command outside a guild, ignoring")
		common.LogError(fields, botErr)
		f.recordCommand(OutcomeNoGuild)
		return OutcomeNoGuild, botErr
	}

	probeCtx, cancel := f.withCallTimeout(ctx)
	err = f.platform.Send(probeCtx, channel, ConfirmationMessage)
	cancel()
	if err != nil {
		botErr := common.NewUserError(
			fmt.Errorf("%w: %w", ErrTargetUnreachable, err),
			UnreachableReply,
			"couldn't send confirmation to target channel",
		)
		return f.rejectCommand(ctx, msg, fields, OutcomeProbeFailed, botErr)
	}

	if err := f.registry.Set(ctx, msg.GuildID, channel); err != nil {
		botErr := common.NewSystemError(err, "failed to store notification channel")
		common.LogError(fields, botErr)
		f.recordCommand(OutcomeStorageFailure)
		return OutcomeStorageFailure, botErr
	}

	log.WithFields(fields).Info("Notification channel updated")
	f.recordCommand(OutcomeAccepted)

	if f.publisher != nil {
		f.publisher.Emit(ctx, events.NotifyChannelSetEvent{
			GuildID:    msg.GuildID,
			ChannelID:  channel,
			SetBy:      msg.AuthorID,
			OccurredAt: f.now().UTC(),
		})
	}

	return OutcomeAccepted, nil
}

// rejectCommand replies the user-facing message of botErr and reports outcome
func (f *Feature) rejectCommand(ctx context.Context, msg *IncomingMessage, fields log.Fields, outcome Outcome, botErr *common.BotError) (Outcome, error) {
	common.LogError(fields, botErr)
	f.recordCommand(outcome)

	replyCtx, cancel := f.withCallTimeout(ctx)
	defer cancel()

	if err := f.platform.Reply(replyCtx, msg, botErr.UserMessage); err != nil {
		log.WithFields(fields).WithError(err).Error("Couldn't reply to message")
	}

	return outcome, botErr
}
