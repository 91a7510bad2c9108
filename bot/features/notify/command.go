package notify

import (
	"strconv"
	"strings"

	"absbot/models"
)

// Command surface and the user-visible strings of the feature
const (
	CommandPrefix       = "!abs "
	SubcommandNotifChan = "notifchan "

	UsageMessage         = "bad command format, use: `!abs notifchan <channelid>`"
	InvalidChannelReply  = "channel id invalid"
	UnreachableReply     = "I can't find or don't have access to that channel"
	ConfirmationMessage  = "This is now the channel that will be notified when someone leaves."
	departureMessageForm = "%s (%s) has left the server"
)

// ParseCommand extracts the target channel from a configuration command.
// isCommand is false when content does not start with CommandPrefix; in that
// case err is always nil. The prefix and subcommand are case-sensitive and
// the argument must be a non-zero base-10 uint64 with nothing around it.
func ParseCommand(content string) (channel models.ChannelID, isCommand bool, err error) {
	rest, ok := strings.CutPrefix(content, CommandPrefix)
	if !ok {
		return 0, false, nil
	}

	arg, ok := strings.CutPrefix(rest, SubcommandNotifChan)
	if !ok {
		return 0, true, ErrMalformedCommand
	}

	// "0" and anything unparsable are the same error
	v, perr := strconv.ParseUint(arg, 10, 64)
	if perr != nil || v == 0 {
		return 0, true, ErrInvalidChannelID
	}

	return models.ChannelID(v), true, nil
}
