package models

import "time"

// NotificationBinding states that departures from GuildID are announced in ChannelID
type NotificationBinding struct {
	GuildID   GuildID   `db:"guild_id"`
	ChannelID ChannelID `db:"channel_id"`
	UpdatedAt time.Time `db:"updated_at"`
}
