package models

import (
	"fmt"
	"strconv"
)

// GuildID identifies a Discord guild (snowflake)
type GuildID uint64

// ChannelID identifies a channel within a guild (snowflake). Zero is never valid.
type ChannelID uint64

// UserID identifies a Discord user (snowflake)
type UserID uint64

func (g GuildID) String() string   { return strconv.FormatUint(uint64(g), 10) }
func (c ChannelID) String() string { return strconv.FormatUint(uint64(c), 10) }
func (u UserID) String() string    { return strconv.FormatUint(uint64(u), 10) }

// Valid reports whether the channel id can address a real channel
func (c ChannelID) Valid() bool {
	return c != 0
}

// ParseGuildID parses a base-10 snowflake string as sent by the gateway
func ParseGuildID(s string) (GuildID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid guild id %q: %w", s, err)
	}
	return GuildID(v), nil
}

// ParseChannelID parses a base-10 snowflake string. Zero is rejected.
func ParseChannelID(s string) (ChannelID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid channel id %q: must be non-zero", s)
	}
	return ChannelID(v), nil
}

// ParseUserID parses a base-10 snowflake string
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(v), nil
}
