package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"absbot/database"
	"absbot/models"
	"absbot/registry"
)

// sqliteTimeLayout matches the default written by the sqlite migration
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteNotifyChannelRepository is the SQLite-backed notification channel registry
type SQLiteNotifyChannelRepository struct {
	db  *database.SQLiteDB
	now func() time.Time
}

// NewSQLiteNotifyChannelRepository creates a repository over an opened SQLite database
func NewSQLiteNotifyChannelRepository(db *database.SQLiteDB) *SQLiteNotifyChannelRepository {
	return &SQLiteNotifyChannelRepository{db: db, now: time.Now}
}

// Get returns the channel bound to guildID
func (r *SQLiteNotifyChannelRepository) Get(ctx context.Context, guildID models.GuildID) (models.ChannelID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT channel_id FROM notify_channel WHERE guild_id = ?`,
		guildID.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, registry.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get notify channel for guild %s: %w", registry.ErrStorage, guildID, err)
	}

	channelID, err := models.ParseChannelID(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed channel id stored for guild %s: %w", registry.ErrStorage, guildID, err)
	}

	return channelID, nil
}

// Set replaces the binding for guildID. The delete of the previous binding and
// the insert of the new one happen in one transaction.
func (r *SQLiteNotifyChannelRepository) Set(ctx context.Context, guildID models.GuildID, channelID models.ChannelID) error {
	if !channelID.Valid() {
		return registry.ErrInvalidChannel
	}

	updatedAt := r.now().UTC().Format(sqliteTimeLayout)

	return storageError(r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return sqliteReplace(ctx, tx, guildID, channelID, updatedAt)
	}))
}

func sqliteReplace(ctx context.Context, q sqlQueryable, guildID models.GuildID, channelID models.ChannelID, updatedAt string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM notify_channel WHERE guild_id = ?`,
		guildID.String(),
	); err != nil {
		return fmt.Errorf("%w: failed to clear old notify channel for guild %s: %w", registry.ErrStorage, guildID, err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO notify_channel (guild_id, channel_id, updated_at) VALUES (?, ?, ?)`,
		guildID.String(), channelID.String(), updatedAt,
	); err != nil {
		return fmt.Errorf("%w: failed to insert notify channel %s for guild %s: %w", registry.ErrStorage, channelID, guildID, err)
	}

	return nil
}

// List returns every stored binding ordered by guild id
func (r *SQLiteNotifyChannelRepository) List(ctx context.Context) ([]models.NotificationBinding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, updated_at FROM notify_channel ORDER BY length(guild_id), guild_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list notify channels: %w", registry.ErrStorage, err)
	}
	defer rows.Close()

	var bindings []models.NotificationBinding
	for rows.Next() {
		var rawGuild, rawChannel, rawUpdated string
		if err := rows.Scan(&rawGuild, &rawChannel, &rawUpdated); err != nil {
			return nil, fmt.Errorf("%w: failed to scan notify channel: %w", registry.ErrStorage, err)
		}

		updatedAt, err := time.Parse(sqliteTimeLayout, rawUpdated)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed updated_at %q: %w", registry.ErrStorage, rawUpdated, err)
		}

		binding, err := decodeBinding(rawGuild, rawChannel, updatedAt)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate notify channels: %w", registry.ErrStorage, err)
	}

	return bindings, nil
}
