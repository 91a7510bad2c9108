package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"absbot/database"
	"absbot/models"
	"absbot/registry"

	"github.com/jackc/pgx/v5"
)

// NotifyChannelRepository is the Postgres-backed notification channel registry
type NotifyChannelRepository struct {
	db *database.DB // nil when bound to an outer transaction
	q  Queryable
}

// NewNotifyChannelRepository creates a repository that runs each Set in its own transaction
func NewNotifyChannelRepository(db *database.DB) *NotifyChannelRepository {
	return &NotifyChannelRepository{db: db, q: db.Pool}
}

// newNotifyChannelRepositoryWithTx binds a repository to an open transaction
func newNotifyChannelRepositoryWithTx(tx Queryable) *NotifyChannelRepository {
	return &NotifyChannelRepository{q: tx}
}

// Get returns the channel bound to guildID
func (r *NotifyChannelRepository) Get(ctx context.Context, guildID models.GuildID) (models.ChannelID, error) {
	query := `
		SELECT channel_id
		FROM notify_channel
		WHERE guild_id = $1
	`

	var raw string
	err := r.q.QueryRow(ctx, query, guildID.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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

// Set replaces the binding for guildID in a single transaction
func (r *NotifyChannelRepository) Set(ctx context.Context, guildID models.GuildID, channelID models.ChannelID) error {
	if !channelID.Valid() {
		return registry.ErrInvalidChannel
	}

	if r.db == nil {
		return r.upsert(ctx, guildID, channelID)
	}

	return storageError(r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return newNotifyChannelRepositoryWithTx(tx).upsert(ctx, guildID, channelID)
	}))
}

func (r *NotifyChannelRepository) upsert(ctx context.Context, guildID models.GuildID, channelID models.ChannelID) error {
	query := `
		INSERT INTO notify_channel (guild_id, channel_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (guild_id) DO UPDATE
		SET channel_id = EXCLUDED.channel_id,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, query, guildID.String(), channelID.String()); err != nil {
		return fmt.Errorf("%w: failed to set notify channel %s for guild %s: %w", registry.ErrStorage, channelID, guildID, err)
	}

	return nil
}

// List returns every stored binding ordered by guild id
func (r *NotifyChannelRepository) List(ctx context.Context) ([]models.NotificationBinding, error) {
	query := `
		SELECT guild_id, channel_id, updated_at
		FROM notify_channel
		ORDER BY guild_id::NUMERIC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list notify channels: %w", registry.ErrStorage, err)
	}
	defer rows.Close()

	var bindings []models.NotificationBinding
	for rows.Next() {
		var (
			rawGuild, rawChannel string
			updatedAt            time.Time
		)
		if err := rows.Scan(&rawGuild, &rawChannel, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan notify channel: %w", registry.ErrStorage, err)
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

// storageError tags err as a storage failure unless it already is one
func storageError(err error) error {
	if err == nil || errors.Is(err, registry.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", registry.ErrStorage, err)
}

// decodeBinding converts stored decimal text back into a binding
func decodeBinding(rawGuild, rawChannel string, updatedAt time.Time) (models.NotificationBinding, error) {
	guildID, err := models.ParseGuildID(rawGuild)
	if err != nil {
		return models.NotificationBinding{}, fmt.Errorf("%w: malformed guild id stored: %w", registry.ErrStorage, err)
	}
	channelID, err := models.ParseChannelID(rawChannel)
	if err != nil {
		return models.NotificationBinding{}, fmt.Errorf("%w: malformed channel id stored for guild %s: %w", registry.ErrStorage, guildID, err)
	}

	return models.NotificationBinding{
		GuildID:   guildID,
		ChannelID: channelID,
		UpdatedAt: updatedAt.UTC(),
	}, nil
}
