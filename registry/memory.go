package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"absbot/models"
)

// Memory is a volatile Registry; bindings live for the process lifetime
type Memory struct {
	mu       sync.RWMutex
	bindings map[models.GuildID]models.NotificationBinding
	now      func() time.Time
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{
		bindings: make(map[models.GuildID]models.NotificationBinding),
		now:      time.Now,
	}
}

// Get returns the channel bound to guild
func (m *Memory) Get(ctx context.Context, guild models.GuildID) (models.ChannelID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bindings[guild]
	if !ok {
		return 0, ErrNotFound
	}
	return b.ChannelID, nil
}

// Set replaces the binding for guild
func (m *Memory) Set(ctx context.Context, guild models.GuildID, channel models.ChannelID) error {
	if !channel.Valid() {
		return ErrInvalidChannel
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bindings[guild] = models.NotificationBinding{
		GuildID:   guild,
		ChannelID: channel,
		UpdatedAt: m.now().UTC(),
	}
	return nil
}

// List returns a snapshot of all bindings ordered by guild id
func (m *Memory) List(ctx context.Context) ([]models.NotificationBinding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]models.NotificationBinding, 0, len(m.bindings))
	for _, b := range m.bindings {
		out = append(out, b)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}
