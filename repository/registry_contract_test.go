package repository

import (
	"context"
	"math"
	"sync"
	"testing"

	"absbot/models"
	"absbot/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRegistryContract exercises behaviour every durable registry must share
func runRegistryContract(t *testing.T, r registry.Registry) {
	ctx := context.Background()

	t.Run("unbound guild is not found", func(t *testing.T) {
		channel, err := r.Get(ctx, 1000)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.Zero(t, channel)
	})

	t.Run("last sequential set wins", func(t *testing.T) {
		require.NoError(t, r.Set(ctx, 2000, 555))
		require.NoError(t, r.Set(ctx, 2000, 777))

		got, err := r.Get(ctx, 2000)
		require.NoError(t, err)
		assert.Equal(t, models.ChannelID(777), got)
	})

	t.Run("zero channel rejected and prior binding kept", func(t *testing.T) {
		require.NoError(t, r.Set(ctx, 3000, 31))
		assert.ErrorIs(t, r.Set(ctx, 3000, 0), registry.ErrInvalidChannel)

		got, err := r.Get(ctx, 3000)
		require.NoError(t, err)
		assert.Equal(t, models.ChannelID(31), got)
	})

	t.Run("full unsigned range round-trips", func(t *testing.T) {
		guild := models.GuildID(math.MaxUint64)
		channel := models.ChannelID(uint64(math.MaxInt64) + 1)

		require.NoError(t, r.Set(ctx, guild, channel))
		got, err := r.Get(ctx, guild)
		require.NoError(t, err)
		assert.Equal(t, channel, got)
	})

	t.Run("concurrent sets leave one of the inputs", func(t *testing.T) {
		const guild = models.GuildID(4000)
		candidates := []models.ChannelID{4001, 4002, 4003, 4004}

		var wg sync.WaitGroup
		for _, c := range candidates {
			wg.Add(1)
			go func(c models.ChannelID) {
				defer wg.Done()
				assert.NoError(t, r.Set(ctx, guild, c))
			}(c)
		}
		wg.Wait()

		got, err := r.Get(ctx, guild)
		require.NoError(t, err)
		assert.Contains(t, candidates, got)
	})

	t.Run("list returns one binding per guild", func(t *testing.T) {
		lister, ok := r.(registry.Lister)
		require.True(t, ok)

		bindings, err := lister.List(ctx)
		require.NoError(t, err)

		seen := make(map[models.GuildID]bool)
		for _, b := range bindings {
			assert.False(t, seen[b.GuildID], "duplicate binding for guild %s", b.GuildID)
			seen[b.GuildID] = true
			assert.True(t, b.ChannelID.Valid())
			assert.False(t, b.UpdatedAt.IsZero())
		}
		assert.True(t, seen[2000])
		assert.True(t, seen[models.GuildID(math.MaxUint64)])
	})
}
