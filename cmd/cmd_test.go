package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"absbot/config"
	"absbot/events"
	"absbot/models"
	"absbot/registry"
	"absbot/repository"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	cfg := config.NewTestConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	require.NoError(t, ConfigureLogging(cfg))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "loud"
	assert.ErrorContains(t, ConfigureLogging(cfg), "invalid LOG_LEVEL")

	cfg.LogLevel = "info"
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, ConfigureLogging(cfg), "invalid LOG_FORMAT")
}

func TestOpenRegistry_Memory(t *testing.T) {
	reg, closeFn, err := openRegistry(context.Background(), config.NewTestConfig())
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &registry.Memory{}, reg)
}

func TestOpenRegistry_SQLiteMigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()
	cfg.StorageDriver = "sqlite"
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "channels.db")

	reg, closeFn, err := openRegistry(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &repository.SQLiteNotifyChannelRepository{}, reg)
	require.NoError(t, reg.Set(ctx, 1001, 555))
	closeFn()

	// Reopening runs migrations again and finds the binding
	reg, closeFn, err = openRegistry(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()

	got, err := reg.Get(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelID(555), got)
}

func TestOpenRegistry_UnknownDriver(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.StorageDriver = "mongo"

	_, _, err := openRegistry(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestWaitForHandlers_Timeout(t *testing.T) {
	bus := events.NewBus()
	release := make(chan struct{})
	bus.Subscribe(events.EventTypeMemberLeft, func(context.Context, events.Event) { <-release })
	bus.Emit(context.Background(), events.MemberLeftEvent{GuildID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	waitForHandlers(ctx, bus)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	bus.Wait()
}

func TestWaitForHandlers_ClosesBus(t *testing.T) {
	bus := events.NewBus()
	calls := 0
	bus.Subscribe(events.EventTypeMemberLeft, func(context.Context, events.Event) { calls++ })

	waitForHandlers(context.Background(), bus)
	bus.Emit(context.Background(), events.MemberLeftEvent{GuildID: 1})
	bus.Wait()

	assert.Zero(t, calls)
}

func TestScheduleAudit_RejectsBadSchedule(t *testing.T) {
	c, err := scheduleAudit(context.Background(), "every tuesday", nil)
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "invalid audit schedule")
}
