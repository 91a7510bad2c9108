package testhelpers

import (
	"context"

	"absbot/bot/features/notify"
	"absbot/events"
	"absbot/models"

	"github.com/stretchr/testify/mock"
)

// MockRegistry is a mock implementation of registry.Registry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Get(ctx context.Context, guild models.GuildID) (models.ChannelID, error) {
	args := m.Called(ctx, guild)
	return args.Get(0).(models.ChannelID), args.Error(1)
}

func (m *MockRegistry) Set(ctx context.Context, guild models.GuildID, channel models.ChannelID) error {
	args := m.Called(ctx, guild, channel)
	return args.Error(0)
}

// MockPlatform is a mock implementation of notify.Platform
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) Send(ctx context.Context, channel models.ChannelID, content string) error {
	args := m.Called(ctx, channel, content)
	return args.Error(0)
}

func (m *MockPlatform) Reply(ctx context.Context, msg *notify.IncomingMessage, content string) error {
	args := m.Called(ctx, msg, content)
	return args.Error(0)
}

func (m *MockPlatform) GuildChannels(ctx context.Context, guild models.GuildID) ([]models.ChannelID, error) {
	args := m.Called(ctx, guild)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChannelID), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Emit(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}

// MockRecorder is a mock implementation of notify.Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordCommandOutcome(outcome string) {
	m.Called(outcome)
}

func (m *MockRecorder) RecordDepartureOutcome(outcome string) {
	m.Called(outcome)
}
