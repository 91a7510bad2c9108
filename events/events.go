package events

import (
	"context"
	"sync"
	"time"

	"absbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMemberLeft       EventType = "member_left"
	EventTypeNotifyChannelSet EventType = "notify_channel_set"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Guild() models.GuildID
}

// MemberLeftEvent is raised when a member leaves (or is removed from) a guild
type MemberLeftEvent struct {
	GuildID     models.GuildID `json:"guild_id,string"`
	UserID      models.UserID  `json:"user_id,string"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func (e MemberLeftEvent) Type() EventType {
	return EventTypeMemberLeft
}

func (e MemberLeftEvent) Guild() models.GuildID {
	return e.GuildID
}

// NotifyChannelSetEvent is raised after a notification channel binding is committed
type NotifyChannelSetEvent struct {
	GuildID    models.GuildID   `json:"guild_id,string"`
	ChannelID  models.ChannelID `json:"channel_id,string"`
	SetBy      models.UserID    `json:"set_by,string"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func (e NotifyChannelSetEvent) Type() EventType {
	return EventTypeNotifyChannelSet
}

func (e NotifyChannelSetEvent) Guild() models.GuildID {
	return e.GuildID
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Publisher is the narrow interface producers depend on
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
	closed   bool
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit dispatches an event to all registered handlers. Each handler runs on
// its own goroutine; a panicking handler is logged and does not affect others.
// Events emitted after Close are dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"guild_id":  event.Guild(),
		}).Debug("Event bus closed, dropping event")
		return
	}
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.inflight.Add(len(handlers))
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"guild_id":     event.Guild(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"guild_id":     event.Guild(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Close stops the bus from accepting new events. Handlers already started
// keep running; use Wait to block on them.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}
