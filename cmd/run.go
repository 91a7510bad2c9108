package cmd

import (
	"context"
	"fmt"
	"time"

	"absbot/bot"
	"absbot/config"
	"absbot/events"
	"absbot/infrastructure"
	"absbot/infrastructure/observability"
	"absbot/registry"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 10 * time.Second
	auditTimeout    = 5 * time.Minute
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
		"config_file": cfg.ConfigFile,
	}).Info("Starting absbot...")

	// Storage and schema come first; failure here is fatal
	store, closeStore, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	reg := registry.WithMetrics(registry.WithTimeout(store, cfg.CallTimeout), metrics)

	// Initialize event bus
	eventBus := events.NewBus()

	// Optional NATS forwarding
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient, err = connectNATS(ctx, cfg.NATSServers)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, events will not be forwarded")
		} else {
			infrastructure.NewEventForwarder(natsClient, metrics).Register(eventBus)
		}
	}

	// Initialize Discord bot
	log.Info("Connecting to Discord...")
	discordBot, err := bot.New(bot.Config{
		Token:          cfg.DiscordToken,
		CallTimeout:    cfg.CallTimeout,
		SendRatePerSec: cfg.SendRatePerSec,
	}, reg, eventBus, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	var debugAPI *bot.DebugAPI
	if cfg.DebugAPIAddr != "" {
		debugAPI = bot.NewDebugAPI(cfg.DebugAPIAddr, reg, discordBot.Guilds)
		debugAPI.Start()
	}

	var scheduler *cron.Cron
	if cfg.AuditSchedule != "" {
		scheduler, err = scheduleAudit(ctx, cfg.AuditSchedule, discordBot)
		if err != nil {
			log.WithError(err).Warn("Binding audit not scheduled")
		}
	}

	if cfg.ConfigFile != "" {
		go func() {
			err := config.Watch(ctx, cfg.ConfigFile, func(next *config.Config) {
				if err := ConfigureLogging(next); err != nil {
					log.WithError(err).Warn("Ignoring reloaded logging settings")
				}
			})
			if err != nil {
				log.WithError(err).Warn("Config file watcher stopped")
			}
		}()
	}

	log.Info("Bot is running")
	<-ctx.Done()

	log.Info("Shutting down bot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord session")
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	waitForHandlers(shutdownCtx, eventBus)

	if debugAPI != nil {
		if err := debugAPI.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down debug API")
		}
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	log.Info("Shutdown completed")
	return nil
}

// scheduleAudit runs the stale binding audit on a cron schedule
func scheduleAudit(ctx context.Context, schedule string, b *bot.Bot) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		auditCtx, cancel := context.WithTimeout(ctx, auditTimeout)
		defer cancel()

		if _, err := b.AuditBindings(auditCtx); err != nil {
			log.WithError(err).Warn("Binding audit failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}

	c.Start()
	log.WithField("schedule", schedule).Info("Binding audit scheduled")
	return c, nil
}

func connectNATS(ctx context.Context, servers string) (*infrastructure.NATSClient, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := infrastructure.NewNATSClient(servers)
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}
	if err := client.EnsureStream(infrastructure.EventStreamName, infrastructure.StreamSubjects()); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// waitForHandlers closes bus and lets in-flight event handlers finish,
// bounded by ctx
func waitForHandlers(ctx context.Context, bus *events.Bus) {
	bus.Close()

	done := make(chan struct{})
	go func() {
		bus.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Shutdown timeout exceeded while waiting for event handlers")
	}
}
