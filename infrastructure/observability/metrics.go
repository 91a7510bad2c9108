package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"absbot/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

const (
	serviceName    = "absbot"
	exportInterval = 30 * time.Second
)

// MetricsProvider manages OpenTelemetry metrics for the bot
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	commandsCounter      metric.Int64Counter
	departuresCounter    metric.Int64Counter
	natsPublishedCounter metric.Int64Counter
	registryCallsCounter metric.Int64Counter
	registryCallDuration metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider. With OTEL_ENABLED
// unset every Record call is a no-op. Without an OTLP endpoint metrics are
// written to stdout.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	if mp.config.OTelEndpoint == "" {
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")
	} else {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelEndpoint).Info("Using OTLP metric exporter")
	}

	return mp.install(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)))
}

// install builds the meter provider around reader. Callers hold mp.mu.
func (mp *MetricsProvider) install(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(serviceName)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.commandsCounter, err = mp.meter.Int64Counter(
		CommandsTotal,
		metric.WithDescription("Configuration commands processed, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create commands counter: %w", err)
	}

	mp.departuresCounter, err = mp.meter.Int64Counter(
		DeparturesTotal,
		metric.WithDescription("Member departures handled, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create departures counter: %w", err)
	}

	mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Events forwarded to NATS"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS published counter: %w", err)
	}

	mp.registryCallsCounter, err = mp.meter.Int64Counter(
		RegistryCallsTotal,
		metric.WithDescription("Registry calls, by method and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create registry calls counter: %w", err)
	}

	mp.registryCallDuration, err = mp.meter.Float64Histogram(
		RegistryCallDuration,
		metric.WithDescription("Duration of registry calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create registry call duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordCommandOutcome counts one processed configuration command
func (mp *MetricsProvider) RecordCommandOutcome(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.commandsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordDepartureOutcome counts one handled member departure
func (mp *MetricsProvider) RecordDepartureOutcome(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.departuresCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordNATSMessagePublished records an event forwarded to NATS
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordRegistryCall records a registry call with its duration
func (mp *MetricsProvider) RecordRegistryCall(method, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelMethod, method),
		attribute.String(LabelOutcome, outcome),
	)

	mp.registryCallsCounter.Add(context.Background(), 1, attrs)
	mp.registryCallDuration.Record(context.Background(), duration.Seconds(), attrs)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}
