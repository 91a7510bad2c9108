package observability

// Metric name prefixes
const (
	MetricPrefix = "absbot"
)

// Metric names
const (
	CommandsTotal   = MetricPrefix + ".commands.total"
	DeparturesTotal = MetricPrefix + ".departures.total"

	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	RegistryCallsTotal   = MetricPrefix + ".registry.calls_total"
	RegistryCallDuration = MetricPrefix + ".registry.call_duration"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
	LabelMethod    = "method"
)
