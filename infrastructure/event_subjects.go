package infrastructure

import (
	"fmt"

	"absbot/events"
)

// Stream and subject layout for forwarded events
const (
	EventStreamName = "notifier_events"
	SubjectRoot     = "notifier"
)

// SubjectFor maps an event to notifier.<event type>.<guild id>
func SubjectFor(event events.Event) string {
	return fmt.Sprintf("%s.%s.%s", SubjectRoot, event.Type(), event.Guild())
}

// StreamSubjects returns the subjects captured by the event stream
func StreamSubjects() []string {
	return []string{SubjectRoot + ".>"}
}
