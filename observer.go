package modscan

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// ObserverFunc receives the CloudEvents a builder emits. Errors are logged
// at Debug and never fail a build.
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// EventSource is the CloudEvents source of every builder event.
const EventSource = "modscan/builder"

// Event types emitted by builders, in reverse domain notation.
const (
	EventTypeModuleDiscovered    = "com.modscan.module.discovered"
	EventTypeRegistrationApplied = "com.modscan.registration.applied"
	EventTypeRegistrationSkipped = "com.modscan.registration.skipped"
	EventTypeRegistrationDropped = "com.modscan.registration.dropped"
	EventTypeContainerBuilt      = "com.modscan.container.built"
)

// NewCloudEvent creates a CloudEvent with a time-ordered id and JSON data.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for key, value := range metadata {
		event.SetExtension(key, value)
	}
	return event
}

// generateEventID returns a UUIDv7, falling back to v4.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates an event against the CloudEvents spec.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

func (b *Builder) emit(ctx context.Context, eventType string, data map[string]any) {
	if len(b.observers) == 0 {
		return
	}
	event := NewCloudEvent(eventType, EventSource, data, nil)
	for _, observer := range b.observers {
		if err := observer(ctx, event); err != nil {
			b.logger.Debug("Observer failed", "eventType", eventType, "error", err)
		}
	}
}
