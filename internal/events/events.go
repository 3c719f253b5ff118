// Package events publishes change events for every mutation the
// engine applies (sensor added/updated, alert raised/acknowledged).
// This is a backend audit stream for downstream consumers; it is not
// a push channel to dashboard clients, which poll.
package events

import (
	"context"
	"time"
)

// Kind identifies what changed.
type Kind string

const (
	KindSensorAdded       Kind = "sensor_added"
	KindSensorUpdated     Kind = "sensor_updated"
	KindAlertRaised       Kind = "alert_raised"
	KindAlertAcknowledged Kind = "alert_acknowledged"
)

// ChangeEvent describes one applied mutation.
type ChangeEvent struct {
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entity_id"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
	Payload  any       `json:"payload,omitempty"`
}

// Sink accepts change events. Implementations must not block the
// caller: the engine's critical sections run on the request path.
type Sink interface {
	Emit(event ChangeEvent)
	Close(ctx context.Context) error
}

// NopSink discards all events. It is the default when no event
// transport is configured.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(ChangeEvent) {}

// Close is a no-op.
func (NopSink) Close(context.Context) error { return nil }
