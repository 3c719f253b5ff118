// Package ledger owns the alert collection: first-call seeding,
// raising, and write-once acknowledgment. Like the sensor registry it
// serializes read-modify-persist sequences under one mutex, locking
// independently of the sensor collection.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"minewatch/internal/auth"
	"minewatch/internal/events"
	"minewatch/internal/logger"
	"minewatch/internal/metrics"
	"minewatch/internal/models"
	"minewatch/internal/store"
)

// storeKey is where the whole alert collection lives in the store.
const storeKey = "alerts"

// Ledger maintains the alert collection.
type Ledger struct {
	store store.Store
	sink  events.Sink
	now   func() time.Time

	mu sync.Mutex
}

// Config holds construction parameters for the ledger.
type Config struct {
	Store store.Store
	Sink  events.Sink
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
}

// New creates a ledger over the given store.
func New(cfg Config) *Ledger {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Canonicalize timestamps so in-memory records compare equal to
	// their JSON round-tripped form (UTC, no monotonic reading).
	clock := cfg.Now
	cfg.Now = func() time.Time { return clock().UTC() }

	if cfg.Sink == nil {
		cfg.Sink = events.NopSink{}
	}

	return &Ledger{
		store: cfg.Store,
		sink:  cfg.Sink,
		now:   cfg.Now,
	}
}

// List returns all alerts, seeding the default set on the first call
// against an empty store.
func (l *Ledger) List(ctx context.Context) ([]models.Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(ctx)
}

// Raise appends a new unacknowledged alert. The ledger imposes no
// trigger rules; it only records what callers report.
func (l *Ledger) Raise(ctx context.Context, identity *auth.Identity, draft models.AlertDraft) (*models.Alert, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: raising an alert requires a valid identity", models.ErrUnauthorized)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	alerts, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	alert := models.Alert{
		ID:        uuid.NewString(),
		Severity:  draft.Severity,
		Message:   draft.Message,
		Sensor:    draft.Sensor,
		Timestamp: l.now(),
	}
	if alert.Sensor == "" {
		alert.Sensor = "System"
	}

	alerts = append(alerts, alert)
	if err := l.persist(ctx, alerts); err != nil {
		return nil, err
	}

	metrics.AlertsRaisedTotal.WithLabelValues(string(alert.Severity)).Inc()
	l.sink.Emit(events.ChangeEvent{
		Kind:     events.KindAlertRaised,
		EntityID: alert.ID,
		Actor:    identity.ID,
		At:       alert.Timestamp,
		Payload:  alert,
	})

	log := logger.WithComponent("ledger")
	log.Info().
		Str("alert_id", alert.ID).
		Str("severity", string(alert.Severity)).
		Msg("alert raised")

	return &alert, nil
}

// Acknowledge marks the alert as acknowledged by the caller.
// Acknowledgment is write-once: a second acknowledgment is a no-op
// returning the stored record, preserving the original actor and
// time.
func (l *Ledger) Acknowledge(ctx context.Context, identity *auth.Identity, id string) (*models.Alert, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: acknowledging an alert requires a valid identity", models.ErrUnauthorized)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	alerts, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range alerts {
		if alerts[i].ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, fmt.Errorf("%w: alert %q", models.ErrNotFound, id)
	}

	if alerts[idx].Acknowledged {
		existing := alerts[idx]
		return &existing, nil
	}

	now := l.now()
	alerts[idx].Acknowledged = true
	alerts[idx].AcknowledgedBy = identity.ID
	alerts[idx].AcknowledgedAt = &now

	if err := l.persist(ctx, alerts); err != nil {
		return nil, err
	}

	acked := alerts[idx]

	metrics.AlertsAcknowledgedTotal.Inc()
	l.sink.Emit(events.ChangeEvent{
		Kind:     events.KindAlertAcknowledged,
		EntityID: acked.ID,
		Actor:    identity.ID,
		At:       now,
		Payload:  acked,
	})

	log := logger.WithComponent("ledger")
	log.Info().
		Str("alert_id", acked.ID).
		Str("actor", identity.ID).
		Msg("alert acknowledged")

	return &acked, nil
}

// load reads the collection, seeding the default alerts exactly once
// when the store has never held alerts.
func (l *Ledger) load(ctx context.Context) ([]models.Alert, error) {
	data, err := l.store.Get(ctx, storeKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return l.seed(ctx)
		}

		return nil, err
	}

	var alerts []models.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("%w: corrupt alert collection: %v", models.ErrStorage, err)
	}

	return alerts, nil
}

// persist writes the whole collection as one value.
func (l *Ledger) persist(ctx context.Context, alerts []models.Alert) error {
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("%w: encode alert collection: %v", models.ErrStorage, err)
	}

	return l.store.Set(ctx, storeKey, data)
}

// seed writes the default alert set and returns it.
func (l *Ledger) seed(ctx context.Context) ([]models.Alert, error) {
	alerts := DefaultAlerts(l.now())
	if err := l.persist(ctx, alerts); err != nil {
		return nil, err
	}

	log := logger.WithComponent("ledger")
	log.Info().
		Int("count", len(alerts)).
		Msg("seeded default alerts")

	return alerts, nil
}

// DefaultAlerts is the fixed bootstrap set written on first contact
// with an empty store. The third entry is pre-acknowledged by the
// system itself.
func DefaultAlerts(now time.Time) []models.Alert {
	ackedAt := now.Add(-15 * time.Minute)

	return []models.Alert{
		{
			ID:        "1",
			Severity:  models.SeverityCritical,
			Message:   "Water level critically high in Sump Area",
			Sensor:    "Water Level Sensor F1",
			Timestamp: now.Add(-5 * time.Minute),
		},
		{
			ID:        "2",
			Severity:  models.SeverityWarning,
			Message:   "Pressure reading above normal threshold",
			Sensor:    "Pressure Monitor C1",
			Timestamp: now.Add(-10 * time.Minute),
		},
		{
			ID:             "3",
			Severity:       models.SeverityInfo,
			Message:        "Routine maintenance scheduled for Equipment Bay 1",
			Sensor:         "System",
			Timestamp:      now.Add(-15 * time.Minute),
			Acknowledged:   true,
			AcknowledgedBy: "system",
			AcknowledgedAt: &ackedAt,
		},
	}
}
