package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"minewatch/internal/auth"
	"minewatch/internal/events"
	"minewatch/internal/models"
	"minewatch/internal/store"
)

// captureSink records emitted events for assertions.
type captureSink struct {
	emitted []events.ChangeEvent
}

func (c *captureSink) Emit(e events.ChangeEvent)   { c.emitted = append(c.emitted, e) }
func (c *captureSink) Close(context.Context) error { return nil }

var testIdentity = &auth.Identity{ID: "u1", Email: "u1@example.com"}

func newTestLedger(t *testing.T, opts ...func(*Config)) (*Ledger, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	cfg := Config{Store: mem}

	for _, opt := range opts {
		opt(&cfg)
	}

	return New(cfg), mem
}

func TestList_SeedsDefaultAlertsOnce(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	require.Equal(t, models.SeverityCritical, first[0].Severity)
	require.False(t, first[0].Acknowledged)
	require.Equal(t, models.SeverityWarning, first[1].Severity)
	require.False(t, first[1].Acknowledged)

	// The third seed is pre-acknowledged by the system.
	require.True(t, first[2].Acknowledged)
	require.Equal(t, "system", first[2].AcknowledgedBy)
	require.NotNil(t, first[2].AcknowledgedAt)

	second, err := led.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second, "second list must see the seeded data, not a re-seed")
}

func TestAcknowledge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	led, _ := newTestLedger(t, func(c *Config) {
		c.Now = func() time.Time { return now }
	})
	ctx := context.Background()

	_, err := led.List(ctx)
	require.NoError(t, err)

	alert, err := led.Acknowledge(ctx, testIdentity, "1")
	require.NoError(t, err)
	require.True(t, alert.Acknowledged)
	require.Equal(t, "u1", alert.AcknowledgedBy)
	require.NotNil(t, alert.AcknowledgedAt)
	require.Equal(t, now, *alert.AcknowledgedAt)

	// Persisted, not just returned.
	alerts, err := led.List(ctx)
	require.NoError(t, err)
	require.True(t, alerts[0].Acknowledged)
	require.Equal(t, "u1", alerts[0].AcknowledgedBy)
}

func TestAcknowledge_WriteOnce(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := led.Acknowledge(ctx, testIdentity, "2")
	require.NoError(t, err)
	require.Equal(t, "u1", first.AcknowledgedBy)

	// A second actor's acknowledgment is a no-op: the original
	// acknowledger and time are preserved.
	other := &auth.Identity{ID: "u2"}
	second, err := led.Acknowledge(ctx, other, "2")
	require.NoError(t, err)
	require.True(t, second.Acknowledged)
	require.Equal(t, "u1", second.AcknowledgedBy)
	require.Equal(t, first.AcknowledgedAt, second.AcknowledgedAt)
}

func TestAcknowledge_NotFound(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)

	_, err := led.Acknowledge(context.Background(), testIdentity, "999")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcknowledge_Unauthorized(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)
	ctx := context.Background()

	before, err := led.List(ctx)
	require.NoError(t, err)

	_, err = led.Acknowledge(ctx, nil, "1")
	require.ErrorIs(t, err, models.ErrUnauthorized)

	after, err := led.List(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after, "rejected acknowledgment must not mutate stored state")
}

func TestRaise(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)
	ctx := context.Background()

	alert, err := led.Raise(ctx, testIdentity, models.AlertDraft{
		Severity: models.SeverityWarning,
		Message:  "Vibration trending upward",
		Sensor:   "Vibration Sensor D1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, alert.ID)
	require.False(t, alert.Acknowledged)
	require.Empty(t, alert.AcknowledgedBy)
	require.Nil(t, alert.AcknowledgedAt)

	alerts, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 4)
}

func TestRaise_DefaultsSensorToSystem(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)

	alert, err := led.Raise(context.Background(), testIdentity, models.AlertDraft{
		Severity: models.SeverityInfo,
		Message:  "Shift change",
	})
	require.NoError(t, err)
	require.Equal(t, "System", alert.Sensor)
}

func TestRaise_Rejections(t *testing.T) {
	t.Parallel()

	led, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := led.Raise(ctx, nil, models.AlertDraft{Severity: models.SeverityInfo, Message: "x"})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = led.Raise(ctx, testIdentity, models.AlertDraft{Severity: "meh", Message: "x"})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestMutationsEmitChangeEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	led, _ := newTestLedger(t, func(c *Config) { c.Sink = sink })
	ctx := context.Background()

	raised, err := led.Raise(ctx, testIdentity, models.AlertDraft{
		Severity: models.SeverityInfo,
		Message:  "Ventilation fan serviced",
	})
	require.NoError(t, err)

	_, err = led.Acknowledge(ctx, testIdentity, raised.ID)
	require.NoError(t, err)

	require.Len(t, sink.emitted, 2)
	require.Equal(t, events.KindAlertRaised, sink.emitted[0].Kind)
	require.Equal(t, events.KindAlertAcknowledged, sink.emitted[1].Kind)
	require.Equal(t, raised.ID, sink.emitted[1].EntityID)

	// A repeated acknowledgment is a no-op and emits nothing.
	_, err = led.Acknowledge(ctx, &auth.Identity{ID: "u2"}, raised.ID)
	require.NoError(t, err)
	require.Len(t, sink.emitted, 2)
}

func TestList_StorageErrorPropagates(t *testing.T) {
	t.Parallel()

	led, mem := newTestLedger(t)
	ctx := context.Background()

	mem.FailNext(1)

	_, err := led.List(ctx)
	require.ErrorIs(t, err, models.ErrStorage)
}

func TestList_CorruptPayloadIsStorageError(t *testing.T) {
	t.Parallel()

	led, mem := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "alerts", []byte("not json")))

	_, err := led.List(ctx)
	require.ErrorIs(t, err, models.ErrStorage)
}
