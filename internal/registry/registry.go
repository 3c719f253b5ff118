// Package registry owns the sensor collection: first-call seeding,
// the refresh-on-read cycle that stands in for a live feed, and
// operator mutations. All read-modify-persist sequences run under a
// single mutex so concurrent pollers never race on the snapshot.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
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

// storeKey is where the whole sensor collection lives in the store.
const storeKey = "sensors"

// DefaultAmplitude bounds the per-refresh perturbation when no
// amplitude is configured.
const DefaultAmplitude = 1.0

// Registry maintains the authoritative sensor collection.
type Registry struct {
	store     store.Store
	sink      events.Sink
	amplitude float64

	// now and randFloat are injectable for tests.
	now       func() time.Time
	randFloat func() float64

	// mu serializes every read-modify-persist sequence on the
	// collection, including the bulk refresh.
	mu sync.Mutex
}

// Config holds construction parameters for the registry.
type Config struct {
	Store store.Store
	Sink  events.Sink
	// Amplitude bounds the refresh perturbation; zero means
	// DefaultAmplitude.
	Amplitude float64
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
	// RandFloat overrides the perturbation source (tests). Must
	// return values in [0, 1). Defaults to math/rand.
	RandFloat func() float64
}

// New creates a registry over the given store.
func New(cfg Config) *Registry {
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = DefaultAmplitude
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Canonicalize timestamps so in-memory records compare equal to
	// their JSON round-tripped form (UTC, no monotonic reading).
	clock := cfg.Now
	cfg.Now = func() time.Time { return clock().UTC() }

	if cfg.RandFloat == nil {
		cfg.RandFloat = rand.Float64
	}

	if cfg.Sink == nil {
		cfg.Sink = events.NopSink{}
	}

	return &Registry{
		store:     cfg.Store,
		sink:      cfg.Sink,
		amplitude: cfg.Amplitude,
		now:       cfg.Now,
		randFloat: cfg.RandFloat,
	}
}

// List returns the current fleet after running a refresh cycle: every
// sensor's value is advanced by a bounded random delta and its
// freshness timestamp is stamped, then the whole collection is
// persisted as one write. Two consecutive calls therefore observe
// different values; callers must not assume idempotent reads.
func (r *Registry) List(ctx context.Context) ([]models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sensors, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	for i := range sensors {
		sensors[i].Value = r.perturb(sensors[i].Value)
		sensors[i].LastUpdate = now
	}

	if err := r.persist(ctx, sensors); err != nil {
		return nil, err
	}

	metrics.RefreshCyclesTotal.Inc()
	metrics.SensorsRefreshed.Observe(float64(len(sensors)))

	return sensors, nil
}

// Snapshot returns the fleet without advancing values. Plain lookup
// used where freshness simulation is not wanted (seeding still
// happens on first call).
func (r *Registry) Snapshot(ctx context.Context) ([]models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

// Add creates a sensor from the draft. Requires a caller identity;
// the registry assigns a fresh id, active status, and a freshness
// timestamp.
func (r *Registry) Add(ctx context.Context, identity *auth.Identity, draft models.SensorDraft) (*models.Sensor, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: add sensor requires a valid identity", models.ErrUnauthorized)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sensors, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	sensor := models.Sensor{
		ID:         uuid.NewString(),
		Name:       draft.Name,
		Type:       draft.Type,
		Location:   draft.Location,
		Value:      draft.Value,
		Unit:       draft.Unit,
		Status:     models.StatusActive,
		LastUpdate: r.now(),
	}

	sensors = append(sensors, sensor)
	if err := r.persist(ctx, sensors); err != nil {
		return nil, err
	}

	metrics.SensorsCreatedTotal.Inc()
	r.sink.Emit(events.ChangeEvent{
		Kind:     events.KindSensorAdded,
		EntityID: sensor.ID,
		Actor:    identity.ID,
		At:       sensor.LastUpdate,
		Payload:  sensor,
	})

	log := logger.WithComponent("registry")
	log.Info().
		Str("sensor_id", sensor.ID).
		Str("type", string(sensor.Type)).
		Str("actor", identity.ID).
		Msg("sensor added")

	return &sensor, nil
}

// Update merges the patch into the sensor with the given id. Patch
// fields win; the freshness timestamp is stamped.
func (r *Registry) Update(ctx context.Context, identity *auth.Identity, id string, patch models.SensorPatch) (*models.Sensor, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: update sensor requires a valid identity", models.ErrUnauthorized)
	}

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sensors, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range sensors {
		if sensors[i].ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, fmt.Errorf("%w: sensor %q", models.ErrNotFound, id)
	}

	patch.Apply(&sensors[idx])
	sensors[idx].LastUpdate = r.now()

	if err := r.persist(ctx, sensors); err != nil {
		return nil, err
	}

	updated := sensors[idx]

	metrics.SensorsUpdatedTotal.Inc()
	r.sink.Emit(events.ChangeEvent{
		Kind:     events.KindSensorUpdated,
		EntityID: updated.ID,
		Actor:    identity.ID,
		At:       updated.LastUpdate,
		Payload:  updated,
	})

	return &updated, nil
}

// perturb advances a reading by a delta drawn uniformly from
// [-amplitude, +amplitude], rounded to 2 decimal places. A non-finite
// result keeps the previous value.
func (r *Registry) perturb(value float64) float64 {
	delta := (r.randFloat()*2 - 1) * r.amplitude

	next := math.Round((value+delta)*100) / 100
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return value
	}

	return next
}

// load reads the collection, seeding the default fleet exactly once
// when the store has never held sensors.
func (r *Registry) load(ctx context.Context) ([]models.Sensor, error) {
	data, err := r.store.Get(ctx, storeKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return r.seed(ctx)
		}

		return nil, err
	}

	var sensors []models.Sensor
	if err := json.Unmarshal(data, &sensors); err != nil {
		return nil, fmt.Errorf("%w: corrupt sensor collection: %v", models.ErrStorage, err)
	}

	return sensors, nil
}

// persist writes the whole collection as one value.
func (r *Registry) persist(ctx context.Context, sensors []models.Sensor) error {
	data, err := json.Marshal(sensors)
	if err != nil {
		return fmt.Errorf("%w: encode sensor collection: %v", models.ErrStorage, err)
	}

	return r.store.Set(ctx, storeKey, data)
}

// seed writes the default fleet and returns it.
func (r *Registry) seed(ctx context.Context) ([]models.Sensor, error) {
	sensors := DefaultFleet(r.now())
	if err := r.persist(ctx, sensors); err != nil {
		return nil, err
	}

	log := logger.WithComponent("registry")
	log.Info().
		Int("count", len(sensors)).
		Msg("seeded default sensor fleet")

	return sensors, nil
}

// DefaultFleet is the fixed bootstrap fleet written on first contact
// with an empty store: six sensors spanning the common measurement
// types in the tunnel complex.
func DefaultFleet(now time.Time) []models.Sensor {
	return []models.Sensor{
		{
			ID:         "1",
			Name:       "Temperature Sensor A1",
			Type:       models.TypeTemperature,
			Location:   "Tunnel A - Section 1",
			Value:      24.5,
			Unit:       "°C",
			Status:     models.StatusActive,
			LastUpdate: now,
		},
		{
			ID:         "2",
			Name:       "Gas Detector B2",
			Type:       models.TypeGas,
			Location:   "Tunnel B - Section 2",
			Value:      0.02,
			Unit:       "ppm",
			Status:     models.StatusActive,
			LastUpdate: now,
		},
		{
			ID:         "3",
			Name:       "Pressure Monitor C1",
			Type:       models.TypePressure,
			Location:   "Main Shaft",
			Value:      101.3,
			Unit:       "kPa",
			Status:     models.StatusWarning,
			LastUpdate: now,
		},
		{
			ID:         "4",
			Name:       "Vibration Sensor D1",
			Type:       models.TypeVibration,
			Location:   "Equipment Bay 1",
			Value:      2.1,
			Unit:       "mm/s",
			Status:     models.StatusActive,
			LastUpdate: now,
		},
		{
			ID:         "5",
			Name:       "Air Quality Monitor E1",
			Type:       models.TypeAirQuality,
			Location:   "Ventilation Shaft",
			Value:      85,
			Unit:       "AQI",
			Status:     models.StatusActive,
			LastUpdate: now,
		},
		{
			ID:         "6",
			Name:       "Water Level Sensor F1",
			Type:       models.TypeWaterLevel,
			Location:   "Sump Area",
			Value:      1.2,
			Unit:       "m",
			Status:     models.StatusCritical,
			LastUpdate: now,
		},
	}
}
