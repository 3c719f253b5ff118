package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SensorType classifies what a sensor measures.
type SensorType string

const (
	TypeTemperature SensorType = "temperature"
	TypePressure    SensorType = "pressure"
	TypeGas         SensorType = "gas"
	TypeVibration   SensorType = "vibration"
	TypeAirQuality  SensorType = "air_quality"
	TypeWaterLevel  SensorType = "water_level"
	TypeHumidity    SensorType = "humidity"
	TypeNoise       SensorType = "noise"
)

// SensorStatus is the operational status set by operators. It is not
// derived from the reading; operators control it explicitly.
type SensorStatus string

const (
	StatusActive   SensorStatus = "active"
	StatusWarning  SensorStatus = "warning"
	StatusCritical SensorStatus = "critical"
	StatusOffline  SensorStatus = "offline"
)

// Sensor is a monitored measurement point with its latest reading.
// JSON field names follow the dashboard contract.
type Sensor struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       SensorType   `json:"type"`
	Location   string       `json:"location"`
	Value      float64      `json:"value"`
	Unit       string       `json:"unit"`
	Status     SensorStatus `json:"status"`
	LastUpdate time.Time    `json:"lastUpdate"`
}

// SensorDraft is the payload for creating a sensor. The registry
// assigns id, status, and lastUpdate.
type SensorDraft struct {
	Name     string     `json:"name"`
	Type     SensorType `json:"type"`
	Location string     `json:"location"`
	Unit     string     `json:"unit"`
	Value    float64    `json:"value"`
}

// SensorPatch is a typed partial update. Nil fields are left
// untouched; set fields win over the stored record.
type SensorPatch struct {
	Name     *string       `json:"name,omitempty"`
	Type     *SensorType   `json:"type,omitempty"`
	Location *string       `json:"location,omitempty"`
	Unit     *string       `json:"unit,omitempty"`
	Value    *float64      `json:"value,omitempty"`
	Status   *SensorStatus `json:"status,omitempty"`
}

// IsValid checks if the sensor type is one of the known enumeration values.
func (t SensorType) IsValid() bool {
	switch t {
	case TypeTemperature, TypePressure, TypeGas, TypeVibration,
		TypeAirQuality, TypeWaterLevel, TypeHumidity, TypeNoise:
		return true
	default:
		return false
	}
}

// IsValid checks if the status is one of the known enumeration values.
func (s SensorStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusWarning, StatusCritical, StatusOffline:
		return true
	default:
		return false
	}
}

// Normalize trims display fields and lower-cases the type.
func (d *SensorDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Location = strings.TrimSpace(d.Location)
	d.Unit = strings.TrimSpace(d.Unit)
	d.Type = SensorType(strings.ToLower(strings.TrimSpace(string(d.Type))))
}

// Validate checks the draft has the required display fields, a known
// type, and a finite value.
func (d *SensorDraft) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	if d.Location == "" {
		return fmt.Errorf("%w: location cannot be empty", ErrValidation)
	}

	if !d.Type.IsValid() {
		return fmt.Errorf("%w: unknown sensor type %q", ErrValidation, d.Type)
	}

	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return fmt.Errorf("%w: value must be finite", ErrValidation)
	}

	return nil
}

// Validate checks every set field of the patch.
func (p *SensorPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	if p.Location != nil && strings.TrimSpace(*p.Location) == "" {
		return fmt.Errorf("%w: location cannot be empty", ErrValidation)
	}

	if p.Type != nil && !p.Type.IsValid() {
		return fmt.Errorf("%w: unknown sensor type %q", ErrValidation, *p.Type)
	}

	if p.Status != nil && !p.Status.IsValid() {
		return fmt.Errorf("%w: unknown sensor status %q", ErrValidation, *p.Status)
	}

	if p.Value != nil && (math.IsNaN(*p.Value) || math.IsInf(*p.Value, 0)) {
		return fmt.Errorf("%w: value must be finite", ErrValidation)
	}

	return nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *SensorPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Location == nil &&
		p.Unit == nil && p.Value == nil && p.Status == nil
}

// Apply merges the patch into the sensor. Patch fields win.
func (p *SensorPatch) Apply(s *Sensor) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Location != nil {
		s.Location = *p.Location
	}
	if p.Unit != nil {
		s.Unit = *p.Unit
	}
	if p.Value != nil {
		s.Value = *p.Value
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}
