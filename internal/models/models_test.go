package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSensorDraftValidate(t *testing.T) {
	t.Parallel()

	draft := SensorDraft{
		Name:     "  Temp X1  ",
		Type:     " Temperature ",
		Location: "Tunnel C",
		Unit:     "°C",
		Value:    20,
	}

	draft.Normalize()

	require.NoError(t, draft.Validate())
	require.Equal(t, "Temp X1", draft.Name)
	require.Equal(t, TypeTemperature, draft.Type)
}

func TestSensorDraftValidate_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		draft SensorDraft
	}{
		{"empty name", SensorDraft{Type: TypeGas, Location: "L1"}},
		{"empty location", SensorDraft{Name: "X", Type: TypeGas}},
		{"unknown type", SensorDraft{Name: "X", Type: "plasma", Location: "L1"}},
		{"nan value", SensorDraft{Name: "X", Type: TypeGas, Location: "L1", Value: math.NaN()}},
		{"inf value", SensorDraft{Name: "X", Type: TypeGas, Location: "L1", Value: math.Inf(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSensorPatchApply(t *testing.T) {
	t.Parallel()

	sensor := Sensor{
		ID:       "1",
		Name:     "Old Name",
		Type:     TypeTemperature,
		Location: "Tunnel A",
		Value:    24.5,
		Unit:     "°C",
		Status:   StatusActive,
	}

	name := "New Name"
	status := StatusOffline
	value := 30.0
	patch := SensorPatch{Name: &name, Status: &status, Value: &value}

	require.NoError(t, patch.Validate())
	patch.Apply(&sensor)

	// Patch fields win, unset fields stay.
	require.Equal(t, "New Name", sensor.Name)
	require.Equal(t, StatusOffline, sensor.Status)
	require.Equal(t, 30.0, sensor.Value)
	require.Equal(t, TypeTemperature, sensor.Type)
	require.Equal(t, "Tunnel A", sensor.Location)
	require.Equal(t, "°C", sensor.Unit)
}

func TestSensorPatchValidate_Rejections(t *testing.T) {
	t.Parallel()

	empty := "   "
	badType := SensorType("plasma")
	badStatus := SensorStatus("broken")
	nan := math.NaN()

	cases := []struct {
		name  string
		patch SensorPatch
	}{
		{"blank name", SensorPatch{Name: &empty}},
		{"blank location", SensorPatch{Location: &empty}},
		{"unknown type", SensorPatch{Type: &badType}},
		{"unknown status", SensorPatch{Status: &badStatus}},
		{"nan value", SensorPatch{Value: &nan}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.patch.Validate(), ErrValidation)
		})
	}
}

func TestSensorPatchIsEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, (&SensorPatch{}).IsEmpty())

	name := "X"
	require.False(t, (&SensorPatch{Name: &name}).IsEmpty())
}

func TestAlertDraftValidate(t *testing.T) {
	t.Parallel()

	draft := AlertDraft{Severity: " CRITICAL ", Message: "  gas spike  ", Sensor: "Gas Detector B2"}
	draft.Normalize()

	require.NoError(t, draft.Validate())
	require.Equal(t, SeverityCritical, draft.Severity)
	require.Equal(t, "gas spike", draft.Message)

	bad := AlertDraft{Severity: "meh", Message: "x"}
	bad.Normalize()
	require.ErrorIs(t, bad.Validate(), ErrValidation)

	noMsg := AlertDraft{Severity: SeverityInfo}
	noMsg.Normalize()
	require.ErrorIs(t, noMsg.Validate(), ErrValidation)
}
