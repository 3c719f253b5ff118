package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertSeverity ranks how urgent an alert is. Fixed at creation.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// Alert is a discrete notable event tied to a sensor or the system.
// Acknowledgment is one-way: once set it is never cleared, and
// AcknowledgedBy/AcknowledgedAt are present iff Acknowledged is true.
type Alert struct {
	ID             string        `json:"id"`
	Severity       AlertSeverity `json:"severity"`
	Message        string        `json:"message"`
	Sensor         string        `json:"sensor"`
	Timestamp      time.Time     `json:"timestamp"`
	Acknowledged   bool          `json:"acknowledged"`
	AcknowledgedBy string        `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time    `json:"acknowledgedAt,omitempty"`
}

// AlertDraft is the payload for raising a new alert. The ledger
// imposes no trigger rules; anything with an identity may raise.
type AlertDraft struct {
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Sensor   string        `json:"sensor"`
}

// IsValid checks if the severity is one of the known values.
func (s AlertSeverity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// Normalize trims fields and lower-cases the severity.
func (d *AlertDraft) Normalize() {
	d.Message = strings.TrimSpace(d.Message)
	d.Sensor = strings.TrimSpace(d.Sensor)
	d.Severity = AlertSeverity(strings.ToLower(strings.TrimSpace(string(d.Severity))))
}

// Validate checks the draft carries a known severity and a message.
func (d *AlertDraft) Validate() error {
	if !d.Severity.IsValid() {
		return fmt.Errorf("%w: unknown severity %q", ErrValidation, d.Severity)
	}

	if d.Message == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}

	return nil
}
