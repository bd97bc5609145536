package domain

import (
	"time"

	"github.com/google/uuid"
)

type DetectionKind int

const (
	DetectionCry DetectionKind = iota + 1
	DetectionMotion
)

// WireName is the event type understood by the reporting backend.
func (k DetectionKind) WireName() string {
	switch k {
	case DetectionCry:
		return "LLANTO"
	case DetectionMotion:
		return "MOVIMIENTO"
	default:
		return "UNKNOWN"
	}
}

func (k DetectionKind) String() string {
	switch k {
	case DetectionCry:
		return "cry"
	case DetectionMotion:
		return "motion"
	default:
		return "unknown"
	}
}

// DetectionEvent is immutable once constructed; ownership passes to the reporter.
type DetectionEvent struct {
	ID        string
	Group     RoomName
	Subject   ParticipantIdentity
	Kind      DetectionKind
	Timestamp time.Time
}

func NewDetectionEvent(group RoomName, subject ParticipantIdentity, kind DetectionKind, at time.Time) DetectionEvent {
	return DetectionEvent{
		ID:        uuid.NewString(),
		Group:     group,
		Subject:   subject,
		Kind:      kind,
		Timestamp: at.UTC(),
	}
}
