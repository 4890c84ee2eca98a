package domain

import (
	"context"
	"time"
)

// AlertKind identifies a workflow threshold crossing.
type AlertKind string

// Alert kinds emitted by the workflow engine.
const (
	// AlertReady fires when an unroomed patient crosses the ready threshold
	// relative to injection time.
	AlertReady AlertKind = "ready"
	// AlertRoomReady fires when a room-assigned patient crosses the ready
	// threshold relative to room-assignment time.
	AlertRoomReady AlertKind = "room_ready"
	// AlertCritical fires when a room-assigned patient crosses the critical
	// threshold. It is independent of AlertRoomReady.
	AlertCritical AlertKind = "critical"
	// AlertAdditionalReady fires when a scheduled re-imaging wait elapses.
	AlertAdditionalReady AlertKind = "additional_ready"
)

// Alert is a discrete threshold-crossing event handed to the notifier.
// Delivery and rendering are entirely the notifier's concern.
type Alert struct {
	Kind        AlertKind `json:"kind"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	// Context carries a short human-readable qualifier, e.g. the room id or
	// the additional-imaging region.
	Context string    `json:"context,omitempty"`
	At      time.Time `json:"at"`
}

// AlertFlags is the per-patient bitset of already-fired threshold alerts.
// Flags are set exactly once per crossing and cleared only when the case is
// archived, never recycled across cases.
type AlertFlags uint8

// Flag bits, one per alert kind.
const (
	FlagReady AlertFlags = 1 << iota
	FlagRoomReady
	FlagCritical
	FlagAdditionalReady
)

// Has reports whether flag is set.
func (f AlertFlags) Has(flag AlertFlags) bool { return f&flag != 0 }

// With returns the flags with flag set.
func (f AlertFlags) With(flag AlertFlags) AlertFlags { return f | flag }

// FlagFor maps an alert kind to its bitset flag.
func FlagFor(kind AlertKind) AlertFlags {
	switch kind {
	case AlertReady:
		return FlagReady
	case AlertRoomReady:
		return FlagRoomReady
	case AlertCritical:
		return FlagCritical
	case AlertAdditionalReady:
		return FlagAdditionalReady
	}
	return 0
}

// Notifier receives alert events after the originating transaction commits.
// Implementations must not block the caller longer than necessary; errors are
// logged by the core and never retried.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}
