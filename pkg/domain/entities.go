// Package domain defines the persistent entities, value types, typed errors,
// and rule evaluation primitives used by hotlabcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityIsotope identifies a static isotope reference record.
	EntityIsotope EntityType = "isotope"
	// EntityVial identifies a dispensed or delivered vial record.
	EntityVial EntityType = "vial"
	// EntityGenerator identifies an active generator record.
	EntityGenerator EntityType = "generator"
	// EntityWasteBin identifies a waste bin record.
	EntityWasteBin EntityType = "waste_bin"
	// EntityWasteItem identifies a disposed waste item record.
	EntityWasteItem EntityType = "waste_item"
	// EntityPatientCase identifies a patient radiotracer episode record.
	EntityPatientCase EntityType = "patient_case"
	// EntityRoom identifies a physical injection room record.
	EntityRoom EntityType = "room"
	// EntityRoomAssignment identifies a room occupancy record.
	EntityRoomAssignment EntityType = "room_assignment"
	// EntityImagingSession identifies an active imaging session record.
	EntityImagingSession EntityType = "imaging_session"
	// EntityAdditionalImaging identifies a scheduled re-imaging request record.
	EntityAdditionalImaging EntityType = "additional_imaging_request"
)

// UptakeClass selects the workflow threshold row for an isotope.
type UptakeClass string

// Canonical uptake classes. Long-uptake tracers (e.g. F-18) wait longer
// between injection and imaging readiness than short-uptake ones (e.g. Ga-68).
const (
	UptakeLong  UptakeClass = "long"
	UptakeShort UptakeClass = "short"
)

// WorkflowStage is the derived clinical stage of a patient case. Stages are
// recomputed from recorded timestamps on every evaluation and never stored.
type WorkflowStage string

// Canonical workflow stages in lifecycle order.
const (
	StageWaiting           WorkflowStage = "waiting"
	StageBathroomInterval  WorkflowStage = "bathroom_interval"
	StageReady             WorkflowStage = "ready"
	StageDelayed           WorkflowStage = "delayed"
	StageImaging           WorkflowStage = "imaging"
	StageAdditionalPending WorkflowStage = "additional_pending"
	StageCompleted         WorkflowStage = "completed"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Isotope is static reference data describing a tracer isotope. Records are
// seeded at startup and never created or destroyed by runtime commands.
type Isotope struct {
	Base
	Name string `json:"name"`
	// HalfLifeHours is the physical half-life of the isotope.
	HalfLifeHours float64 `json:"half_life_hours"`
	// ParentID references the parent isotope for generator-fed isotopes
	// (e.g. Mo-99 for Tc-99m). Nil for directly delivered tracers.
	ParentID *string `json:"parent_id"`
	// ParentHalfLifeHours is the parent half-life when ParentID is set.
	ParentHalfLifeHours float64     `json:"parent_half_life_hours,omitempty"`
	Uptake              UptakeClass `json:"uptake_class"`
}

// Vial is a dispensed or delivered quantity of an isotope.
type Vial struct {
	Base
	IsotopeID string `json:"isotope_id"`
	Label     string `json:"label,omitempty"`
	// InitialActivity is the measured activity at ReceivedAt. Current
	// activity is always derived from it, never mutated in place.
	InitialActivity float64   `json:"initial_activity"`
	InitialVolume   float64   `json:"initial_volume"`
	ReceivedAt      time.Time `json:"received_at"`
}

// Generator is the single active parent-isotope source for an isotope
// context. Replacing it discards the previous record.
type Generator struct {
	Base
	IsotopeID string `json:"isotope_id"`
	// InitialParentActivity is the estimated parent activity at ReceivedAt,
	// back-solved from the first extraction.
	InitialParentActivity float64   `json:"initial_parent_activity"`
	ReceivedAt            time.Time `json:"received_at"`
	// Efficiency is the assumed extraction efficiency in (0,1].
	Efficiency float64 `json:"efficiency"`
	// LastExtractionAt is nil until an extraction beyond the seeding one is
	// recorded; accumulation is then computed from ReceivedAt instead.
	LastExtractionAt *time.Time `json:"last_extraction_at"`
}

// WasteBin groups disposed waste items. Its tier is derived from the
// aggregate current activity of its items, never stored.
type WasteBin struct {
	Base
	Name string `json:"name"`
}

// WasteItem is a quantity of activity removed from use. Immutable once
// created; removed only by emptying its bin.
type WasteItem struct {
	Base
	BinID     string `json:"bin_id"`
	IsotopeID string `json:"isotope_id"`
	// Activity is the activity carried into the bin at DisposedAt (the
	// source vial's current activity at disposal time, not its original).
	Activity   float64   `json:"activity"`
	DisposedAt time.Time `json:"disposed_at"`
}

// PatientCase is a patient's single active radiotracer episode.
type PatientCase struct {
	Base
	PatientName string    `json:"patient_name"`
	Procedure   string    `json:"procedure,omitempty"`
	IsotopeID   string    `json:"isotope_id"`
	InjectedAt  time.Time `json:"injected_at"`
	// CompletedAt marks the end of the episode. Completed cases are archived
	// rather than deleted.
	CompletedAt *time.Time `json:"completed_at"`
	Archived    bool       `json:"archived"`
}

// Room is one physical injection room from the fixed pool known at startup.
type Room struct {
	Base
	Name string `json:"name"`
}

// RoomAssignment ties a patient case to one physical room. At most one
// assignment exists per room and per patient at any time.
type RoomAssignment struct {
	RoomID      string    `json:"room_id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	StartedAt   time.Time `json:"started_at"`
}

// ImagingSession ties a patient case to the imaging resource.
type ImagingSession struct {
	PatientID string    `json:"patient_id"`
	StartedAt time.Time `json:"started_at"`
	// Additional marks sessions that originate from an additional-imaging
	// request rather than the primary scan.
	Additional bool   `json:"additional"`
	Region     string `json:"region,omitempty"`
}

// ScheduledWaitMinutes is the closed set of allowed additional-imaging delays.
var ScheduledWaitMinutes = []int{60, 90, 120}

// ValidScheduledWait reports whether minutes is one of the allowed delays.
func ValidScheduledWait(minutes int) bool {
	for _, m := range ScheduledWaitMinutes {
		if m == minutes {
			return true
		}
	}
	return false
}

// AdditionalImagingRequest is a scheduled future re-scan for a patient.
type AdditionalImagingRequest struct {
	PatientID        string    `json:"patient_id"`
	Region           string    `json:"region"`
	AddedAt          time.Time `json:"added_at"`
	ScheduledMinutes int       `json:"scheduled_minutes"`
}

// ReadyAt returns the instant the request becomes due.
func (r AdditionalImagingRequest) ReadyAt() time.Time {
	return r.AddedAt.Add(time.Duration(r.ScheduledMinutes) * time.Minute)
}

// IsReady reports whether the scheduled wait has elapsed at now.
func (r AdditionalImagingRequest) IsReady(now time.Time) bool {
	return !now.Before(r.ReadyAt())
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported operations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
