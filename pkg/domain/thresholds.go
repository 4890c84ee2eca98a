package domain

import "time"

// UptakeThresholds is the per-isotope-class workflow threshold row, in
// minutes since the reference timestamp (room-assignment start once a room is
// assigned, else injection time).
type UptakeThresholds struct {
	BathroomMin int `json:"bathroom_min"`
	ReadyMin    int `json:"ready_min"`
	DelayedMin  int `json:"delayed_min"`
	CriticalMin int `json:"critical_min"`
}

// Reference threshold table (minutes).
var (
	longUptakeThresholds  = UptakeThresholds{BathroomMin: 45, ReadyMin: 60, DelayedMin: 75, CriticalMin: 90}
	shortUptakeThresholds = UptakeThresholds{BathroomMin: 30, ReadyMin: 45, DelayedMin: 60, CriticalMin: 75}
)

// ThresholdsFor returns the reference threshold row for an uptake class.
// Unknown classes fall back to the long-uptake row.
func ThresholdsFor(class UptakeClass) UptakeThresholds {
	if class == UptakeShort {
		return shortUptakeThresholds
	}
	return longUptakeThresholds
}

// StageAt derives the pre-imaging workflow stage from elapsed time.
func (t UptakeThresholds) StageAt(elapsed time.Duration) WorkflowStage {
	minutes := elapsed.Minutes()
	switch {
	case minutes < float64(t.BathroomMin):
		return StageWaiting
	case minutes < float64(t.ReadyMin):
		return StageBathroomInterval
	case minutes < float64(t.DelayedMin):
		return StageReady
	default:
		return StageDelayed
	}
}

// WasteTier classifies a waste activity level into a disposal-readiness tier.
type WasteTier string

// Disposal-readiness tiers, highest activity first.
const (
	TierHigh      WasteTier = "high"
	TierMedium    WasteTier = "medium"
	TierLow       WasteTier = "low"
	TierClearable WasteTier = "clearable"
)

// WasteTierThresholds holds the facility-configurable activity cut-offs
// between tiers.
type WasteTierThresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// DefaultWasteTierThresholds returns the reference cut-offs.
func DefaultWasteTierThresholds() WasteTierThresholds {
	return WasteTierThresholds{High: 100, Medium: 10, Low: 0.1}
}

// Classify maps an aggregate activity to its tier.
func (t WasteTierThresholds) Classify(activity float64) WasteTier {
	switch {
	case activity >= t.High:
		return TierHigh
	case activity >= t.Medium:
		return TierMedium
	case activity >= t.Low:
		return TierLow
	default:
		return TierClearable
	}
}

// DefaultClearanceThreshold is the activity level below which a waste item is
// considered safe for normal disposal.
const DefaultClearanceThreshold = 0.001

// DefaultExtractionYield is the empirical fraction of equilibrium parent
// activity typically recoverable in a first extraction. It seeds the
// back-solved parent estimate and is configurable per deployment; it is not a
// physical constant.
const DefaultExtractionYield = 0.87
