// Package decay implements the exponential-decay activity model: single
// isotope decay, two-compartment parent/daughter generator accumulation, and
// the clearance-threshold solver. All functions are pure and deterministic.
package decay

import (
	"math"

	"hotlabcore/pkg/domain"
)

// Ln2 is shared by the half-life conversions below.
const ln2 = math.Ln2

// Lambda converts a half-life in hours to a decay constant (1/h).
// Non-positive half-lives yield zero.
func Lambda(halfLifeHours float64) float64 {
	if halfLifeHours <= 0 {
		return 0
	}
	return ln2 / halfLifeHours
}

// ActivityAt returns the activity remaining after elapsedHours of decay.
// The result is clamped to [0, initialActivity]: negative elapsed times
// return the initial activity unchanged, and underflow toward zero never
// produces a negative value. Non-positive initial activity or half-life
// yields zero. Stable for elapsed/half-life ratios well beyond 50.
func ActivityAt(initialActivity, halfLifeHours, elapsedHours float64) float64 {
	if initialActivity <= 0 || halfLifeHours <= 0 {
		return 0
	}
	if elapsedHours <= 0 {
		return initialActivity
	}
	activity := initialActivity * math.Exp2(-elapsedHours/halfLifeHours)
	if activity < 0 || math.IsNaN(activity) {
		return 0
	}
	return activity
}

// GeneratorAccumulation computes the daughter activity accumulated in a
// parent-loaded generator since the last extraction, using the
// two-compartment Bateman form.
//
// The parent decays from parentInitial over hoursSinceReceived; the
// accumulation factor over hoursSinceLastExtraction is
// (λ2/(λ2-λ1))·(e^(-λ1·h) - e^(-λ2·h)). The function is undefined for equal
// parent and daughter half-lives and rejects non-positive half-lives,
// activities, and efficiencies with an ArithmeticPreconditionError.
func GeneratorAccumulation(parentInitial, parentHalfLifeHours, daughterHalfLifeHours, hoursSinceReceived, hoursSinceLastExtraction, efficiency float64) (float64, error) {
	switch {
	case parentInitial <= 0:
		return 0, domain.ArithmeticPreconditionError{Reason: "parent activity must be positive"}
	case parentHalfLifeHours <= 0 || daughterHalfLifeHours <= 0:
		return 0, domain.ArithmeticPreconditionError{Reason: "half-lives must be positive"}
	case parentHalfLifeHours == daughterHalfLifeHours:
		return 0, domain.ArithmeticPreconditionError{Reason: "parent and daughter half-lives must differ"}
	case efficiency <= 0 || efficiency > 1:
		return 0, domain.ArithmeticPreconditionError{Reason: "efficiency must be in (0,1]"}
	case hoursSinceReceived < 0 || hoursSinceLastExtraction < 0:
		return 0, domain.ArithmeticPreconditionError{Reason: "elapsed hours must be non-negative"}
	}

	lambda1 := ln2 / parentHalfLifeHours
	lambda2 := ln2 / daughterHalfLifeHours

	currentParent := parentInitial * math.Exp(-lambda1*hoursSinceReceived)
	h := hoursSinceLastExtraction
	factor := lambda2 / (lambda2 - lambda1) * (math.Exp(-lambda1*h) - math.Exp(-lambda2*h))

	accumulated := currentParent * factor * efficiency
	if accumulated < 0 || math.IsNaN(accumulated) {
		return 0, nil
	}
	return accumulated, nil
}

// TimeToThreshold solves the decay equation for the elapsed hours at which
// an activity falls to the clearance threshold: t = -ln(threshold/initial)/λ.
// Activities already at or below the threshold return zero immediately, so
// the solver never feeds a value above one into the logarithm.
func TimeToThreshold(initialActivity, halfLifeHours, threshold float64) (float64, error) {
	if threshold <= 0 {
		return 0, domain.ArithmeticPreconditionError{Reason: "threshold must be positive"}
	}
	if halfLifeHours <= 0 {
		return 0, domain.ArithmeticPreconditionError{Reason: "half-life must be positive"}
	}
	if initialActivity <= threshold {
		return 0, nil
	}
	return -math.Log(threshold/initialActivity) / (ln2 / halfLifeHours), nil
}
