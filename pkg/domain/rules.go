package domain

import "context"

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
	ListIsotopes() []Isotope
	ListVials() []Vial
	ListGenerators() []Generator
	ListWasteBins() []WasteBin
	ListWasteItems() []WasteItem
	ListPatientCases() []PatientCase
	ListRooms() []Room
	ListRoomAssignments() []RoomAssignment
	ListImagingSessions() []ImagingSession
	ListAdditionalImagingRequests() []AdditionalImagingRequest
	FindIsotope(id string) (Isotope, bool)
	FindVial(id string) (Vial, bool)
	FindGenerator(isotopeID string) (Generator, bool)
	FindWasteBin(id string) (WasteBin, bool)
	FindPatientCase(id string) (PatientCase, bool)
	FindRoom(id string) (Room, bool)
	FindRoomAssignment(roomID string) (RoomAssignment, bool)
	FindAssignmentForPatient(patientID string) (RoomAssignment, bool)
	FindImagingSession(patientID string) (ImagingSession, bool)
	FindAdditionalImagingRequest(patientID string) (AdditionalImagingRequest, bool)
	AlertFlagsFor(patientID string) AlertFlags
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
