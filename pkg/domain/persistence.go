package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateIsotope(Isotope) (Isotope, error)
	CreateRoom(Room) (Room, error)
	CreateVial(Vial) (Vial, error)
	DeleteVial(id string) error
	CreateWasteBin(WasteBin) (WasteBin, error)
	CreateWasteItem(WasteItem) (WasteItem, error)
	EmptyWasteBin(binID string) (int, error)
	CreateGenerator(Generator) (Generator, error)
	UpdateGenerator(isotopeID string, mutator func(*Generator) error) (Generator, error)
	DeleteGenerator(isotopeID string) error
	CreatePatientCase(PatientCase) (PatientCase, error)
	UpdatePatientCase(id string, mutator func(*PatientCase) error) (PatientCase, error)
	CreateRoomAssignment(RoomAssignment) (RoomAssignment, error)
	DeleteRoomAssignment(roomID string) error
	CreateImagingSession(ImagingSession) (ImagingSession, error)
	DeleteImagingSession(patientID string) error
	CreateAdditionalImagingRequest(AdditionalImagingRequest) (AdditionalImagingRequest, error)
	DeleteAdditionalImagingRequest(patientID string) error
	SetAlertFlags(patientID string, flags AlertFlags) error
	ClearAlertFlags(patientID string) error
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

// TransactionView provides read-only access to snapshot data for rules and
// derived-state queries. It is identical to RuleView; the alias keeps call
// sites explicit about intent.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	NowFunc() func() time.Time
	GetIsotope(id string) (Isotope, bool)
	ListIsotopes() []Isotope
	GetVial(id string) (Vial, bool)
	ListVials() []Vial
	GetGenerator(isotopeID string) (Generator, bool)
	ListGenerators() []Generator
	GetWasteBin(id string) (WasteBin, bool)
	ListWasteBins() []WasteBin
	ListWasteItems() []WasteItem
	GetPatientCase(id string) (PatientCase, bool)
	ListPatientCases() []PatientCase
	ListRooms() []Room
	ListRoomAssignments() []RoomAssignment
	ListImagingSessions() []ImagingSession
	ListAdditionalImagingRequests() []AdditionalImagingRequest
}
