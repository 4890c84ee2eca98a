package core

import "hotlabcore/pkg/domain"

type (
	EntityType               = domain.EntityType
	UptakeClass              = domain.UptakeClass
	WorkflowStage            = domain.WorkflowStage
	Severity                 = domain.Severity
	Base                     = domain.Base
	Isotope                  = domain.Isotope
	Vial                     = domain.Vial
	Generator                = domain.Generator
	WasteBin                 = domain.WasteBin
	WasteItem                = domain.WasteItem
	PatientCase              = domain.PatientCase
	Room                     = domain.Room
	RoomAssignment           = domain.RoomAssignment
	ImagingSession           = domain.ImagingSession
	AdditionalImagingRequest = domain.AdditionalImagingRequest
	Alert                    = domain.Alert
	AlertKind                = domain.AlertKind
	AlertFlags               = domain.AlertFlags
	Change                   = domain.Change
	Action                   = domain.Action
	Violation                = domain.Violation
	Result                   = domain.Result
	RuleViolationError       = domain.RuleViolationError
	RulesEngine              = domain.RulesEngine
	PersistentStore          = domain.PersistentStore
	Transaction              = domain.Transaction
	TransactionView          = domain.TransactionView
	Notifier                 = domain.Notifier
)

const (
	EntityIsotope           = domain.EntityIsotope
	EntityVial              = domain.EntityVial
	EntityGenerator         = domain.EntityGenerator
	EntityWasteBin          = domain.EntityWasteBin
	EntityWasteItem         = domain.EntityWasteItem
	EntityPatientCase       = domain.EntityPatientCase
	EntityRoom              = domain.EntityRoom
	EntityRoomAssignment    = domain.EntityRoomAssignment
	EntityImagingSession    = domain.EntityImagingSession
	EntityAdditionalImaging = domain.EntityAdditionalImaging
)

const (
	StageWaiting           = domain.StageWaiting
	StageBathroomInterval  = domain.StageBathroomInterval
	StageReady             = domain.StageReady
	StageDelayed           = domain.StageDelayed
	StageImaging           = domain.StageImaging
	StageAdditionalPending = domain.StageAdditionalPending
	StageCompleted         = domain.StageCompleted
)

const (
	AlertReady           = domain.AlertReady
	AlertRoomReady       = domain.AlertRoomReady
	AlertCritical        = domain.AlertCritical
	AlertAdditionalReady = domain.AlertAdditionalReady
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
