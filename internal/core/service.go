package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotlabcore/pkg/domain"
)

// Service exposes the transactional command surface for one isotope-context
// store: inventory, generator, and patient-workflow operations, plus the
// tick-driven re-evaluation that emits threshold alerts. All mutations run
// through the store's transaction boundary; the service itself keeps no
// entity state.
type Service struct {
	store     PersistentStore
	logger    *zap.Logger
	metrics   MetricsRecorder
	notifier  Notifier
	archiver  EpisodeArchiver
	yield     float64
	clearance float64
	tiers     domain.WasteTierThresholds
}

// Option customises service construction.
type Option func(*Service)

// WithLogger attaches a structured logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches an operation metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithNotifier attaches the alert notifier. Without one, alerts are decided
// and recorded but delivered nowhere.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithArchiver attaches the episode archiver invoked after a case completes.
func WithArchiver(a EpisodeArchiver) Option {
	return func(s *Service) {
		if a != nil {
			s.archiver = a
		}
	}
}

// WithExtractionYield overrides the first-extraction yield fraction used to
// back-solve the generator parent estimate.
func WithExtractionYield(yield float64) Option {
	return func(s *Service) {
		if yield > 0 && yield <= 1 {
			s.yield = yield
		}
	}
}

// WithClearanceThreshold overrides the waste clearance threshold.
func WithClearanceThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.clearance = threshold
		}
	}
}

// WithWasteTiers overrides the waste tier activity cut-offs.
func WithWasteTiers(tiers domain.WasteTierThresholds) Option {
	return func(s *Service) { s.tiers = tiers }
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logger:    zap.NewNop(),
		metrics:   nopMetrics{},
		yield:     domain.DefaultExtractionYield,
		clearance: domain.DefaultClearanceThreshold,
		tiers:     domain.DefaultWasteTierThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

func (s *Service) now() time.Time {
	return s.store.NowFunc()()
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("operation failed", zap.String("op", op), zap.Error(err))
	}
}

// SeedIsotopes installs the static isotope reference set. Intended for
// startup only; isotopes are never created by runtime commands.
func (s *Service) SeedIsotopes(ctx context.Context, isotopes []Isotope) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx Transaction) error {
		for _, iso := range isotopes {
			if _, exists := tx.FindIsotope(iso.ID); exists {
				continue
			}
			if _, err := tx.CreateIsotope(iso); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedRooms installs the fixed room pool. Idempotent; rooms already present
// are left untouched.
func (s *Service) SeedRooms(ctx context.Context, rooms []Room) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx Transaction) error {
		for _, room := range rooms {
			if _, exists := tx.FindRoom(room.ID); exists {
				continue
			}
			if _, err := tx.CreateRoom(room); err != nil {
				return err
			}
		}
		return nil
	})
}

// RegisterPatient records a new radiotracer episode for a patient. The
// injection timestamp defaults to now when unset.
func (s *Service) RegisterPatient(ctx context.Context, patient PatientCase) (PatientCase, Result, error) {
	start := time.Now()
	var created PatientCase
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindIsotope(patient.IsotopeID); !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: patient.IsotopeID}
		}
		var err error
		created, err = tx.CreatePatientCase(patient)
		return err
	})
	s.observe(ctx, "register_patient", start, err)
	return created, res, err
}

// AssignRoom places a patient in a room. It fails with RoomUnavailableError
// when the room is occupied and releases any room the patient held before.
func (s *Service) AssignRoom(ctx context.Context, patientID, roomID string) (RoomAssignment, Result, error) {
	start := time.Now()
	var created RoomAssignment
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		patient, ok := tx.FindPatientCase(patientID)
		if !ok || patient.Archived {
			return domain.UnknownEntityError{Entity: EntityPatientCase, ID: patientID}
		}
		if _, ok := tx.FindRoom(roomID); !ok {
			return domain.UnknownEntityError{Entity: EntityRoom, ID: roomID}
		}
		if occupant, occupied := tx.FindRoomAssignment(roomID); occupied {
			return domain.RoomUnavailableError{RoomID: roomID, OccupantID: occupant.PatientID}
		}
		if prior, held := tx.FindAssignmentForPatient(patientID); held {
			if err := tx.DeleteRoomAssignment(prior.RoomID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.CreateRoomAssignment(RoomAssignment{
			RoomID:      roomID,
			PatientID:   patientID,
			PatientName: patient.PatientName,
		})
		return err
	})
	s.observe(ctx, "assign_room", start, err)
	if err == nil {
		s.logger.Info("room assigned",
			zap.String("room_id", roomID),
			zap.String("patient_id", patientID),
		)
	}
	return created, res, err
}

// StartImaging moves a patient into imaging: releases any held room, opens
// an imaging session, and consumes a pending additional-imaging request if
// one exists (flagging the session accordingly).
func (s *Service) StartImaging(ctx context.Context, patientID string) (ImagingSession, Result, error) {
	start := time.Now()
	var created ImagingSession
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		patient, ok := tx.FindPatientCase(patientID)
		if !ok || patient.Archived {
			return domain.UnknownEntityError{Entity: EntityPatientCase, ID: patientID}
		}
		// Release is defensive: the patient may already be out of the room.
		if prior, held := tx.FindAssignmentForPatient(patientID); held {
			if err := tx.DeleteRoomAssignment(prior.RoomID); err != nil {
				return err
			}
		}
		session := ImagingSession{PatientID: patientID}
		if request, pending := tx.FindAdditionalImagingRequest(patientID); pending {
			session.Additional = true
			session.Region = request.Region
			if err := tx.DeleteAdditionalImagingRequest(patientID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.CreateImagingSession(session)
		return err
	})
	s.observe(ctx, "start_imaging", start, err)
	return created, res, err
}

// FinishImaging closes the patient's imaging session. With needsAdditional
// set, a re-scan is scheduled for the given region and wait duration;
// otherwise the case is marked complete and archived.
func (s *Service) FinishImaging(ctx context.Context, patientID string, needsAdditional bool, region string, scheduledMinutes int) (Result, error) {
	start := time.Now()
	now := s.now()
	var archived *PatientCase
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindImagingSession(patientID); !ok {
			return domain.UnknownEntityError{Entity: EntityImagingSession, ID: patientID}
		}
		if needsAdditional {
			if region == "" {
				return domain.InvalidRequestError{Reason: "additional imaging region is required"}
			}
			if !domain.ValidScheduledWait(scheduledMinutes) {
				return domain.InvalidRequestError{Reason: "scheduled wait must be one of 60, 90 or 120 minutes"}
			}
		}
		if err := tx.DeleteImagingSession(patientID); err != nil {
			return err
		}
		if needsAdditional {
			_, err := tx.CreateAdditionalImagingRequest(AdditionalImagingRequest{
				PatientID:        patientID,
				Region:           region,
				ScheduledMinutes: scheduledMinutes,
			})
			return err
		}
		completed, err := tx.UpdatePatientCase(patientID, func(p *PatientCase) error {
			p.CompletedAt = &now
			p.Archived = true
			return nil
		})
		if err != nil {
			return err
		}
		archived = &completed
		return tx.ClearAlertFlags(patientID)
	})
	s.observe(ctx, "finish_imaging", start, err)
	if err == nil && archived != nil {
		s.archiveEpisode(ctx, *archived)
	}
	return res, err
}

// RequestAdditionalImaging schedules a future re-scan outside the
// finish-imaging flow.
func (s *Service) RequestAdditionalImaging(ctx context.Context, patientID, region string, scheduledMinutes int) (AdditionalImagingRequest, Result, error) {
	start := time.Now()
	var created AdditionalImagingRequest
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if region == "" {
			return domain.InvalidRequestError{Reason: "additional imaging region is required"}
		}
		if !domain.ValidScheduledWait(scheduledMinutes) {
			return domain.InvalidRequestError{Reason: "scheduled wait must be one of 60, 90 or 120 minutes"}
		}
		patient, ok := tx.FindPatientCase(patientID)
		if !ok || patient.Archived {
			return domain.UnknownEntityError{Entity: EntityPatientCase, ID: patientID}
		}
		var err error
		created, err = tx.CreateAdditionalImagingRequest(AdditionalImagingRequest{
			PatientID:        patientID,
			Region:           region,
			ScheduledMinutes: scheduledMinutes,
		})
		return err
	})
	s.observe(ctx, "request_additional_imaging", start, err)
	return created, res, err
}

// CancelAdditionalImaging aborts a scheduled re-scan before (or after) its
// wait elapses.
func (s *Service) CancelAdditionalImaging(ctx context.Context, patientID string) (Result, error) {
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindAdditionalImagingRequest(patientID); !ok {
			return domain.UnknownEntityError{Entity: EntityAdditionalImaging, ID: patientID}
		}
		return tx.DeleteAdditionalImagingRequest(patientID)
	})
	s.observe(ctx, "cancel_additional_imaging", start, err)
	return res, err
}
