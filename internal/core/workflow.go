package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotlabcore/pkg/domain"
)

// PatientStatus is the fully derived view of one active episode. Nothing in
// it is stored; it is recomputed from the recorded facts on every query.
type PatientStatus struct {
	PatientID   string                  `json:"patient_id"`
	PatientName string                  `json:"patient_name"`
	Stage       WorkflowStage           `json:"stage"`
	IsotopeID   string                  `json:"isotope_id"`
	Uptake      UptakeClass             `json:"uptake_class"`
	// ReferenceAt is the timestamp stage thresholds are measured from:
	// room-assignment start once roomed, injection time otherwise.
	ReferenceAt time.Time               `json:"reference_at"`
	Elapsed     time.Duration           `json:"elapsed"`
	RoomID      string                  `json:"room_id,omitempty"`
	// AdditionalReadyAt is set while a scheduled re-scan is pending.
	AdditionalReadyAt *time.Time        `json:"additional_ready_at,omitempty"`
	Thresholds  domain.UptakeThresholds `json:"thresholds"`
	Flags       AlertFlags              `json:"flags"`
}

// PatientStatus derives the patient's current workflow stage. Precedence:
// completed, then an open imaging session, then a pending additional-imaging
// request, then the threshold-derived pre-imaging stages.
func (s *Service) PatientStatus(ctx context.Context, patientID string) (PatientStatus, error) {
	now := s.now()
	var status PatientStatus
	err := s.store.View(ctx, func(view TransactionView) error {
		patient, ok := view.FindPatientCase(patientID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityPatientCase, ID: patientID}
		}
		isotope, ok := view.FindIsotope(patient.IsotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: patient.IsotopeID}
		}
		status = PatientStatus{
			PatientID:   patient.ID,
			PatientName: patient.PatientName,
			IsotopeID:   patient.IsotopeID,
			Uptake:      isotope.Uptake,
			ReferenceAt: patient.InjectedAt,
			Thresholds:  domain.ThresholdsFor(isotope.Uptake),
			Flags:       view.AlertFlagsFor(patientID),
		}
		if assignment, roomed := view.FindAssignmentForPatient(patientID); roomed {
			status.RoomID = assignment.RoomID
			status.ReferenceAt = assignment.StartedAt
		}
		status.Elapsed = now.Sub(status.ReferenceAt)

		switch {
		case patient.Archived || patient.CompletedAt != nil:
			status.Stage = StageCompleted
		case func() bool { _, open := view.FindImagingSession(patientID); return open }():
			status.Stage = StageImaging
		default:
			if request, pending := view.FindAdditionalImagingRequest(patientID); pending {
				readyAt := request.ReadyAt()
				status.AdditionalReadyAt = &readyAt
				status.Stage = StageAdditionalPending
				return nil
			}
			status.Stage = status.Thresholds.StageAt(status.Elapsed)
		}
		return nil
	})
	return status, err
}

// Tick re-evaluates every active episode against its thresholds and emits
// each threshold alert at most once per episode. The crossing decision and
// the flag persist happen in one transaction; delivery runs after commit, so
// a crashed delivery is lost rather than duplicated. Per-patient evaluation
// problems are logged and skipped, never aborting the sweep.
func (s *Service) Tick(ctx context.Context) ([]Alert, error) {
	start := time.Now()
	now := s.now()
	var due []Alert
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		view := tx.Snapshot()
		for _, patient := range view.ListPatientCases() {
			if patient.Archived || patient.CompletedAt != nil {
				continue
			}
			if _, imaging := view.FindImagingSession(patient.ID); imaging {
				continue
			}
			alerts := s.dueAlerts(view, patient, now)
			if len(alerts) == 0 {
				continue
			}
			flags := view.AlertFlagsFor(patient.ID)
			for _, alert := range alerts {
				flags = flags.With(domain.FlagFor(alert.Kind))
			}
			if err := tx.SetAlertFlags(patient.ID, flags); err != nil {
				s.logger.Warn("skipping alert flags update",
					zap.String("patient_id", patient.ID),
					zap.Error(err),
				)
				continue
			}
			due = append(due, alerts...)
		}
		return nil
	})
	s.observe(ctx, "tick", start, err)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, due)
	return due, nil
}

// dueAlerts returns the alerts whose thresholds have crossed and whose flags
// are not yet set for one patient.
func (s *Service) dueAlerts(view TransactionView, patient PatientCase, now time.Time) []Alert {
	isotope, ok := view.FindIsotope(patient.IsotopeID)
	if !ok {
		s.logger.Warn("skipping patient with unknown isotope",
			zap.String("patient_id", patient.ID),
			zap.String("isotope_id", patient.IsotopeID),
		)
		return nil
	}
	flags := view.AlertFlagsFor(patient.ID)
	thresholds := domain.ThresholdsFor(isotope.Uptake)
	var alerts []Alert

	if request, pending := view.FindAdditionalImagingRequest(patient.ID); pending {
		if request.IsReady(now) && !flags.Has(domain.FlagAdditionalReady) {
			alerts = append(alerts, Alert{
				Kind:        AlertAdditionalReady,
				PatientID:   patient.ID,
				PatientName: patient.PatientName,
				Context:     request.Region,
				At:          now,
			})
		}
		return alerts
	}

	if assignment, roomed := view.FindAssignmentForPatient(patient.ID); roomed {
		elapsed := now.Sub(assignment.StartedAt).Minutes()
		if elapsed >= float64(thresholds.ReadyMin) && !flags.Has(domain.FlagRoomReady) {
			alerts = append(alerts, Alert{
				Kind:        AlertRoomReady,
				PatientID:   patient.ID,
				PatientName: patient.PatientName,
				Context:     assignment.RoomID,
				At:          now,
			})
		}
		if elapsed >= float64(thresholds.CriticalMin) && !flags.Has(domain.FlagCritical) {
			alerts = append(alerts, Alert{
				Kind:        AlertCritical,
				PatientID:   patient.ID,
				PatientName: patient.PatientName,
				Context:     assignment.RoomID,
				At:          now,
			})
		}
		return alerts
	}

	elapsed := now.Sub(patient.InjectedAt).Minutes()
	if elapsed >= float64(thresholds.ReadyMin) && !flags.Has(domain.FlagReady) {
		alerts = append(alerts, Alert{
			Kind:        AlertReady,
			PatientID:   patient.ID,
			PatientName: patient.PatientName,
			At:          now,
		})
	}
	return alerts
}

func (s *Service) dispatch(ctx context.Context, alerts []Alert) {
	if s.notifier == nil {
		return
	}
	for _, alert := range alerts {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Warn("alert delivery failed",
				zap.String("kind", string(alert.Kind)),
				zap.String("patient_id", alert.PatientID),
				zap.Error(err),
			)
			continue
		}
		s.metrics.AlertEmitted(ctx, string(alert.Kind))
	}
}
