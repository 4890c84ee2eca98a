package core

import (
	"context"
	"time"

	"hotlabcore/pkg/decay"
	"hotlabcore/pkg/domain"
)

// AddGenerator registers a new generator for an isotope and records its
// seeding extraction as a vial. The initial parent activity is back-solved
// from the measured extraction: the measured amount is assumed to be the
// configured yield fraction of what the efficiency-scaled parent would have
// delivered, so estimatedParent = measured / (yield * efficiency). A new
// generator replaces any previous one for the same isotope.
func (s *Service) AddGenerator(ctx context.Context, isotopeID string, measuredActivity, extractionVolume, efficiency float64) (Generator, Vial, Result, error) {
	start := time.Now()
	now := s.now()
	var (
		gen  Generator
		vial Vial
	)
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		isotope, ok := tx.FindIsotope(isotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: isotopeID}
		}
		if isotope.ParentID == nil || isotope.ParentHalfLifeHours <= 0 {
			return domain.InvalidRequestError{Reason: "isotope is not generator-fed"}
		}
		if measuredActivity <= 0 {
			return domain.InvalidRequestError{Reason: "measured extraction activity must be positive"}
		}
		if efficiency <= 0 || efficiency > 1 {
			return domain.InvalidRequestError{Reason: "efficiency must be in (0,1]"}
		}
		var err error
		gen, err = tx.CreateGenerator(Generator{
			IsotopeID:             isotopeID,
			InitialParentActivity: measuredActivity / (s.yield * efficiency),
			ReceivedAt:            now,
			Efficiency:            efficiency,
		})
		if err != nil {
			return err
		}
		vial, err = tx.CreateVial(Vial{
			IsotopeID:       isotopeID,
			Label:           "generator extraction",
			InitialActivity: measuredActivity,
			InitialVolume:   extractionVolume,
			ReceivedAt:      now,
		})
		return err
	})
	s.observe(ctx, "add_generator", start, err)
	return gen, vial, res, err
}

// RecordExtraction books a measured elution from the isotope's generator.
// The measured activity becomes a new vial and the generator's last
// extraction timestamp advances to now, resetting accumulation.
func (s *Service) RecordExtraction(ctx context.Context, isotopeID string, measuredActivity, extractionVolume float64) (Vial, Result, error) {
	start := time.Now()
	now := s.now()
	var vial Vial
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindGenerator(isotopeID); !ok {
			return domain.UnknownEntityError{Entity: EntityGenerator, ID: isotopeID}
		}
		if measuredActivity <= 0 {
			return domain.InvalidRequestError{Reason: "measured extraction activity must be positive"}
		}
		var err error
		vial, err = tx.CreateVial(Vial{
			IsotopeID:       isotopeID,
			Label:           "generator extraction",
			InitialActivity: measuredActivity,
			InitialVolume:   extractionVolume,
			ReceivedAt:      now,
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateGenerator(isotopeID, func(g *Generator) error {
			g.LastExtractionAt = &now
			return nil
		})
		return err
	})
	s.observe(ctx, "record_extraction", start, err)
	return vial, res, err
}

// RemoveGenerator retires the isotope's generator. Vials already extracted
// from it remain in the inventory.
func (s *Service) RemoveGenerator(ctx context.Context, isotopeID string) (Result, error) {
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindGenerator(isotopeID); !ok {
			return domain.UnknownEntityError{Entity: EntityGenerator, ID: isotopeID}
		}
		return tx.DeleteGenerator(isotopeID)
	})
	s.observe(ctx, "remove_generator", start, err)
	return res, err
}

// AccumulatedAvailable estimates the daughter activity currently extractable
// from the isotope's generator. Accumulation runs from the last extraction,
// or from the generator's arrival when none has been recorded yet.
func (s *Service) AccumulatedAvailable(ctx context.Context, isotopeID string) (float64, error) {
	now := s.now()
	var available float64
	err := s.store.View(ctx, func(view TransactionView) error {
		gen, ok := view.FindGenerator(isotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityGenerator, ID: isotopeID}
		}
		isotope, ok := view.FindIsotope(isotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: isotopeID}
		}
		if isotope.ParentID == nil || isotope.ParentHalfLifeHours <= 0 {
			return domain.InvalidRequestError{Reason: "isotope is not generator-fed"}
		}
		sinceReceived := now.Sub(gen.ReceivedAt).Hours()
		sinceExtraction := sinceReceived
		if gen.LastExtractionAt != nil {
			sinceExtraction = now.Sub(*gen.LastExtractionAt).Hours()
		}
		var err error
		available, err = decay.GeneratorAccumulation(
			gen.InitialParentActivity,
			isotope.ParentHalfLifeHours,
			isotope.HalfLifeHours,
			sinceReceived,
			sinceExtraction,
			gen.Efficiency,
		)
		return err
	})
	return available, err
}
