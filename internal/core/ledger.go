package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotlabcore/pkg/decay"
	"hotlabcore/pkg/domain"
)

// AddVial records a dispensed or delivered vial. The received timestamp
// defaults to now when unset; everything derived from the vial afterwards is
// computed from these recorded facts.
func (s *Service) AddVial(ctx context.Context, vial Vial) (Vial, Result, error) {
	start := time.Now()
	var created Vial
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindIsotope(vial.IsotopeID); !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: vial.IsotopeID}
		}
		if vial.InitialActivity <= 0 {
			return domain.InvalidRequestError{Reason: "vial activity must be positive"}
		}
		if vial.InitialVolume < 0 {
			return domain.InvalidRequestError{Reason: "vial volume must not be negative"}
		}
		var err error
		created, err = tx.CreateVial(vial)
		return err
	})
	s.observe(ctx, "add_vial", start, err)
	return created, res, err
}

// DisposeVial removes a vial from the active set and creates exactly one
// waste item in the target bin carrying the vial's current activity at
// disposal time, not its original activity.
func (s *Service) DisposeVial(ctx context.Context, vialID, binID string) (WasteItem, Result, error) {
	start := time.Now()
	now := s.now()
	var created WasteItem
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		vial, ok := tx.FindVial(vialID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityVial, ID: vialID}
		}
		if _, ok := tx.FindWasteBin(binID); !ok {
			return domain.UnknownEntityError{Entity: EntityWasteBin, ID: binID}
		}
		isotope, ok := tx.FindIsotope(vial.IsotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: vial.IsotopeID}
		}
		current := decay.ActivityAt(vial.InitialActivity, isotope.HalfLifeHours, now.Sub(vial.ReceivedAt).Hours())
		if err := tx.DeleteVial(vialID); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateWasteItem(WasteItem{
			BinID:      binID,
			IsotopeID:  vial.IsotopeID,
			Activity:   current,
			DisposedAt: now,
		})
		return err
	})
	s.observe(ctx, "dispose_vial", start, err)
	return created, res, err
}

// AddWasteBin creates a waste bin.
func (s *Service) AddWasteBin(ctx context.Context, bin WasteBin) (WasteBin, Result, error) {
	start := time.Now()
	var created WasteBin
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateWasteBin(bin)
		return err
	})
	s.observe(ctx, "add_waste_bin", start, err)
	return created, res, err
}

// EmptyWasteBin bulk-clears a bin and returns the number of items removed.
func (s *Service) EmptyWasteBin(ctx context.Context, binID string) (int, Result, error) {
	start := time.Now()
	var removed int
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		removed, err = tx.EmptyWasteBin(binID)
		return err
	})
	s.observe(ctx, "empty_waste_bin", start, err)
	return removed, res, err
}

// VialActivity returns a vial's current activity, derived from its recorded
// initial activity and the isotope half-life.
func (s *Service) VialActivity(ctx context.Context, vialID string) (float64, error) {
	now := s.now()
	var activity float64
	err := s.store.View(ctx, func(view TransactionView) error {
		vial, ok := view.FindVial(vialID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityVial, ID: vialID}
		}
		isotope, ok := view.FindIsotope(vial.IsotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: vial.IsotopeID}
		}
		activity = decay.ActivityAt(vial.InitialActivity, isotope.HalfLifeHours, now.Sub(vial.ReceivedAt).Hours())
		return nil
	})
	return activity, err
}

// TotalActiveInventory sums current activity across all vials of an isotope.
// An empty isotope id sums the whole active inventory. Vials referencing
// unknown isotopes are skipped and reported as diagnostics so one corrupt
// record never hides the rest of the inventory.
func (s *Service) TotalActiveInventory(ctx context.Context, isotopeID string) (float64, error) {
	now := s.now()
	var total float64
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, vial := range view.ListVials() {
			if isotopeID != "" && vial.IsotopeID != isotopeID {
				continue
			}
			isotope, ok := view.FindIsotope(vial.IsotopeID)
			if !ok {
				s.logger.Warn("skipping vial with unknown isotope",
					zap.String("vial_id", vial.ID),
					zap.String("isotope_id", vial.IsotopeID),
				)
				continue
			}
			total += decay.ActivityAt(vial.InitialActivity, isotope.HalfLifeHours, now.Sub(vial.ReceivedAt).Hours())
		}
		return nil
	})
	return total, err
}

// WasteBinSummary aggregates the derived state of one bin.
type WasteBinSummary struct {
	Bin             WasteBin         `json:"bin"`
	ItemCount       int              `json:"item_count"`
	CurrentActivity float64          `json:"current_activity"`
	Tier            domain.WasteTier `json:"tier"`
	// DisposalReadyAt is the latest disposal-readiness instant among the
	// bin's items: the earliest time the whole bin can be cleared.
	DisposalReadyAt time.Time `json:"disposal_ready_at"`
}

// SummarizeWasteBin classifies a bin by its aggregate current activity. The
// tier reflects the aggregate, not the hottest single item.
func (s *Service) SummarizeWasteBin(ctx context.Context, binID string) (WasteBinSummary, error) {
	now := s.now()
	var summary WasteBinSummary
	err := s.store.View(ctx, func(view TransactionView) error {
		bin, ok := view.FindWasteBin(binID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityWasteBin, ID: binID}
		}
		summary = WasteBinSummary{Bin: bin, DisposalReadyAt: now}
		for _, item := range view.ListWasteItems() {
			if item.BinID != binID {
				continue
			}
			summary.ItemCount++
			isotope, ok := view.FindIsotope(item.IsotopeID)
			if !ok {
				s.logger.Warn("skipping waste item with unknown isotope",
					zap.String("waste_item_id", item.ID),
					zap.String("isotope_id", item.IsotopeID),
				)
				continue
			}
			summary.CurrentActivity += decay.ActivityAt(item.Activity, isotope.HalfLifeHours, now.Sub(item.DisposedAt).Hours())
			readyAt, err := s.itemDisposalReadyAt(item, isotope)
			if err != nil {
				continue
			}
			if readyAt.After(summary.DisposalReadyAt) {
				summary.DisposalReadyAt = readyAt
			}
		}
		summary.Tier = s.tiers.Classify(summary.CurrentActivity)
		return nil
	})
	return summary, err
}

// WasteItemDisposalReadyAt returns the projected instant at which a waste
// item's activity falls to the clearance threshold. Items already below the
// threshold return the disposal timestamp itself.
func (s *Service) WasteItemDisposalReadyAt(ctx context.Context, itemID string) (time.Time, error) {
	var readyAt time.Time
	err := s.store.View(ctx, func(view TransactionView) error {
		var item WasteItem
		found := false
		for _, candidate := range view.ListWasteItems() {
			if candidate.ID == itemID {
				item = candidate
				found = true
				break
			}
		}
		if !found {
			return domain.UnknownEntityError{Entity: EntityWasteItem, ID: itemID}
		}
		isotope, ok := view.FindIsotope(item.IsotopeID)
		if !ok {
			return domain.UnknownEntityError{Entity: EntityIsotope, ID: item.IsotopeID}
		}
		var err error
		readyAt, err = s.itemDisposalReadyAt(item, isotope)
		return err
	})
	return readyAt, err
}

func (s *Service) itemDisposalReadyAt(item WasteItem, isotope Isotope) (time.Time, error) {
	hours, err := decay.TimeToThreshold(item.Activity, isotope.HalfLifeHours, s.clearance)
	if err != nil {
		return time.Time{}, err
	}
	return item.DisposedAt.Add(time.Duration(hours * float64(time.Hour))), nil
}
