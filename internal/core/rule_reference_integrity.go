package core

import (
	"context"
	"fmt"

	"hotlabcore/pkg/domain"
)

// NewReferenceIntegrityRule returns a warn-severity rule reporting records
// that reference unknown isotopes or bins. Such records are also skipped by
// tick evaluation, so a single corrupt vial never hides the rest of the
// inventory; the warning keeps the problem visible.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	warn := func(entity domain.EntityType, id, msg string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "reference_integrity",
			Severity: domain.SeverityWarn,
			Message:  msg,
			Entity:   entity,
			EntityID: id,
		})
	}
	for _, v := range view.ListVials() {
		if _, ok := view.FindIsotope(v.IsotopeID); !ok {
			warn(domain.EntityVial, v.ID, fmt.Sprintf("vial %s references unknown isotope %s", v.ID, v.IsotopeID))
		}
	}
	for _, w := range view.ListWasteItems() {
		if _, ok := view.FindWasteBin(w.BinID); !ok {
			warn(domain.EntityWasteItem, w.ID, fmt.Sprintf("waste item %s references unknown bin %s", w.ID, w.BinID))
		}
	}
	for _, p := range view.ListPatientCases() {
		if _, ok := view.FindIsotope(p.IsotopeID); !ok {
			warn(domain.EntityPatientCase, p.ID, fmt.Sprintf("patient case %s references unknown isotope %s", p.ID, p.IsotopeID))
		}
	}
	return res, nil
}
