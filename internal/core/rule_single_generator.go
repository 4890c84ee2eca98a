package core

import (
	"context"
	"fmt"

	"hotlabcore/pkg/domain"
)

// NewSingleGeneratorRule returns the rule enforcing at most one active
// generator per isotope context with sane physical parameters.
func NewSingleGeneratorRule() domain.Rule {
	return singleGeneratorRule{}
}

type singleGeneratorRule struct{}

func (singleGeneratorRule) Name() string { return "single_generator" }

func (singleGeneratorRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	seen := make(map[string]bool)
	for _, g := range view.ListGenerators() {
		if seen[g.IsotopeID] {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "single_generator",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("multiple active generators for isotope %s", g.IsotopeID),
				Entity:   domain.EntityGenerator,
				EntityID: g.IsotopeID,
			})
		}
		seen[g.IsotopeID] = true
		if g.Efficiency <= 0 || g.Efficiency > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "single_generator",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("generator %s efficiency %.3f outside (0,1]", g.ID, g.Efficiency),
				Entity:   domain.EntityGenerator,
				EntityID: g.ID,
			})
		}
	}
	return res, nil
}
