package core

import "hotlabcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewRoomExclusivityRule())
	engine.Register(NewSingleGeneratorRule())
	engine.Register(NewReferenceIntegrityRule())
	return engine
}
