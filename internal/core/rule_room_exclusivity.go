package core

import (
	"context"
	"fmt"

	"hotlabcore/pkg/domain"
)

// NewRoomExclusivityRule returns the in-transaction rule enforcing that every
// room holds at most one patient and every patient holds at most one room.
// Command handlers reject conflicting assignments synchronously; this rule is
// the backstop that keeps any committed state consistent.
func NewRoomExclusivityRule() domain.Rule {
	return roomExclusivityRule{}
}

type roomExclusivityRule struct{}

func (roomExclusivityRule) Name() string { return "room_exclusivity" }

func (roomExclusivityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	perPatient := make(map[string]int)
	for _, a := range view.ListRoomAssignments() {
		perPatient[a.PatientID]++
		if _, ok := view.FindRoom(a.RoomID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "room_exclusivity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("assignment references unknown room %s", a.RoomID),
				Entity:   domain.EntityRoomAssignment,
				EntityID: a.RoomID,
			})
		}
	}
	for patientID, count := range perPatient {
		if count > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "room_exclusivity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("patient %s holds %d rooms", patientID, count),
				Entity:   domain.EntityRoomAssignment,
				EntityID: patientID,
			})
		}
	}
	return res, nil
}
