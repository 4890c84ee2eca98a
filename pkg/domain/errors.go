package domain

import "fmt"

// RoomUnavailableError is returned when a room assignment targets a room that
// is already occupied.
type RoomUnavailableError struct {
	RoomID     string
	OccupantID string
}

func (e RoomUnavailableError) Error() string {
	if e.OccupantID != "" {
		return fmt.Sprintf("room %s unavailable: occupied by patient %s", e.RoomID, e.OccupantID)
	}
	return fmt.Sprintf("room %s unavailable", e.RoomID)
}

// InvalidRequestError is returned for malformed command parameters, such as
// an empty additional-imaging region or a wait duration outside the allowed
// set.
type InvalidRequestError struct {
	Reason string
}

func (e InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// UnknownEntityError is returned when an operation references an entity id
// that does not exist.
type UnknownEntityError struct {
	Entity EntityType
	ID     string
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ArithmeticPreconditionError is returned when decay math is invoked with
// inputs outside its defined domain, e.g. equal parent and daughter
// half-lives or non-positive half-lives.
type ArithmeticPreconditionError struct {
	Reason string
}

func (e ArithmeticPreconditionError) Error() string {
	return fmt.Sprintf("arithmetic precondition violated: %s", e.Reason)
}
