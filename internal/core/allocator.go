package core

import (
	"context"
	"sort"

	"hotlabcore/pkg/domain"
)

// RoomOccupancy pairs a room with its current occupant, if any.
type RoomOccupancy struct {
	Room        Room   `json:"room"`
	Occupied    bool   `json:"occupied"`
	PatientID   string `json:"patient_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// ReleaseRoom frees a patient's room explicitly. A no-op when the patient
// holds no room, so repeated releases are safe.
func (s *Service) ReleaseRoom(ctx context.Context, patientID string) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx Transaction) error {
		assignment, held := tx.FindAssignmentForPatient(patientID)
		if !held {
			return nil
		}
		return tx.DeleteRoomAssignment(assignment.RoomID)
	})
}

// AvailableRooms returns the unoccupied rooms, sorted by name.
func (s *Service) AvailableRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, room := range view.ListRooms() {
			if _, occupied := view.FindRoomAssignment(room.ID); occupied {
				continue
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

// RoomOccupancies returns the full room pool with occupancy, sorted by name.
func (s *Service) RoomOccupancies(ctx context.Context) ([]RoomOccupancy, error) {
	var out []RoomOccupancy
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, room := range view.ListRooms() {
			occ := RoomOccupancy{Room: room}
			if assignment, occupied := view.FindRoomAssignment(room.ID); occupied {
				occ.Occupied = true
				occ.PatientID = assignment.PatientID
				occ.PatientName = assignment.PatientName
			}
			out = append(out, occ)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room.Name < out[j].Room.Name })
	return out, nil
}

// IsRoomOccupied reports a single room's occupancy.
func (s *Service) IsRoomOccupied(ctx context.Context, roomID string) (bool, error) {
	var occupied bool
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindRoom(roomID); !ok {
			return domain.UnknownEntityError{Entity: EntityRoom, ID: roomID}
		}
		_, occupied = view.FindRoomAssignment(roomID)
		return nil
	})
	return occupied, err
}
