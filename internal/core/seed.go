package core

import (
	"fmt"

	"hotlabcore/pkg/domain"
)

// DefaultRooms returns the fixed seven-room injection pool. Room ids are
// stable across restarts so assignments survive a reload.
func DefaultRooms() []Room {
	rooms := make([]Room, 0, 7)
	for n := 1; n <= 7; n++ {
		rooms = append(rooms, Room{
			Base: Base{ID: roomID(n)},
			Name: fmt.Sprintf("B%d", n),
		})
	}
	return rooms
}

func roomID(n int) string {
	return fmt.Sprintf("room-%d", n)
}

// DefaultIsotopes returns the reference tracer set: F-18 FDG (long uptake,
// delivered directly) and Tc-99m (short uptake, eluted from a Mo-99
// generator).
func DefaultIsotopes() []Isotope {
	mo99 := "mo-99"
	return []Isotope{
		{
			Base:          Base{ID: "f18-fdg"},
			Name:          "F-18 FDG",
			HalfLifeHours: 1.83,
			Uptake:        domain.UptakeLong,
		},
		{
			Base:                Base{ID: "tc-99m"},
			Name:                "Tc-99m",
			HalfLifeHours:       6.01,
			ParentID:            &mo99,
			ParentHalfLifeHours: 65.94,
			Uptake:              domain.UptakeShort,
		},
	}
}
