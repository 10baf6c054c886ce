package timetable

import "github.com/noah-isme/timetable-api/internal/models"

// RoomAvailability lists the rooms nobody uses at one (day, slot).
type RoomAvailability struct {
	FreeTheory []string `json:"freeTheory"`
	FreeLabs   []string `json:"freeLabs"`
}

// FreeRooms scans every division's entries covering slot on day and removes
// their rooms from the catalogs. Catalog order is preserved.
func FreeRooms(store *Store, infra models.Infrastructure, day string, slot int) RoomAvailability {
	occupied := make(map[string]struct{})
	mark := func(room string) {
		if room != "" && room != Placeholder {
			occupied[room] = struct{}{}
		}
	}
	if store != nil {
		store.each(day, func(_ string, e Entry) bool {
			if !e.Covers(slot) {
				return true
			}
			if len(e.Groups) > 0 {
				for _, g := range e.Groups {
					mark(g.Room)
				}
			} else {
				mark(e.Room)
			}
			for _, b := range e.Batches {
				mark(b.Room)
			}
			return true
		})
	}
	return RoomAvailability{
		FreeTheory: subtract(infra.TheoryRooms, occupied),
		FreeLabs:   subtract(infra.LabRooms, occupied),
	}
}

func subtract(catalog []string, occupied map[string]struct{}) []string {
	free := make([]string, 0, len(catalog))
	for _, room := range catalog {
		if _, taken := occupied[room]; !taken {
			free = append(free, room)
		}
	}
	return free
}
