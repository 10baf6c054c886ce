package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// RosterRepository reads the department roster: faculty and room catalogs.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListFaculty returns active faculty ordered by name.
func (r *RosterRepository) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	const query = "SELECT id, name, short_code, role, experience, shift FROM faculty WHERE active = TRUE ORDER BY name ASC"
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// ListRooms returns active rooms of one kind in catalog order. An empty kind
// returns every room.
func (r *RosterRepository) ListRooms(ctx context.Context, kind models.RoomKind) ([]models.Room, error) {
	var (
		rooms []models.Room
		err   error
	)
	if kind == "" {
		const query = "SELECT name, kind, position FROM rooms WHERE active = TRUE ORDER BY kind ASC, position ASC, name ASC"
		err = r.db.SelectContext(ctx, &rooms, query)
	} else {
		const query = "SELECT name, kind, position FROM rooms WHERE active = TRUE AND kind = $1 ORDER BY position ASC, name ASC"
		err = r.db.SelectContext(ctx, &rooms, query, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Infrastructure groups active rooms into theory and lab catalogs.
func (r *RosterRepository) Infrastructure(ctx context.Context) (models.Infrastructure, error) {
	rooms, err := r.ListRooms(ctx, "")
	if err != nil {
		return models.Infrastructure{}, err
	}
	infra := models.Infrastructure{TheoryRooms: []string{}, LabRooms: []string{}}
	for _, room := range rooms {
		switch room.Kind {
		case models.RoomKindLab:
			infra.LabRooms = append(infra.LabRooms, room.Name)
		default:
			infra.TheoryRooms = append(infra.TheoryRooms, room.Name)
		}
	}
	return infra, nil
}
