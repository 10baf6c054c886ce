package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
)

// LoadTimetableRequest is the solver's result envelope.
type LoadTimetableRequest struct {
	TotalGaps        int               `json:"totalGaps"`
	UnplacedLectures int               `json:"unplacedLectures"`
	FitnessScore     float64           `json:"fitnessScore"`
	Timetable        timetable.Payload `json:"timetable" validate:"required"`
}

// Stats extracts the solver quality figures.
func (r LoadTimetableRequest) Stats() models.SolverStats {
	return models.SolverStats{TotalGaps: r.TotalGaps, UnplacedLectures: r.UnplacedLectures, FitnessScore: r.FitnessScore}
}

// TimetableResponse returns the schedule in the solver's shape.
type TimetableResponse struct {
	Version   int64               `json:"version"`
	Stats     *models.SolverStats `json:"stats,omitempty"`
	Timetable timetable.Payload   `json:"timetable"`
}

// EntitiesResponse lists what a view mode can select.
type EntitiesResponse struct {
	Mode     timetable.ViewMode `json:"mode"`
	Entities []string           `json:"entities"`
}

// ViewResponse is a projected grid.
type ViewResponse struct {
	Version int64          `json:"version"`
	View    timetable.View `json:"view"`
}

// CellQuery selects one projected cell.
type CellQuery struct {
	Mode   string `form:"mode" validate:"required"`
	Entity string `form:"entity" validate:"required"`
	Day    string `form:"day" validate:"required"`
	Slot   int    `form:"slot" validate:"min=0"`
}

// CellResponse is the projection of one (day, slot).
type CellResponse struct {
	Found bool            `json:"found"`
	Cell  *timetable.Cell `json:"cell,omitempty"`
}

// FreeRoomsQuery selects a (day, slot).
type FreeRoomsQuery struct {
	Day  string `form:"day" validate:"required"`
	Slot int    `form:"slot" validate:"min=0"`
}

// GroupRequest is one parallel elective offering.
type GroupRequest struct {
	Subject string `json:"subject" validate:"required"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// BatchRequest is one batch of a lab or tutorial.
type BatchRequest struct {
	Batch   string `json:"batch"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// AddEntryRequest is the manual edit dialog payload.
type AddEntryRequest struct {
	Division string         `json:"division" validate:"required"`
	Day      string         `json:"day" validate:"required"`
	Slot     int            `json:"slot" validate:"min=0"`
	Duration int            `json:"duration" validate:"min=1,max=4"`
	Type     string         `json:"type" validate:"required"`
	Subject  string         `json:"subject"`
	Teacher  string         `json:"teacher"`
	Room     string         `json:"room"`
	Groups   []GroupRequest `json:"groups,omitempty" validate:"dive"`
	Batches  []BatchRequest `json:"batches,omitempty" validate:"dive"`
}

// DeleteEntryRequest locates the entry to remove.
type DeleteEntryRequest struct {
	Division string `json:"division" validate:"required"`
	Day      string `json:"day" validate:"required"`
	Slot     int    `json:"slot" validate:"min=0"`
}

// EditResponse reports the log entry of a successful edit.
type EditResponse struct {
	Version  int64              `json:"version"`
	LogEntry timetable.LogEntry `json:"logEntry"`
}

// AuditQuery paginates the audit log.
type AuditQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// AuditEntry is one log line as exposed to clients.
type AuditEntry struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Action        timetable.Action   `json:"action"`
	Details       string             `json:"details"`
	OriginalEntry *timetable.Entry   `json:"originalEntry,omitempty"`
	SlotInfo      timetable.SlotInfo `json:"slotInfo"`
}
