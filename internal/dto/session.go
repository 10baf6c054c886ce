package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
)

// CreateSessionRequest captures the wizard data collected before generation.
type CreateSessionRequest struct {
	Department     string                 `json:"department"`
	Timing         *models.TimingConfig   `json:"timing,omitempty"`
	Classes        []models.ClassConfig   `json:"classes" validate:"dive"`
	Curriculum     models.Curriculum      `json:"curriculum"`
	Faculty        []models.Faculty       `json:"faculty" validate:"dive"`
	Infrastructure *models.Infrastructure `json:"infrastructure,omitempty"`
}

// SessionResponse summarises one workspace.
type SessionResponse struct {
	ID             string                `json:"id"`
	Department     string                `json:"department,omitempty"`
	Version        int64                 `json:"version"`
	Timing         models.TimingConfig   `json:"timing"`
	Classes        []models.ClassConfig  `json:"classes"`
	Faculty        []models.Faculty      `json:"faculty"`
	Infrastructure models.Infrastructure `json:"infrastructure"`
	Divisions      []string              `json:"divisions"`
	EntryCount     int                   `json:"entryCount"`
	AuditCount     int                   `json:"auditCount"`
	Stats          *models.SolverStats   `json:"stats,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	ExpiresAt      time.Time             `json:"expiresAt"`
}

// UpdateTimingRequest replaces the bell schedule.
type UpdateTimingRequest struct {
	StartTime       string   `json:"startTime" validate:"omitempty"`
	SlotDuration    int      `json:"slotDuration" validate:"min=1,max=240"`
	RecessAfterSlot int      `json:"recessAfterSlot" validate:"min=0"`
	RecessDuration  int      `json:"recessDuration" validate:"min=0,max=240"`
	TotalSlots      int      `json:"totalSlots" validate:"min=1,max=15"`
	WorkingDays     []string `json:"workingDays" validate:"required,min=1,max=7,dive,required"`
}

// Timing converts the request into the model.
func (r UpdateTimingRequest) Timing() models.TimingConfig {
	return models.TimingConfig{
		StartTime:       r.StartTime,
		SlotDuration:    r.SlotDuration,
		RecessAfterSlot: r.RecessAfterSlot,
		RecessDuration:  r.RecessDuration,
		TotalSlots:      r.TotalSlots,
		WorkingDays:     r.WorkingDays,
	}
}

// GridResponse exposes the derived slot layout.
type GridResponse struct {
	Configured bool                `json:"configured"`
	Grid       timetable.Grid      `json:"grid"`
	Timing     models.TimingConfig `json:"timing"`
}
