package dto

import "github.com/noah-isme/timetable-api/internal/models"

// ExportQuery selects a view to render.
type ExportQuery struct {
	Mode      string              `form:"mode" json:"mode" validate:"required"`
	Entity    string              `form:"entity" json:"entity" validate:"required"`
	Format    models.ExportFormat `form:"format" json:"format"`
	WeekStart string              `form:"weekStart" json:"weekStart" validate:"omitempty,datetime=2006-01-02"`
	Weeks     int                 `form:"weeks" json:"weeks" validate:"min=0,max=52"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	SessionID string              `json:"sessionId"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
