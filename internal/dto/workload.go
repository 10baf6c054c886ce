package dto

import (
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/workload"
)

// WorkloadResponse is the allocation state plus unassigned theory.
type WorkloadResponse struct {
	Version     int64                           `json:"version"`
	Preferences map[string]workload.Preferences `json:"preferences"`
	Missing     []string                        `json:"missing"`
}

// WorkloadOptionsResponse lists the assignable options per pool.
type WorkloadOptionsResponse struct {
	Theory []workload.Option `json:"theory"`
	Lab    []workload.Option `json:"lab"`
}

// SetPreferenceRequest fills one priority slot. An empty value clears it.
type SetPreferenceRequest struct {
	FacultyID string `json:"facultyId" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=THEORY LAB theory lab"`
	Index     int    `json:"index" validate:"min=0"`
	Value     string `json:"value"`
}

// AllocationsRequest rehydrates the workload from synchronized records.
type AllocationsRequest struct {
	Allocations []models.SubjectAllocation `json:"allocations" validate:"dive"`
}

// AllocationsResponse exposes the solver-facing records.
type AllocationsResponse struct {
	Version     int64                      `json:"version"`
	Allocations []models.SubjectAllocation `json:"allocations"`
}
