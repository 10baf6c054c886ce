package models

// TimingConfig describes the daily bell schedule of a timetable.
type TimingConfig struct {
	StartTime       string   `json:"startTime"`
	SlotDuration    int      `json:"slotDuration"`
	RecessAfterSlot int      `json:"recessAfterSlot"`
	RecessDuration  int      `json:"recessDuration"`
	TotalSlots      int      `json:"totalSlots"`
	WorkingDays     []string `json:"workingDays"`
}

// DefaultTiming mirrors the wizard's initial timing step.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		StartTime:       "09:00",
		SlotDuration:    60,
		RecessAfterSlot: 4,
		RecessDuration:  45,
		TotalSlots:      9,
		WorkingDays:     []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
	}
}

// ClassConfig is one year group (e.g. SE) and how many divisions it has.
type ClassConfig struct {
	Name      string `json:"name" validate:"required"`
	Selected  bool   `json:"selected"`
	Divisions int    `json:"divisions" validate:"min=0,max=26"`
}

// SubjectType separates plain theory from elective slots.
type SubjectType string

const (
	SubjectTypeTheory   SubjectType = "THEORY"
	SubjectTypeElective SubjectType = "ELECTIVE"
)

// TheorySubject is a lecture subject taught to every division of a year.
type TheorySubject struct {
	ID         string      `json:"id"`
	Name       string      `json:"name" validate:"required"`
	Code       string      `json:"code"`
	Year       string      `json:"year" validate:"required"`
	WeeklyLoad int         `json:"weeklyLoad" validate:"min=0"`
	Type       SubjectType `json:"type"`
}

// LabSubject is a practical taught per batch.
type LabSubject struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code"`
	Year        string `json:"year" validate:"required"`
	BatchCount  int    `json:"batchCount" validate:"min=0"`
	LabsPerWeek int    `json:"labsPerWeek" validate:"min=0"`
	IsSpecial   bool   `json:"isSpecial"`
}

// Curriculum groups the subjects of a department.
type Curriculum struct {
	TheorySubjects []TheorySubject `json:"theorySubjects" validate:"dive"`
	LabSubjects    []LabSubject    `json:"labSubjects" validate:"dive"`
}

// Infrastructure holds the room catalogs in display order.
type Infrastructure struct {
	TheoryRooms        []string          `json:"theoryRooms"`
	LabRooms           []string          `json:"labRooms"`
	SpecialAssignments map[string]string `json:"specialAssignments,omitempty"`
}

// FacultyRole is the staff designation.
type FacultyRole string

const (
	FacultyRoleHOD         FacultyRole = "HOD"
	FacultyRoleDivIncharge FacultyRole = "Div Incharge"
	FacultyRoleFaculty     FacultyRole = "Faculty"
)

// Faculty is a teaching staff member.
type Faculty struct {
	ID         string      `db:"id" json:"id" validate:"required"`
	Name       string      `db:"name" json:"name" validate:"required"`
	ShortCode  string      `db:"short_code" json:"shortCode"`
	Role       FacultyRole `db:"role" json:"role"`
	Experience int         `db:"experience" json:"experience"`
	Shift      string      `db:"shift" json:"shift"`
}

// RoomKind distinguishes lecture halls from laboratories.
type RoomKind string

const (
	RoomKindTheory RoomKind = "THEORY"
	RoomKindLab    RoomKind = "LAB"
)

// Room is a roster row for a physical room.
type Room struct {
	Name     string   `db:"name" json:"name"`
	Kind     RoomKind `db:"kind" json:"kind"`
	Position int      `db:"position" json:"position"`
}

// SubjectAllocation is the solver-facing record of who teaches a subject in each division.
type SubjectAllocation struct {
	SubjectID   string            `json:"subjectId"`
	SubjectName string            `json:"subjectName"`
	Divisions   map[string]string `json:"divisions"`
}

// SolverStats are the quality figures reported alongside a generated timetable.
type SolverStats struct {
	TotalGaps        int     `json:"totalGaps"`
	UnplacedLectures int     `json:"unplacedLectures"`
	FitnessScore     float64 `json:"fitnessScore"`
}
