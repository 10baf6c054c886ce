package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

const defaultRecessMinutes = 45

// TimeSlot is one visible row of the grid.
type TimeSlot struct {
	Label        string `json:"label"`
	VisualIndex  int    `json:"visualIndex"`
	BackendIndex int    `json:"backendIndex"`
	StartMinute  int    `json:"startMinute"`
	EndMinute    int    `json:"endMinute"`
}

// Recess is the break that consumes wall-clock time and one backend index
// but never a visual row.
type Recess struct {
	AfterSlot    int    `json:"afterSlot"`
	BackendIndex int    `json:"backendIndex"`
	Label        string `json:"label"`
	StartMinute  int    `json:"startMinute"`
	EndMinute    int    `json:"endMinute"`
}

// Grid is the slot layout derived from a timing configuration.
type Grid struct {
	Slots  []TimeSlot `json:"slots"`
	Days   []string   `json:"days"`
	Recess *Recess    `json:"recess,omitempty"`
}

// BuildGrid turns timing configuration into the ordered list of visual slots.
// An empty start time yields an empty grid.
func BuildGrid(cfg models.TimingConfig) (Grid, error) {
	grid := Grid{Days: append([]string(nil), cfg.WorkingDays...)}
	if strings.TrimSpace(cfg.StartTime) == "" {
		return grid, nil
	}
	start, err := ParseClock(cfg.StartTime)
	if err != nil {
		return Grid{}, err
	}
	if cfg.SlotDuration <= 0 {
		return Grid{}, fmt.Errorf("%w: slot duration must be positive", ErrInvalidTiming)
	}
	if cfg.TotalSlots < 0 {
		return Grid{}, fmt.Errorf("%w: total slots must not be negative", ErrInvalidTiming)
	}
	recessMinutes := cfg.RecessDuration
	if recessMinutes <= 0 {
		recessMinutes = defaultRecessMinutes
	}

	grid.Slots = make([]TimeSlot, 0, cfg.TotalSlots)
	cursor := start
	for i := 0; i < cfg.TotalSlots; i++ {
		slot := TimeSlot{
			VisualIndex:  i,
			BackendIndex: backendIndex(i, cfg.RecessAfterSlot),
			StartMinute:  cursor,
			EndMinute:    cursor + cfg.SlotDuration,
		}
		slot.Label = FormatRange(slot.StartMinute, slot.EndMinute)
		grid.Slots = append(grid.Slots, slot)
		cursor = slot.EndMinute

		if i+1 == cfg.RecessAfterSlot {
			grid.Recess = &Recess{
				AfterSlot:    cfg.RecessAfterSlot,
				BackendIndex: cfg.RecessAfterSlot,
				Label:        FormatRange(cursor, cursor+recessMinutes),
				StartMinute:  cursor,
				EndMinute:    cursor + recessMinutes,
			}
			cursor += recessMinutes
		}
	}
	return grid, nil
}

func backendIndex(visual, recessAfter int) int {
	if recessAfter > 0 && visual >= recessAfter {
		return visual + 1
	}
	return visual
}

// Configured reports whether the grid has any slots.
func (g Grid) Configured() bool {
	return len(g.Slots) > 0
}

// HasRecess reports whether a recess separator follows one of the slots.
func (g Grid) HasRecess() bool {
	return g.Recess != nil
}

// RecessLabel is the recess wall-clock range, or "" without a recess.
func (g Grid) RecessLabel() string {
	if g.Recess == nil {
		return ""
	}
	return g.Recess.Label
}

// BackendIndex maps a visual row to the store's slot numbering.
func (g Grid) BackendIndex(visual int) int {
	if g.Recess == nil {
		return visual
	}
	return backendIndex(visual, g.Recess.AfterSlot)
}

// VisualIndex maps a store slot back to a visual row. The recess index has no row.
func (g Grid) VisualIndex(backend int) (int, bool) {
	visual := backend
	if g.Recess != nil {
		switch {
		case backend == g.Recess.BackendIndex:
			return 0, false
		case backend > g.Recess.BackendIndex:
			visual = backend - 1
		}
	}
	if visual < 0 || visual >= len(g.Slots) {
		return 0, false
	}
	return visual, true
}

// SlotAt returns the visual slot for a store slot.
func (g Grid) SlotAt(backend int) (TimeSlot, bool) {
	visual, ok := g.VisualIndex(backend)
	if !ok {
		return TimeSlot{}, false
	}
	return g.Slots[visual], true
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: start time %q must be HH:MM", ErrInvalidTiming, raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidTiming, raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidTiming, raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

// FormatRange renders "HH:MM - HH:MM".
func FormatRange(start, end int) string {
	return FormatClock(start) + " - " + FormatClock(end)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Weekday resolves a working day label such as "Mon" or "Monday".
func Weekday(day string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	return wd, ok
}
