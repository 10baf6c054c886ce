package timetable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ViewMode selects the viewpoint a grid is projected from.
type ViewMode string

const (
	ViewMaster    ViewMode = "MASTER"
	ViewTeacher   ViewMode = "TEACHER"
	ViewClassroom ViewMode = "CLASSROOM"
	ViewLab       ViewMode = "LAB"
)

// ParseViewMode accepts any casing of a known mode.
func ParseViewMode(raw string) (ViewMode, error) {
	mode := ViewMode(strings.ToUpper(strings.TrimSpace(raw)))
	switch mode {
	case ViewMaster, ViewTeacher, ViewClassroom, ViewLab:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, raw)
	}
}

// Cell is what one (day, slot) shows for the selected entity.
type Cell struct {
	Division   string  `json:"division"`
	DisplayDiv string  `json:"displayDiv"`
	Entry      Entry   `json:"entry"`
	Kind       Kind    `json:"kind"`
	Groups     []Group `json:"groups,omitempty"`
	Batches    []Batch `json:"batches,omitempty"`
	Start      bool    `json:"start"`
}

// Resolve finds what occupies slot on day from the viewpoint of entity.
// In the master view entity is a division; otherwise divisions are scanned in
// sorted order and the first matching entry wins.
func Resolve(store *Store, mode ViewMode, entity, day string, slot int) (Cell, bool) {
	if store == nil || entity == "" {
		return Cell{}, false
	}
	if mode == ViewMaster {
		entry, ok := store.FindCovering(entity, day, slot)
		if !ok {
			return Cell{}, false
		}
		return newCell(entity, entry, slot, entry.Groups, entry.Batches), true
	}

	field := fieldFor(mode)
	if field == nil {
		return Cell{}, false
	}
	var (
		result Cell
		found  bool
	)
	store.each(day, func(div string, e Entry) bool {
		if !e.Covers(slot) {
			return true
		}
		cell, ok := match(div, e, slot, entity, mode, field)
		if ok {
			result, found = cell, true
			return false
		}
		return true
	})
	return result, found
}

type fieldSelector func(teacher, room string) string

func fieldFor(mode ViewMode) fieldSelector {
	switch mode {
	case ViewTeacher:
		return func(teacher, _ string) string { return teacher }
	case ViewClassroom, ViewLab:
		return func(_, room string) string { return room }
	default:
		return nil
	}
}

func match(div string, e Entry, slot int, entity string, mode ViewMode, field fieldSelector) (Cell, bool) {
	parent := field(e.Teacher, e.Room) == entity

	var groups []Group
	for _, g := range e.Groups {
		if field(g.Teacher, g.Room) == entity {
			groups = append(groups, g)
		}
	}
	var batches []Batch
	for _, b := range e.Batches {
		if field(b.Teacher, b.Room) == entity {
			batches = append(batches, b)
		}
	}

	if !parent && len(groups) == 0 && len(batches) == 0 {
		return Cell{}, false
	}
	cell := newCell(div, e, slot, orGroups(groups, e.Groups), orBatches(batches, e.Batches))
	if !parent && len(batches) == 1 {
		label := batchLabel(div, batches[0], e.Batches)
		if mode == ViewTeacher {
			cell.DisplayDiv = fmt.Sprintf("%s (%s)", div, label)
		} else {
			cell.DisplayDiv = div + "-" + label
		}
	}
	return cell, true
}

// batchLabel drops the division prefix from a batch name, so "SE-A1" under
// "SE-A" reads "1". Unnamed batches are numbered by position.
func batchLabel(div string, b Batch, all []Batch) string {
	if name := strings.TrimSpace(b.Batch); name != "" {
		if stripped := strings.Replace(name, div, "", 1); stripped != "" {
			return stripped
		}
		return name
	}
	for i := range all {
		if all[i] == b {
			return fmt.Sprintf("B%d", i+1)
		}
	}
	return "B1"
}

func orGroups(matched, all []Group) []Group {
	if len(matched) == 0 {
		return all
	}
	return matched
}

func orBatches(matched, all []Batch) []Batch {
	if len(matched) == 0 {
		return all
	}
	return matched
}

func newCell(div string, e Entry, slot int, groups []Group, batches []Batch) Cell {
	return Cell{
		Division:   div,
		DisplayDiv: div,
		Entry:      e,
		Kind:       e.Kind(),
		Groups:     append([]Group(nil), groups...),
		Batches:    append([]Batch(nil), batches...),
		Start:      e.Slot == slot,
	}
}

// ViewCell is one rendered grid position.
type ViewCell struct {
	VisualIndex  int               `json:"visualIndex"`
	BackendIndex int               `json:"backendIndex"`
	Cell         *Cell             `json:"cell,omitempty"`
	FreeRooms    *RoomAvailability `json:"freeRooms,omitempty"`
}

// ViewRow is one working day of a rendered grid.
type ViewRow struct {
	Day   string     `json:"day"`
	Cells []ViewCell `json:"cells"`
}

// View is a fully projected grid.
type View struct {
	Mode   ViewMode   `json:"mode"`
	Entity string     `json:"entity"`
	Slots  []TimeSlot `json:"slots"`
	Recess *Recess    `json:"recess,omitempty"`
	Rows   []ViewRow  `json:"rows"`
}

// BuildView projects every (day, visual slot) of grid. When infra is given,
// empty master cells list the rooms free at that time.
func BuildView(store *Store, grid Grid, mode ViewMode, entity string, infra *models.Infrastructure) View {
	view := View{
		Mode:   mode,
		Entity: entity,
		Slots:  grid.Slots,
		Recess: grid.Recess,
		Rows:   make([]ViewRow, 0, len(grid.Days)),
	}
	for _, day := range grid.Days {
		row := ViewRow{Day: day, Cells: make([]ViewCell, 0, len(grid.Slots))}
		for _, slot := range grid.Slots {
			vc := ViewCell{VisualIndex: slot.VisualIndex, BackendIndex: slot.BackendIndex}
			if cell, ok := Resolve(store, mode, entity, day, slot.BackendIndex); ok {
				c := cell
				vc.Cell = &c
			} else if mode == ViewMaster && infra != nil {
				free := FreeRooms(store, *infra, day, slot.BackendIndex)
				vc.FreeRooms = &free
			}
			row.Cells = append(row.Cells, vc)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// Entities lists what can be selected in a view: divisions, faculty names,
// theory rooms or lab rooms.
func Entities(mode ViewMode, store *Store, faculty []models.Faculty, infra models.Infrastructure) []string {
	switch mode {
	case ViewMaster:
		return store.Divisions()
	case ViewTeacher:
		if len(faculty) > 0 {
			names := make([]string, 0, len(faculty))
			for _, f := range faculty {
				names = append(names, f.Name)
			}
			return names
		}
		return teachersInStore(store)
	case ViewClassroom:
		return append([]string(nil), infra.TheoryRooms...)
	case ViewLab:
		return append([]string(nil), infra.LabRooms...)
	default:
		return nil
	}
}

func teachersInStore(store *Store) []string {
	seen := make(map[string]struct{})
	add := func(name string) {
		if name != "" && name != Placeholder {
			seen[name] = struct{}{}
		}
	}
	for _, div := range store.Divisions() {
		for _, days := range store.data[div] {
			for _, e := range days {
				switch {
				case len(e.Groups) > 0:
					for _, g := range e.Groups {
						add(g.Teacher)
					}
				case len(e.Batches) > 0:
					for _, b := range e.Batches {
						add(b.Teacher)
					}
				default:
					add(e.Teacher)
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
