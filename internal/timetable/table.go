package timetable

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
)

const (
	dayHeader    = "Day"
	recessHeader = "Recess"
	partJoiner   = " | "
)

// SlotHeader is the export column title of a visual slot.
func SlotHeader(slot TimeSlot) string {
	return fmt.Sprintf("%s (Slot %d)", slot.Label, slot.VisualIndex+1)
}

// BuildTable lays out one row per working day and one column per visual slot
// for the selected view. Only the starting slot of an entry carries text;
// continuation columns stay blank and are recorded as a span.
func BuildTable(store *Store, grid Grid, mode ViewMode, entity string, faculty []models.Faculty) export.Dataset {
	codes := shortCodes(faculty)
	headers := []string{dayHeader}
	columns := make([]int, len(grid.Slots))
	for i, slot := range grid.Slots {
		columns[i] = len(headers)
		headers = append(headers, SlotHeader(slot))
		if grid.Recess != nil && i+1 == grid.Recess.AfterSlot {
			headers = append(headers, recessHeader)
		}
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("Timetable %s %s", mode, entity),
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(grid.Days)),
	}
	for rowIdx, day := range grid.Days {
		row := make(map[string]string, len(headers))
		for _, h := range headers {
			row[h] = ""
		}
		row[dayHeader] = day
		for i, slot := range grid.Slots {
			cell, ok := Resolve(store, mode, entity, day, slot.BackendIndex)
			if !ok || !cell.Start {
				continue
			}
			row[headers[columns[i]]] = CellText(cell, codes)
			if width := spanWidth(grid, i, cell.Entry); width > 1 {
				data.Spans = append(data.Spans, export.Span{Row: rowIdx, Column: columns[i], Width: width})
			}
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// spanWidth counts the visual columns an entry starting at visual slot i
// fills before the recess or the end of the day.
func spanWidth(grid Grid, i int, e Entry) int {
	width := 1
	for j := i + 1; j < len(grid.Slots); j++ {
		if grid.Recess != nil && j == grid.Recess.AfterSlot {
			break
		}
		if grid.Slots[j].BackendIndex >= e.End() {
			break
		}
		width++
	}
	return width
}

// CellText renders "subject - code (room)" for each offering of a cell.
func CellText(cell Cell, codes map[string]string) string {
	switch {
	case len(cell.Groups) > 0:
		parts := make([]string, len(cell.Groups))
		for i, g := range cell.Groups {
			parts[i] = partText(g.Subject, g.Teacher, g.Room, codes)
		}
		return strings.Join(parts, partJoiner)
	case len(cell.Batches) > 0:
		parts := make([]string, len(cell.Batches))
		for i, b := range cell.Batches {
			subject := b.Subject
			if subject == "" {
				subject = cell.Entry.Subject
			}
			parts[i] = partText(subject, b.Teacher, b.Room, codes)
		}
		return strings.Join(parts, partJoiner)
	default:
		return partText(cell.Entry.Subject, cell.Entry.Teacher, cell.Entry.Room, codes)
	}
}

func partText(subject, teacher, room string, codes map[string]string) string {
	if code, ok := codes[teacher]; ok {
		teacher = code
	}
	return fmt.Sprintf("%s - %s (%s)", subject, teacher, room)
}

func shortCodes(faculty []models.Faculty) map[string]string {
	codes := make(map[string]string, len(faculty))
	for _, f := range faculty {
		if f.ShortCode != "" {
			codes[f.Name] = f.ShortCode
		}
	}
	return codes
}

// BuildEvents turns a view into weekly calendar events. Each working day is
// anchored on its first occurrence at or after weekStart.
func BuildEvents(store *Store, grid Grid, mode ViewMode, entity string, faculty []models.Faculty, weekStart time.Time, weeks int, loc *time.Location) []export.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}
	if weeks < 1 {
		weeks = 1
	}
	codes := shortCodes(faculty)
	base := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, loc)

	var events []export.CalendarEvent
	for _, day := range grid.Days {
		wd, ok := Weekday(day)
		if !ok {
			continue
		}
		date := base.AddDate(0, 0, (int(wd)-int(base.Weekday())+7)%7)
		for i, slot := range grid.Slots {
			cell, found := Resolve(store, mode, entity, day, slot.BackendIndex)
			if !found || !cell.Start {
				continue
			}
			last := grid.Slots[i+spanWidth(grid, i, cell.Entry)-1]
			events = append(events, export.CalendarEvent{
				UID:         eventUID(mode, entity, cell.Division, day, slot.BackendIndex),
				Summary:     CellText(cell, codes),
				Description: fmt.Sprintf("%s %s", cell.DisplayDiv, cell.Entry.Type),
				Location:    cellRooms(cell),
				Start:       date.Add(time.Duration(slot.StartMinute) * time.Minute),
				End:         date.Add(time.Duration(last.EndMinute) * time.Minute),
				Weeks:       weeks,
			})
		}
	}
	return events
}

func cellRooms(cell Cell) string {
	var rooms []string
	switch {
	case len(cell.Groups) > 0:
		for _, g := range cell.Groups {
			rooms = append(rooms, g.Room)
		}
	case len(cell.Batches) > 0:
		for _, b := range cell.Batches {
			rooms = append(rooms, b.Room)
		}
	default:
		rooms = append(rooms, cell.Entry.Room)
	}
	return strings.Join(rooms, ", ")
}

func eventUID(mode ViewMode, entity, div, day string, slot int) string {
	clean := strings.NewReplacer(" ", "_", "/", "_", "@", "_")
	return fmt.Sprintf("%s-%s-%s-%s-%d@timetable-api",
		strings.ToLower(string(mode)), clean.Replace(entity), clean.Replace(div), strings.ToLower(day), slot)
}
