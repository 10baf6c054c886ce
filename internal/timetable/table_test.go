package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
)

func TestBuildTableMasterPopulatesStartOnly(t *testing.T) {
	grid, err := BuildGrid(timing(6, 4))
	require.NoError(t, err)
	store := NewStore()
	require.NoError(t, store.Insert("SE-A", "Mon", theory(0, 2, "DBMS", "Prof A", "701")))
	faculty := []models.Faculty{{ID: "f1", Name: "Prof A", ShortCode: "PA"}}

	data := BuildTable(store, grid, ViewMaster, "SE-A", faculty)

	require.Equal(t, []string{
		"Day",
		"09:00 - 10:00 (Slot 1)",
		"10:00 - 11:00 (Slot 2)",
		"11:00 - 12:00 (Slot 3)",
		"12:00 - 13:00 (Slot 4)",
		"Recess",
		"13:45 - 14:45 (Slot 5)",
		"14:45 - 15:45 (Slot 6)",
	}, data.Headers)
	require.Len(t, data.Rows, 2)

	mon := data.Record(0)
	assert.Equal(t, "Mon", mon[0])
	assert.Equal(t, "DBMS - PA (701)", mon[1])
	assert.Equal(t, "", mon[2])
	assert.Equal(t, []export.Span{{Row: 0, Column: 1, Width: 2}}, data.Spans)

	csv, err := export.NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(csv), `"Mon","DBMS - PA (701)","","",`)
}

func TestBuildTableSpansStopAtRecess(t *testing.T) {
	grid, err := BuildGrid(timing(6, 4))
	require.NoError(t, err)
	store := NewStore()
	require.NoError(t, store.Insert("SE-A", "Tue", theory(3, 3, "Project", "Assigned", "Dept")))

	data := BuildTable(store, grid, ViewMaster, "SE-A", nil)
	tue := data.Record(1)
	assert.Equal(t, "Project - Assigned (Dept)", tue[4])
	assert.Empty(t, data.Spans)
	assert.Equal(t, "", tue[6])
}

func TestBuildTableRecessAfterLastSlot(t *testing.T) {
	grid, err := BuildGrid(timing(3, 3))
	require.NoError(t, err)
	require.True(t, grid.HasRecess())
	assert.Equal(t, "12:00 - 12:45", grid.RecessLabel())

	data := BuildTable(NewStore(), grid, ViewMaster, "SE-A", nil)
	assert.Equal(t, []string{
		"Day",
		"09:00 - 10:00 (Slot 1)",
		"10:00 - 11:00 (Slot 2)",
		"11:00 - 12:00 (Slot 3)",
		"Recess",
	}, data.Headers)
}

func TestBuildTableJoinsParts(t *testing.T) {
	grid, err := BuildGrid(timing(4, 0))
	require.NoError(t, err)
	store := projectionStore(t)

	master := BuildTable(store, grid, ViewMaster, "SE-A", nil).Record(0)
	assert.Equal(t, "CN Lab - T3 (L1) | CN Lab - T4 (L2) | CN Lab - T5 (L2)", master[1])
	assert.Equal(t, "DMBI - T1 (701) | WEBX - T2 (702)", master[3])

	lab := BuildTable(store, grid, ViewLab, "L2", nil).Record(0)
	assert.Equal(t, "CN Lab - T4 (L2) | CN Lab - T5 (L2)", lab[1])

	room := BuildTable(store, grid, ViewClassroom, "702", nil).Record(0)
	assert.Equal(t, "WEBX - T2 (702)", room[3])
}

func TestBuildEventsAnchorsOnWeekStart(t *testing.T) {
	grid, err := BuildGrid(timing(6, 4))
	require.NoError(t, err)
	store := NewStore()
	require.NoError(t, store.Insert("SE-A", "Tue", theory(5, 2, "OS", "T6", "703")))

	weekStart := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	events := BuildEvents(store, grid, ViewMaster, "SE-A", nil, weekStart, 10, time.UTC)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, time.Date(2026, time.October, 13, 13, 45, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2026, time.October, 13, 15, 45, 0, 0, time.UTC), ev.End)
	assert.Equal(t, "OS - T6 (703)", ev.Summary)
	assert.Equal(t, "703", ev.Location)
	assert.Equal(t, 10, ev.Weeks)
}
