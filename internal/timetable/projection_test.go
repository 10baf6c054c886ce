package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func projectionStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, store.Insert("SE-A", "Mon", NewSplitEntry(2, 1, []Group{
		{Subject: "DMBI", Teacher: "T1", Room: "701"},
		{Subject: "WEBX", Teacher: "T2", Room: "702"},
	})))
	require.NoError(t, store.Insert("SE-A", "Mon", Entry{Slot: 0, Duration: 2, Type: TypeLab, Subject: "CN Lab", Batches: []Batch{
		{Batch: "B1", Subject: "CN Lab", Teacher: "T3", Room: "L1"},
		{Batch: "B2", Subject: "CN Lab", Teacher: "T4", Room: "L2"},
		{Batch: "B3", Subject: "CN Lab", Teacher: "T5", Room: "L2"},
	}}))
	require.NoError(t, store.Insert("SE-B", "Mon", theory(2, 1, "OS", "T6", "703")))
	return store
}

func TestResolveMaster(t *testing.T) {
	store := projectionStore(t)

	cell, ok := Resolve(store, ViewMaster, "SE-A", "Mon", 1)
	require.True(t, ok)
	assert.Equal(t, "SE-A", cell.DisplayDiv)
	assert.False(t, cell.Start)
	assert.Len(t, cell.Batches, 3)

	_, ok = Resolve(store, ViewMaster, "SE-A", "Mon", 3)
	assert.False(t, ok)
}

func TestResolveElectiveByRoomShowsMatchingGroup(t *testing.T) {
	store := projectionStore(t)

	cell, ok := Resolve(store, ViewClassroom, "702", "Mon", 2)
	require.True(t, ok)
	assert.Equal(t, "SE-A", cell.Division)
	assert.Equal(t, KindSplit, cell.Kind)
	assert.Equal(t, []Group{{Subject: "WEBX", Teacher: "T2", Room: "702"}}, cell.Groups)
}

func TestResolveElectiveUsesTokenEquality(t *testing.T) {
	store := projectionStore(t)
	_, ok := Resolve(store, ViewClassroom, "70", "Mon", 2)
	assert.False(t, ok)
}

func TestResolveLabFiltersBatchesByRoom(t *testing.T) {
	store := projectionStore(t)

	cell, ok := Resolve(store, ViewLab, "L2", "Mon", 0)
	require.True(t, ok)
	assert.True(t, cell.Start)
	require.Len(t, cell.Batches, 2)
	assert.Equal(t, "B2", cell.Batches[0].Batch)
	assert.Equal(t, "B3", cell.Batches[1].Batch)
	assert.Equal(t, "SE-A", cell.DisplayDiv)

	cell, ok = Resolve(store, ViewLab, "L1", "Mon", 1)
	require.True(t, ok)
	assert.Equal(t, "SE-A-B1", cell.DisplayDiv)
}

func TestResolveBatchLabelDropsDivisionPrefix(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert("TE-B", "Tue", Entry{Slot: 0, Duration: 2, Type: TypeLab, Subject: "DS Lab", Batches: []Batch{
		{Batch: "TE-B1", Subject: "DS Lab", Teacher: "T1", Room: "L1"},
		{Subject: "DS Lab", Teacher: "T2", Room: "L2"},
	}}))

	cell, ok := Resolve(store, ViewTeacher, "T1", "Tue", 0)
	require.True(t, ok)
	assert.Equal(t, "TE-B (1)", cell.DisplayDiv)

	cell, ok = Resolve(store, ViewLab, "L2", "Tue", 1)
	require.True(t, ok)
	assert.Equal(t, "TE-B-B2", cell.DisplayDiv)
	assert.False(t, cell.Start)
}

func TestResolveTeacherScansDivisions(t *testing.T) {
	store := projectionStore(t)

	cell, ok := Resolve(store, ViewTeacher, "T6", "Mon", 2)
	require.True(t, ok)
	assert.Equal(t, "SE-B", cell.Division)
	assert.Equal(t, "OS", cell.Entry.Subject)

	cell, ok = Resolve(store, ViewTeacher, "T4", "Mon", 1)
	require.True(t, ok)
	assert.Equal(t, "SE-A (B2)", cell.DisplayDiv)

	_, ok = Resolve(store, ViewTeacher, "T6", "Tue", 2)
	assert.False(t, ok)
}

func TestBuildViewListsFreeRoomsForEmptyMasterCells(t *testing.T) {
	store := projectionStore(t)
	grid, err := BuildGrid(models.TimingConfig{StartTime: "09:00", SlotDuration: 60, RecessAfterSlot: 2, TotalSlots: 3, WorkingDays: []string{"Mon"}})
	require.NoError(t, err)
	infra := models.Infrastructure{TheoryRooms: []string{"701", "702", "703"}, LabRooms: []string{"L1", "L2"}}

	view := BuildView(store, grid, ViewMaster, "SE-B", &infra)
	require.Len(t, view.Rows, 1)
	cells := view.Rows[0].Cells
	require.Len(t, cells, 3)
	require.NotNil(t, cells[0].FreeRooms)
	assert.Equal(t, []string{"701", "702", "703"}, cells[0].FreeRooms.FreeTheory)
	assert.Empty(t, cells[0].FreeRooms.FreeLabs)

	view = BuildView(store, grid, ViewMaster, "SE-A", &infra)
	cells = view.Rows[0].Cells
	require.NotNil(t, cells[0].Cell)
	assert.True(t, cells[0].Cell.Start)
	require.NotNil(t, cells[1].Cell)
	assert.False(t, cells[1].Cell.Start)
	assert.Nil(t, cells[2].Cell)
	assert.Equal(t, 3, cells[2].BackendIndex)
	require.NotNil(t, cells[2].FreeRooms)
	assert.Equal(t, infra.LabRooms, cells[2].FreeRooms.FreeLabs)
}

func TestEntities(t *testing.T) {
	store := projectionStore(t)
	infra := models.Infrastructure{TheoryRooms: []string{"701"}, LabRooms: []string{"L1"}}

	assert.Equal(t, []string{"SE-A", "SE-B"}, Entities(ViewMaster, store, nil, infra))
	assert.Equal(t, []string{"701"}, Entities(ViewClassroom, store, nil, infra))
	assert.Equal(t, []string{"L1"}, Entities(ViewLab, store, nil, infra))
	assert.Equal(t, []string{"T1", "T2", "T3", "T4", "T5", "T6"}, Entities(ViewTeacher, store, nil, infra))
	assert.Equal(t, []string{"Prof A"}, Entities(ViewTeacher, store, []models.Faculty{{ID: "f1", Name: "Prof A"}}, infra))
}

func TestParseViewMode(t *testing.T) {
	mode, err := ParseViewMode("teacher")
	require.NoError(t, err)
	assert.Equal(t, ViewTeacher, mode)

	_, err = ParseViewMode("student")
	assert.ErrorIs(t, err, ErrUnknownViewMode)
}

func TestFreeRooms(t *testing.T) {
	store := projectionStore(t)
	infra := models.Infrastructure{TheoryRooms: []string{"701", "702", "703", "704"}, LabRooms: []string{"L1", "L2", "L3"}}

	free := FreeRooms(store, infra, "Mon", 2)
	assert.Equal(t, []string{"704"}, free.FreeTheory)
	assert.Equal(t, []string{"L1", "L2", "L3"}, free.FreeLabs)

	free = FreeRooms(store, infra, "Mon", 1)
	assert.Equal(t, []string{"701", "702", "703", "704"}, free.FreeTheory)
	assert.Equal(t, []string{"L3"}, free.FreeLabs)

	free = FreeRooms(store, infra, "Wed", 1)
	assert.Equal(t, infra.TheoryRooms, free.FreeTheory)
	assert.Equal(t, infra.LabRooms, free.FreeLabs)
}

func TestFreeRoomsAllOccupied(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert("SE-A", "Mon", theory(0, 1, "A", "T1", "701")))
	require.NoError(t, store.Insert("SE-B", "Mon", Entry{Slot: 0, Duration: 1, Type: TypeTutorial, Batches: []Batch{{Room: "L1"}}}))
	require.NoError(t, store.Insert("SE-C", "Mon", theory(0, 1, "C", "T3", Placeholder)))

	free := FreeRooms(store, models.Infrastructure{TheoryRooms: []string{"701"}, LabRooms: []string{"L1"}}, "Mon", 0)
	assert.Empty(t, free.FreeTheory)
	assert.Empty(t, free.FreeLabs)
}
