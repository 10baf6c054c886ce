package timetable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(limit int) *Editor {
	ed := NewEditor(NewStore(), limit)
	seq := 0
	ed.newID = func() string {
		seq++
		return fmt.Sprintf("log-%d", seq)
	}
	return ed
}

func TestEditorAddRecordsLog(t *testing.T) {
	ed := newTestEditor(0)
	rec, err := ed.Add("SE-A", "Mon", theory(1, 2, "DBMS", "T1", "701"))
	require.NoError(t, err)

	assert.Equal(t, ActionAdd, rec.Action)
	assert.Equal(t, "Added DBMS to SE-A Mon slot 1", rec.Details)
	assert.Equal(t, SlotInfo{Division: "SE-A", Day: "Mon", Slot: 1}, rec.SlotInfo)
	assert.Len(t, ed.Log(), 1)

	_, err = ed.Add("SE-A", "Mon", theory(2, 1, "CN", "T2", "702"))
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.Len(t, ed.Log(), 1)
}

func TestEditorRevertDeleteRestoresEntry(t *testing.T) {
	ed := newTestEditor(0)
	lab := Entry{Slot: 0, Duration: 2, Type: TypeLab, Subject: "CN Lab", Batches: []Batch{
		{Batch: "B1", Subject: "CN Lab", Teacher: "T1", Room: "L1"},
		{Batch: "B2", Subject: "CN Lab", Teacher: "T2", Room: "L2"},
	}}
	require.NoError(t, ed.Store().Insert("SE-A", "Mon", lab))

	rec, err := ed.Delete("SE-A", "Mon", 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, rec.Action)
	assert.Empty(t, ed.Store().Get("SE-A", "Mon"))

	_, err = ed.Revert(rec.ID)
	require.NoError(t, err)
	restored := ed.Store().Get("SE-A", "Mon")
	require.Len(t, restored, 1)
	assert.Equal(t, lab, restored[0])
	assert.Empty(t, ed.Log())
}

func TestEditorRevertDeleteIntoOccupiedSlotFails(t *testing.T) {
	ed := newTestEditor(0)
	require.NoError(t, ed.Store().Insert("SE-A", "Mon", theory(2, 1, "DBMS", "T1", "701")))

	del, err := ed.Delete("SE-A", "Mon", 2)
	require.NoError(t, err)
	_, err = ed.Add("SE-A", "Mon", theory(2, 1, "CN", "T2", "702"))
	require.NoError(t, err)
	before := ed.Store().Get("SE-A", "Mon")

	_, err = ed.Revert(del.ID)
	assert.ErrorIs(t, err, ErrRevertPrecondition)
	assert.Equal(t, before, ed.Store().Get("SE-A", "Mon"))
	_, ok := ed.Find(del.ID)
	assert.True(t, ok, "log entry is kept for a later retry")
}

func TestEditorRevertIsNotLIFO(t *testing.T) {
	ed := newTestEditor(0)
	first, err := ed.Add("SE-A", "Mon", theory(0, 1, "A", "T1", "701"))
	require.NoError(t, err)
	second, err := ed.Add("SE-A", "Mon", theory(3, 1, "B", "T2", "702"))
	require.NoError(t, err)

	_, err = ed.Revert(first.ID)
	require.NoError(t, err)

	entries := ed.Store().Get("SE-A", "Mon")
	require.Len(t, entries, 1)
	assert.Equal(t, "B", entries[0].Subject)

	log := ed.Log()
	require.Len(t, log, 1)
	assert.Equal(t, second.ID, log[0].ID)
}

func TestEditorRevertAddRemovesWhateverCoversSlot(t *testing.T) {
	ed := newTestEditor(0)
	add, err := ed.Add("SE-A", "Mon", theory(0, 1, "A", "T1", "701"))
	require.NoError(t, err)

	_, err = ed.Delete("SE-A", "Mon", 0)
	require.NoError(t, err)
	_, err = ed.Revert(add.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	other, err := ed.Add("SE-A", "Mon", theory(0, 1, "Other", "T9", "799"))
	require.NoError(t, err)
	_, err = ed.Revert(add.ID)
	require.NoError(t, err)
	assert.Empty(t, ed.Store().Get("SE-A", "Mon"))

	_, found := ed.Find(add.ID)
	assert.False(t, found)
	_, found = ed.Find(other.ID)
	assert.True(t, found)
}

func TestEditorRevertUnknownID(t *testing.T) {
	ed := newTestEditor(0)
	_, err := ed.Revert("missing")
	assert.ErrorIs(t, err, ErrLogEntryNotFound)
}

func TestEditorLogIsBounded(t *testing.T) {
	ed := newTestEditor(3)
	for slot := 0; slot < 5; slot++ {
		_, err := ed.Add("SE-A", "Mon", theory(slot, 1, fmt.Sprintf("S%d", slot), "T", "R"))
		require.NoError(t, err)
	}
	log := ed.Log()
	require.Len(t, log, 3)
	assert.Equal(t, "log-5", log[0].ID)
	assert.Equal(t, "log-3", log[2].ID)
}

func TestEditorLoadClearsLog(t *testing.T) {
	ed := newTestEditor(0)
	_, err := ed.Add("SE-A", "Mon", theory(0, 1, "A", "T1", "701"))
	require.NoError(t, err)

	require.NoError(t, ed.Load(Payload{"SE-B": {"Tue": {theory(1, 1, "B", "T2", "702")}}}))
	assert.Empty(t, ed.Log())
	assert.Equal(t, []string{"SE-B"}, ed.Store().Divisions())
}
