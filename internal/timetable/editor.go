package timetable

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLogLimit bounds the audit log when no limit is configured.
const DefaultLogLimit = 500

// Action is the kind of manual edit recorded in the log.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDelete Action = "DELETE"
)

// SlotInfo locates an edit.
type SlotInfo struct {
	Division string `json:"div"`
	Day      string `json:"day"`
	Slot     int    `json:"slotIdx"`
}

// LogEntry records one successful manual edit.
type LogEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	Details       string    `json:"details"`
	OriginalEntry *Entry    `json:"originalEntry,omitempty"`
	SlotInfo      SlotInfo  `json:"slotInfo"`
}

// Editor applies manual edits to a Store and keeps a revertible log.
// Any log entry can be reverted while its slot precondition holds.
type Editor struct {
	store *Store
	log   []LogEntry
	limit int
	now   func() time.Time
	newID func() string
}

// NewEditor wraps store. limit <= 0 selects DefaultLogLimit.
func NewEditor(store *Store, limit int) *Editor {
	if store == nil {
		store = NewStore()
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &Editor{
		store: store,
		limit: limit,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Store exposes the edited store for reads.
func (ed *Editor) Store() *Store {
	return ed.store
}

// Load replaces the schedule with a solver payload and clears the log.
func (ed *Editor) Load(payload Payload) error {
	if err := ed.store.Load(payload); err != nil {
		return err
	}
	ed.log = nil
	return nil
}

// Add inserts entry and records an ADD.
func (ed *Editor) Add(div, day string, entry Entry) (LogEntry, error) {
	if err := ed.store.Insert(div, day, entry); err != nil {
		return LogEntry{}, err
	}
	stored := entry.Clone()
	rec := ed.record(ActionAdd, fmt.Sprintf("Added %s to %s %s slot %d", describe(entry), div, day, entry.Slot), &stored, SlotInfo{Division: div, Day: day, Slot: entry.Slot})
	return rec, nil
}

// Delete removes the entry covering slot and records a DELETE holding it.
func (ed *Editor) Delete(div, day string, slot int) (LogEntry, error) {
	removed, err := ed.store.Remove(div, day, slot)
	if err != nil {
		return LogEntry{}, err
	}
	rec := ed.record(ActionDelete, fmt.Sprintf("Deleted %s from %s %s slot %d", describe(removed), div, day, removed.Slot), &removed, SlotInfo{Division: div, Day: day, Slot: removed.Slot})
	return rec, nil
}

// Revert undoes the logged edit and drops it from the log.
// A DELETE is restored only when its range is free again. An ADD removes
// whatever entry covers the logged slot.
func (ed *Editor) Revert(id string) (LogEntry, error) {
	idx := ed.indexOf(id)
	if idx < 0 {
		return LogEntry{}, fmt.Errorf("%w: %s", ErrLogEntryNotFound, id)
	}
	rec := ed.log[idx]
	info := rec.SlotInfo

	switch rec.Action {
	case ActionDelete:
		if rec.OriginalEntry == nil {
			return LogEntry{}, fmt.Errorf("%w: log entry %s has no original entry", ErrRevertPrecondition, id)
		}
		original := *rec.OriginalEntry
		if !ed.store.IsFree(info.Division, info.Day, original.Slot, original.Duration) {
			return LogEntry{}, fmt.Errorf("%w: %s %s slot %d is occupied", ErrRevertPrecondition, info.Division, info.Day, original.Slot)
		}
		if err := ed.store.Insert(info.Division, info.Day, original); err != nil {
			return LogEntry{}, err
		}
	case ActionAdd:
		current, ok := ed.store.FindCovering(info.Division, info.Day, info.Slot)
		if !ok {
			return LogEntry{}, fmt.Errorf("%w: %s %s slot %d", ErrEntryNotFound, info.Division, info.Day, info.Slot)
		}
		if _, err := ed.store.Remove(info.Division, info.Day, current.Slot); err != nil {
			return LogEntry{}, err
		}
	default:
		return LogEntry{}, fmt.Errorf("unknown action %q", rec.Action)
	}

	ed.log = append(ed.log[:idx:idx], ed.log[idx+1:]...)
	return rec, nil
}

// Log returns the audit log, newest first.
func (ed *Editor) Log() []LogEntry {
	out := make([]LogEntry, len(ed.log))
	for i, rec := range ed.log {
		out[len(ed.log)-1-i] = rec
	}
	return out
}

// Find returns a log entry by id.
func (ed *Editor) Find(id string) (LogEntry, bool) {
	if idx := ed.indexOf(id); idx >= 0 {
		return ed.log[idx], true
	}
	return LogEntry{}, false
}

func (ed *Editor) indexOf(id string) int {
	for i, rec := range ed.log {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (ed *Editor) record(action Action, details string, entry *Entry, info SlotInfo) LogEntry {
	rec := LogEntry{
		ID:            ed.newID(),
		Timestamp:     ed.now(),
		Action:        action,
		Details:       details,
		OriginalEntry: entry,
		SlotInfo:      info,
	}
	ed.log = append(ed.log, rec)
	if overflow := len(ed.log) - ed.limit; overflow > 0 {
		ed.log = append([]LogEntry(nil), ed.log[overflow:]...)
	}
	return rec
}

func describe(e Entry) string {
	if e.Subject == "" {
		return string(e.Type)
	}
	return e.Subject
}
