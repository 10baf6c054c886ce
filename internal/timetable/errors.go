package timetable

import "errors"

var (
	// ErrInvalidTiming reports an unusable timing configuration.
	ErrInvalidTiming = errors.New("invalid timing configuration")
	// ErrMalformedEntry reports an entry that breaks the entry shape rules.
	ErrMalformedEntry = errors.New("malformed entry")
	// ErrSlotOccupied reports an insert into a range another entry covers.
	ErrSlotOccupied = errors.New("slot occupied")
	// ErrEntryNotFound reports that no entry covers the requested slot.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrLogEntryNotFound reports an unknown audit log id.
	ErrLogEntryNotFound = errors.New("log entry not found")
	// ErrRevertPrecondition reports a revert whose slot state has changed since the edit.
	ErrRevertPrecondition = errors.New("revert precondition failed")
	// ErrUnknownViewMode reports an unsupported projection mode.
	ErrUnknownViewMode = errors.New("unknown view mode")
)
