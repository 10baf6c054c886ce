package timetable

import (
	"fmt"
	"sort"
)

// Payload is the solver's timetable: division -> day -> entries.
type Payload map[string]map[string][]Entry

// Store is the sparse schedule keyed by division and day. Entry ranges within
// one (division, day) never overlap. Store is not safe for concurrent use.
type Store struct {
	data map[string]map[string][]Entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]map[string][]Entry)}
}

// Load replaces the store contents after validating the whole payload.
// On error the store is left untouched.
func (s *Store) Load(payload Payload) error {
	next := make(map[string]map[string][]Entry, len(payload))
	for div, days := range payload {
		for day, entries := range days {
			list := make([]Entry, 0, len(entries))
			for _, entry := range entries {
				if err := entry.Validate(); err != nil {
					return fmt.Errorf("%s %s: %w", div, day, err)
				}
				for _, existing := range list {
					if existing.Overlaps(entry) {
						return fmt.Errorf("%s %s: slot %d overlaps slot %d: %w", div, day, entry.Slot, existing.Slot, ErrSlotOccupied)
					}
				}
				list = append(list, entry.Clone())
			}
			if next[div] == nil {
				next[div] = make(map[string][]Entry)
			}
			next[div][day] = list
		}
	}
	s.data = next
	return nil
}

// Get returns a copy of the entries for a division and day.
func (s *Store) Get(div, day string) []Entry {
	entries := s.data[div][day]
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// FindCovering returns the entry whose range covers slot.
func (s *Store) FindCovering(div, day string, slot int) (Entry, bool) {
	for _, e := range s.data[div][day] {
		if e.Covers(slot) {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// IsFree reports whether [slot, slot+duration) is unoccupied.
func (s *Store) IsFree(div, day string, slot, duration int) bool {
	probe := Entry{Slot: slot, Duration: duration}
	for _, e := range s.data[div][day] {
		if e.Overlaps(probe) {
			return false
		}
	}
	return true
}

// Insert appends entry unless its range intersects an existing one.
func (s *Store) Insert(div, day string, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	for _, e := range s.data[div][day] {
		if e.Overlaps(entry) {
			return fmt.Errorf("%w: %s %s slots %d-%d taken by %s", ErrSlotOccupied, div, day, e.Slot, e.End()-1, e.Subject)
		}
	}
	if s.data[div] == nil {
		s.data[div] = make(map[string][]Entry)
	}
	s.data[div][day] = append(s.data[div][day], entry.Clone())
	return nil
}

// Remove deletes the entry covering slot and returns it.
func (s *Store) Remove(div, day string, slot int) (Entry, error) {
	entries := s.data[div][day]
	for i, e := range entries {
		if !e.Covers(slot) {
			continue
		}
		next := make([]Entry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		next = append(next, entries[i+1:]...)
		s.data[div][day] = next
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w: %s %s slot %d", ErrEntryNotFound, div, day, slot)
}

// Divisions lists divisions in sorted order.
func (s *Store) Divisions() []string {
	divs := make([]string, 0, len(s.data))
	for div := range s.data {
		divs = append(divs, div)
	}
	sort.Strings(divs)
	return divs
}

// Days lists the days a division has entries on, sorted.
func (s *Store) Days(div string) []string {
	days := make([]string, 0, len(s.data[div]))
	for day, entries := range s.data[div] {
		if len(entries) > 0 {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// Count returns the total number of entries.
func (s *Store) Count() int {
	total := 0
	for _, days := range s.data {
		for _, entries := range days {
			total += len(entries)
		}
	}
	return total
}

// Snapshot returns a deep copy in the solver's shape.
func (s *Store) Snapshot() Payload {
	out := make(Payload, len(s.data))
	for div, days := range s.data {
		out[div] = make(map[string][]Entry, len(days))
		for day := range days {
			out[div][day] = s.Get(div, day)
		}
	}
	return out
}

// each visits every entry of a day across divisions in sorted division order.
func (s *Store) each(day string, fn func(div string, e Entry) bool) {
	for _, div := range s.Divisions() {
		for _, e := range s.data[div][day] {
			if !fn(div, e) {
				return
			}
		}
	}
}
