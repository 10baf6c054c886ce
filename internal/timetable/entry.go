package timetable

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntryType is the solver's session category.
type EntryType string

const (
	TypeTheory   EntryType = "THEORY"
	TypeLab      EntryType = "LAB"
	TypeProject  EntryType = "PROJECT"
	TypeRemedial EntryType = "REMEDIAL"
	TypeElective EntryType = "ELECTIVE"
	TypeTutorial EntryType = "TUTORIAL"
)

// ParseEntryType accepts any casing of a known type.
func ParseEntryType(raw string) (EntryType, error) {
	t := EntryType(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case TypeTheory, TypeLab, TypeProject, TypeRemedial, TypeElective, TypeTutorial:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrMalformedEntry, raw)
	}
}

// Kind is the structural shape of an entry.
type Kind string

const (
	KindAtomic  Kind = "ATOMIC"
	KindSplit   Kind = "SPLIT"
	KindBatched Kind = "BATCHED"
)

// Kind returns the shape entries of this type take.
func (t EntryType) Kind() Kind {
	switch t {
	case TypeElective:
		return KindSplit
	case TypeLab, TypeTutorial:
		return KindBatched
	default:
		return KindAtomic
	}
}

// GroupSeparator joins parallel elective offerings on the wire.
const GroupSeparator = " / "

// Placeholder marks an unassigned teacher or room.
const Placeholder = "TBA"

// Group is one parallel offering of a split entry.
type Group struct {
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// Batch is one sub-group assignment of a batched entry.
type Batch struct {
	Batch   string `json:"batch,omitempty"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// Entry occupies [Slot, Slot+Duration) of one division's day.
// Split entries keep their offerings in Groups; Subject, Teacher and Room
// then hold the joined wire strings.
type Entry struct {
	Slot     int
	Duration int
	Type     EntryType
	Subject  string
	Teacher  string
	Room     string
	Groups   []Group
	Batches  []Batch
}

// NewSplitEntry builds an elective entry from its offerings.
func NewSplitEntry(slot, duration int, groups []Group) Entry {
	e := Entry{Slot: slot, Duration: duration, Type: TypeElective, Groups: append([]Group(nil), groups...)}
	e.joinGroups()
	return e
}

// Kind returns the entry's shape.
func (e Entry) Kind() Kind {
	return e.Type.Kind()
}

// End is the first slot after the entry.
func (e Entry) End() int {
	return e.Slot + e.Duration
}

// Covers reports whether slot falls inside the entry.
func (e Entry) Covers(slot int) bool {
	return slot >= e.Slot && slot < e.End()
}

// Overlaps reports whether the two half-open ranges intersect.
func (e Entry) Overlaps(other Entry) bool {
	return e.Slot < other.End() && other.Slot < e.End()
}

// Validate checks the shape rules every stored entry must satisfy.
func (e Entry) Validate() error {
	if e.Slot < 0 {
		return fmt.Errorf("%w: slot %d is negative", ErrMalformedEntry, e.Slot)
	}
	if e.Duration < 1 {
		return fmt.Errorf("%w: duration %d at slot %d", ErrMalformedEntry, e.Duration, e.Slot)
	}
	if _, err := ParseEntryType(string(e.Type)); err != nil {
		return err
	}
	if e.Kind() == KindSplit {
		if len(e.Groups) == 0 {
			return fmt.Errorf("%w: elective at slot %d has no groups", ErrMalformedEntry, e.Slot)
		}
		for _, g := range e.Groups {
			if strings.Contains(g.Subject+g.Teacher+g.Room, "/") {
				return fmt.Errorf("%w: elective offering %q at slot %d contains \"/\"", ErrMalformedEntry, g.Subject, e.Slot)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	c := e
	if e.Groups != nil {
		c.Groups = append([]Group(nil), e.Groups...)
	}
	if e.Batches != nil {
		c.Batches = append([]Batch(nil), e.Batches...)
	}
	return c
}

// Equal compares entries field by field, treating nil and empty lists alike.
func (e Entry) Equal(other Entry) bool {
	if e.Slot != other.Slot || e.Duration != other.Duration || e.Type != other.Type ||
		e.Subject != other.Subject || e.Teacher != other.Teacher || e.Room != other.Room {
		return false
	}
	if len(e.Groups) != len(other.Groups) || len(e.Batches) != len(other.Batches) {
		return false
	}
	for i := range e.Groups {
		if e.Groups[i] != other.Groups[i] {
			return false
		}
	}
	for i := range e.Batches {
		if e.Batches[i] != other.Batches[i] {
			return false
		}
	}
	return true
}

func (e *Entry) joinGroups() {
	subjects := make([]string, len(e.Groups))
	teachers := make([]string, len(e.Groups))
	rooms := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		subjects[i], teachers[i], rooms[i] = g.Subject, g.Teacher, g.Room
	}
	e.Subject = strings.Join(subjects, GroupSeparator)
	e.Teacher = strings.Join(teachers, GroupSeparator)
	e.Room = strings.Join(rooms, GroupSeparator)
}

// SplitGroups zips "/"-joined subject, teacher and room strings into groups.
// Part counts must agree.
func SplitGroups(subject, teacher, room string) ([]Group, error) {
	subjects := splitParts(subject)
	teachers := splitParts(teacher)
	rooms := splitParts(room)
	if len(subjects) != len(teachers) || len(subjects) != len(rooms) {
		return nil, fmt.Errorf("%w: elective has %d subjects, %d teachers, %d rooms",
			ErrMalformedEntry, len(subjects), len(teachers), len(rooms))
	}
	groups := make([]Group, len(subjects))
	for i := range subjects {
		groups[i] = Group{Subject: subjects[i], Teacher: teachers[i], Room: rooms[i]}
	}
	return groups, nil
}

func splitParts(raw string) []string {
	parts := strings.Split(raw, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// wireEntry is the solver's JSON shape.
type wireEntry struct {
	Slot     int     `json:"slot"`
	Duration int     `json:"duration"`
	Type     string  `json:"type"`
	Subject  string  `json:"subject"`
	Teacher  string  `json:"teacher"`
	Room     string  `json:"room"`
	Groups   []Group `json:"groups,omitempty"`
	Batches  []Batch `json:"batches,omitempty"`
}

// MarshalJSON emits the solver shape; split entries collapse to joined strings.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{
		Slot:     e.Slot,
		Duration: e.Duration,
		Type:     string(e.Type),
		Subject:  e.Subject,
		Teacher:  e.Teacher,
		Room:     e.Room,
		Batches:  e.Batches,
	}
	if e.Kind() == KindSplit && len(e.Groups) > 0 {
		joined := e.Clone()
		joined.joinGroups()
		w.Subject, w.Teacher, w.Room = joined.Subject, joined.Teacher, joined.Room
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the solver shape. Electives may carry explicit
// groups or joined strings; joined strings are split and validated.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := ParseEntryType(w.Type)
	if err != nil {
		return err
	}
	entry := Entry{
		Slot:     w.Slot,
		Duration: w.Duration,
		Type:     t,
		Subject:  w.Subject,
		Teacher:  w.Teacher,
		Room:     w.Room,
		Batches:  w.Batches,
	}
	if t.Kind() == KindSplit {
		groups := w.Groups
		if len(groups) == 0 {
			groups, err = SplitGroups(w.Subject, w.Teacher, w.Room)
			if err != nil {
				return fmt.Errorf("slot %d: %w", w.Slot, err)
			}
		}
		entry.Groups = groups
		entry.joinGroups()
	}
	*e = entry
	return nil
}
