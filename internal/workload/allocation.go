package workload

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Preferences are one faculty member's fixed-size priority lists.
// Zero keys are empty slots.
type Preferences struct {
	Theory []OptionKey `json:"theory"`
	Lab    []OptionKey `json:"lab"`
}

func emptyPreferences() *Preferences {
	return &Preferences{
		Theory: make([]OptionKey, KindTheory.Capacity()),
		Lab:    make([]OptionKey, KindLab.Capacity()),
	}
}

func (p *Preferences) list(kind Kind) []OptionKey {
	if kind == KindLab {
		return p.Lab
	}
	return p.Theory
}

func (p *Preferences) clone() Preferences {
	return Preferences{
		Theory: append([]OptionKey(nil), p.Theory...),
		Lab:    append([]OptionKey(nil), p.Lab...),
	}
}

// Allocation maps faculty ids to their priority lists. It is a preference
// channel for the solver and is never read by the projection views.
type Allocation struct {
	order []string
	prefs map[string]*Preferences
}

// NewAllocation returns empty, padded lists for every faculty id.
func NewAllocation(facultyIDs []string) *Allocation {
	a := &Allocation{prefs: make(map[string]*Preferences, len(facultyIDs))}
	for _, id := range facultyIDs {
		a.ensure(id)
	}
	return a
}

func (a *Allocation) ensure(id string) *Preferences {
	if p, ok := a.prefs[id]; ok {
		return p
	}
	p := emptyPreferences()
	a.prefs[id] = p
	a.order = append(a.order, id)
	return p
}

// Faculty lists faculty ids in insertion order.
func (a *Allocation) Faculty() []string {
	return append([]string(nil), a.order...)
}

// Preferences returns a copy of one faculty member's lists.
func (a *Allocation) Preferences(facultyID string) (Preferences, bool) {
	p, ok := a.prefs[facultyID]
	if !ok {
		return Preferences{}, false
	}
	return p.clone(), true
}

// Snapshot copies every faculty member's lists.
func (a *Allocation) Snapshot() map[string]Preferences {
	out := make(map[string]Preferences, len(a.prefs))
	for id, p := range a.prefs {
		out[id] = p.clone()
	}
	return out
}

// Set fills one priority slot. The zero key empties it.
func (a *Allocation) Set(facultyID string, kind Kind, index int, key OptionKey) error {
	if index < 0 || index >= kind.Capacity() {
		return fmt.Errorf("%w: %s slot %d of %d", ErrSlotIndex, kind, index, kind.Capacity())
	}
	if !key.IsZero() && key.Kind != kind {
		return fmt.Errorf("%w: %s in %s list", ErrKindMismatch, key, kind)
	}
	p := a.ensure(facultyID)
	list := p.list(kind)
	if !key.IsZero() {
		for i, existing := range list {
			if i != index && existing == key {
				return fmt.Errorf("%w: %s", ErrDuplicateOption, key)
			}
		}
	}
	list[index] = key
	return nil
}

// Clear empties every list and keeps only the given roster.
func (a *Allocation) Clear(facultyIDs []string) {
	a.order = nil
	a.prefs = make(map[string]*Preferences, len(facultyIDs))
	for _, id := range facultyIDs {
		a.ensure(id)
	}
}

// Assigned returns the set of keys chosen in any list.
func (a *Allocation) Assigned() map[OptionKey]struct{} {
	set := make(map[OptionKey]struct{})
	for _, p := range a.prefs {
		for _, key := range append(append([]OptionKey(nil), p.Theory...), p.Lab...) {
			if !key.IsZero() {
				set[key] = struct{}{}
			}
		}
	}
	return set
}

// Missing lists the theory options no faculty member has chosen. Lab
// shortfall is not reported.
func (a *Allocation) Missing(theory []Option) []Option {
	assigned := a.Assigned()
	var missing []Option
	for _, opt := range theory {
		if _, ok := assigned[opt.Key]; !ok {
			missing = append(missing, opt)
		}
	}
	return missing
}

// Synchronize flattens the lists into per-subject records mapping each
// division to its faculty id, in faculty then priority order.
func (a *Allocation) Synchronize() []models.SubjectAllocation {
	var out []models.SubjectAllocation
	index := make(map[string]int)
	for _, id := range a.order {
		p := a.prefs[id]
		for _, key := range append(append([]OptionKey(nil), p.Theory...), p.Lab...) {
			if key.IsZero() || key.Subject == "" || key.Division == "" {
				continue
			}
			pos, ok := index[key.Subject]
			if !ok {
				pos = len(out)
				index[key.Subject] = pos
				out = append(out, models.SubjectAllocation{
					SubjectID:   key.Subject,
					SubjectName: key.Subject,
					Divisions:   make(map[string]string),
				})
			}
			out[pos].Divisions[key.Division] = id
		}
	}
	return out
}

// Rehydrate rebuilds lists from synchronized records. A division ending in a
// digit is a lab batch. Lists beyond capacity are truncated.
func Rehydrate(records []models.SubjectAllocation, facultyIDs []string) *Allocation {
	a := NewAllocation(facultyIDs)
	fill := make(map[string]map[Kind]int)
	for _, rec := range records {
		divs := make([]string, 0, len(rec.Divisions))
		for div := range rec.Divisions {
			divs = append(divs, div)
		}
		sort.Strings(divs)
		for _, div := range divs {
			teacherID := rec.Divisions[div]
			if teacherID == "" || div == "" {
				continue
			}
			kind := KindTheory
			if last := rune(div[len(div)-1]); unicode.IsDigit(last) {
				kind = KindLab
			}
			p := a.ensure(teacherID)
			if fill[teacherID] == nil {
				fill[teacherID] = make(map[Kind]int)
			}
			n := fill[teacherID][kind]
			if n >= kind.Capacity() {
				continue
			}
			p.list(kind)[n] = OptionKey{Subject: rec.SubjectName, Division: div, Kind: kind}
			fill[teacherID][kind] = n + 1
		}
	}
	return a
}
