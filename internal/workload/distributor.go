package workload

import (
	"math/rand"
	"time"
)

// Shuffler permutes n elements in place.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Distributor seeds an allocation by dealing shuffled options round-robin to
// faculty, respecting pool capacity. It makes no attempt at balance or quality.
type Distributor struct {
	rng Shuffler
}

// NewDistributor uses rng for shuffling; nil selects a time-seeded source.
func NewDistributor(rng Shuffler) *Distributor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Distributor{rng: rng}
}

// Distribute deals the theory and lab pools independently. Options that find
// no faculty member with spare capacity are left out.
func (d *Distributor) Distribute(theory, lab []Option, facultyIDs []string) *Allocation {
	alloc := NewAllocation(facultyIDs)
	if len(facultyIDs) == 0 {
		return alloc
	}
	d.deal(alloc, KindTheory, theory, facultyIDs)
	d.deal(alloc, KindLab, lab, facultyIDs)
	return alloc
}

func (d *Distributor) deal(alloc *Allocation, kind Kind, pool []Option, facultyIDs []string) {
	keys := make([]OptionKey, len(pool))
	for i, opt := range pool {
		keys[i] = opt.Key
	}
	d.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	counts := make(map[string]int, len(facultyIDs))
	capacity := kind.Capacity()
	ptr := 0
	for _, key := range keys {
		for i := 0; i < len(facultyIDs); i++ {
			idx := (ptr + i) % len(facultyIDs)
			id := facultyIDs[idx]
			if counts[id] >= capacity {
				continue
			}
			alloc.prefs[id].list(kind)[counts[id]] = key
			counts[id]++
			ptr = idx + 1
			break
		}
	}
}
