package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// RoundRobinVictimFinder picks eviction candidates with a free-running
// pointer. The pointer moves once per cache access, not once per eviction,
// so the way it names depends only on how many accesses have happened.
type RoundRobinVictimFinder struct {
	ways int
	next int
}

// NewRoundRobinVictimFinder creates a finder for sets of the given
// associativity. The pointer comes out of reset at way 1 (mod ways).
func NewRoundRobinVictimFinder(ways int) *RoundRobinVictimFinder {
	f := &RoundRobinVictimFinder{ways: ways}
	f.Reset()
	return f
}

// Advance moves the pointer one way forward.
func (f *RoundRobinVictimFinder) Advance() {
	f.next = (f.next + 1) % f.ways
}

// Pointer returns the way the pointer currently names.
func (f *RoundRobinVictimFinder) Pointer() int {
	return f.next
}

// Reset puts the pointer back to its reset value.
func (f *RoundRobinVictimFinder) Reset() {
	f.next = 1 % f.ways
}

// FindVictim returns the lowest invalid block of the set, or the block under
// the pointer when every way holds a valid line.
func (f *RoundRobinVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	if way := lowestInvalidWay(set); way != NoWay {
		return blockAt(set, way)
	}

	return blockAt(set, f.next)
}

func lowestInvalidWay(set *akitacache.Set) int {
	lowest := NoWay
	for _, block := range set.Blocks {
		if !block.IsValid && (lowest == NoWay || block.WayID < lowest) {
			lowest = block.WayID
		}
	}
	return lowest
}

func blockAt(set *akitacache.Set, way int) *akitacache.Block {
	for _, block := range set.Blocks {
		if block.WayID == way {
			return block
		}
	}
	return nil
}
