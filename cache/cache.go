// Package cache models a set-associative instruction cache tag array. It is a
// functional model: it classifies accesses as hits or misses and tracks which
// lines are resident, but holds no data and charges no latency.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// NoWay marks the absence of a way, e.g. when a set has no invalid line.
const NoWay = -1

// ProbeResult is the outcome of a tag lookup.
type ProbeResult struct {
	// Hit indicates a valid line with a matching tag was found.
	Hit bool
	// Way is the matching way on a hit, NoWay otherwise.
	Way int
	// InvalidWay is the lowest-numbered invalid way of the set, or NoWay
	// when every way is valid. It is recorded on hits too.
	InvalidWay int
	// Index is the set the address maps to.
	Index int
	// Tag is the tag field of the address.
	Tag uint64
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Way is the way that now holds the line.
	Way int
	// Filled is true if the access allocated a line.
	Filled bool
	// Evicted is true if the allocation overwrote a valid line.
	Evicted bool
	// EvictedTag is the tag of the overwritten line (if Evicted is true).
	EvictedTag uint64
}

// Statistics holds cache access statistics.
type Statistics struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Fills     uint64
	Evictions uint64
}

// HitRate returns hits over accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses)
}

// Cache is a set-associative tag array with invalid-first, round-robin
// replacement. It exclusively owns its tag array and replacement pointer.
type Cache struct {
	config  Config
	decoder AddressDecoder

	// Akita cache directory for tag/valid state
	directory    *akitacache.DirectoryImpl
	victimFinder *RoundRobinVictimFinder

	stats Statistics
}

// New creates a new cache with the given configuration. The configuration is
// not validated; callers that take it from users should call Validate first.
func New(config Config) *Cache {
	victimFinder := NewRoundRobinVictimFinder(config.Associativity)

	return &Cache{
		config:  config,
		decoder: NewAddressDecoder(config),
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			victimFinder,
		),
		victimFinder: victimFinder,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Decoder returns the address decoder of the cache.
func (c *Cache) Decoder() AddressDecoder {
	return c.decoder
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// ReplacementPointer returns the way the round-robin pointer names.
func (c *Cache) ReplacementPointer() int {
	return c.victimFinder.Pointer()
}

// Reset invalidates every line, rewinds the replacement pointer and clears
// statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.victimFinder.Reset()
	c.stats = Statistics{}
}

func (c *Cache) set(index int) *akitacache.Set {
	sets := c.directory.GetSets()
	return &sets[index]
}

// Probe looks addr up. The replacement pointer advances before the tags are
// compared, whatever the outcome. Every way is examined, so the lowest
// invalid way is known even on a hit.
func (c *Cache) Probe(addr uint64) ProbeResult {
	c.victimFinder.Advance()
	c.stats.Accesses++

	result := ProbeResult{
		Way:        NoWay,
		InvalidWay: NoWay,
		Index:      c.decoder.Index(addr),
		Tag:        c.decoder.Tag(addr),
	}

	set := c.set(result.Index)
	for way := 0; way < c.config.Associativity; way++ {
		block := blockAt(set, way)
		switch {
		case block.IsValid && block.Tag == result.Tag:
			if !result.Hit {
				result.Hit = true
				result.Way = way
			}
		case !block.IsValid:
			if result.InvalidWay == NoWay {
				result.InvalidWay = way
			}
		}
	}

	if result.Hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}

	return result
}

// Fill allocates addr after a missing probe. probe must be the result of the
// Probe(addr) call made just before; no other probe may come in between.
// An invalid way recorded by the probe is filled first; otherwise the way
// under the replacement pointer is overwritten. Filling on a hit is a no-op.
func (c *Cache) Fill(addr uint64, probe ProbeResult) AccessResult {
	if probe.Hit {
		return AccessResult{Hit: true, Way: probe.Way}
	}

	index := c.decoder.Index(addr)
	tag := c.decoder.Tag(addr)
	set := c.set(index)

	var victim *akitacache.Block
	if probe.InvalidWay != NoWay {
		victim = blockAt(set, probe.InvalidWay)
	} else {
		victim = c.victimFinder.FindVictim(set)
	}

	result := AccessResult{
		Way:    victim.WayID,
		Filled: true,
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedTag = victim.Tag
	}

	victim.Tag = tag
	victim.IsValid = true
	c.stats.Fills++

	return result
}

// Access probes addr and allocates it on a miss, as one step.
func (c *Cache) Access(addr uint64) AccessResult {
	probe := c.Probe(addr)
	if probe.Hit {
		return AccessResult{Hit: true, Way: probe.Way}
	}

	return c.Fill(addr, probe)
}

// Contains reports whether addr is resident without touching the replacement
// pointer or statistics.
func (c *Cache) Contains(addr uint64) bool {
	tag := c.decoder.Tag(addr)
	for _, block := range c.set(c.decoder.Index(addr)).Blocks {
		if block.IsValid && block.Tag == tag {
			return true
		}
	}
	return false
}

// Line returns the valid bit and tag held by a way of a set.
func (c *Cache) Line(index, way int) (valid bool, tag uint64) {
	block := blockAt(c.set(index), way)
	if block == nil {
		return false, 0
	}
	return block.IsValid, block.Tag
}
