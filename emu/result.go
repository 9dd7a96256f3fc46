package emu

// AddrStats holds the fetch statistics of one instruction address.
type AddrStats struct {
	Addr     uint64 `json:"addr"`
	Mnemonic string `json:"instruction"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// Result holds per-address statistics of a simulation run.
type Result struct {
	// Entries maps each listed address to its statistics. Every instruction
	// of the program has an entry, executed or not.
	Entries map[uint64]*AddrStats

	// Order lists entry addresses in listing order.
	Order []uint64

	// InstructionsRetired is the number of instructions executed.
	InstructionsRetired uint64

	// Status is the state the simulation ended in.
	Status State

	// HaltPC is the address that had no instruction, when Status is
	// StateHaltedMissingAddress.
	HaltPC uint64
}

// NewResult creates a zeroed result with one entry per program instruction.
func NewResult(program Program) *Result {
	addrs := program.Addresses()
	r := &Result{
		Entries: make(map[uint64]*AddrStats, len(addrs)),
		Order:   addrs,
		Status:  StateRunning,
	}

	for _, addr := range addrs {
		stats := &AddrStats{Addr: addr}
		if inst, ok := program.Lookup(addr); ok {
			stats.Mnemonic = inst.Mnemonic
		}
		r.Entries[addr] = stats
	}

	return r
}

func (r *Result) record(addr uint64, mnemonic string, hit bool) {
	stats, ok := r.Entries[addr]
	if !ok {
		stats = &AddrStats{Addr: addr, Mnemonic: mnemonic}
		r.Entries[addr] = stats
		r.Order = append(r.Order, addr)
	}

	if hit {
		stats.Hits++
	} else {
		stats.Misses++
	}
}

// Rows returns the entries in listing order.
func (r *Result) Rows() []AddrStats {
	rows := make([]AddrStats, 0, len(r.Order))
	for _, addr := range r.Order {
		rows = append(rows, *r.Entries[addr])
	}
	return rows
}

// TotalHits returns the sum of hits over all addresses.
func (r *Result) TotalHits() uint64 {
	var total uint64
	for _, stats := range r.Entries {
		total += stats.Hits
	}
	return total
}

// TotalMisses returns the sum of misses over all addresses.
func (r *Result) TotalMisses() uint64 {
	var total uint64
	for _, stats := range r.Entries {
		total += stats.Misses
	}
	return total
}

// HitRate returns hits over retired instructions, or 0 if nothing retired.
func (r *Result) HitRate() float64 {
	if r.InstructionsRetired == 0 {
		return 0
	}
	return float64(r.TotalHits()) / float64(r.InstructionsRetired)
}
