// Package alloc provides append-only space management for hsf file writing.
package alloc

import "sync"

// Allocator hands out disjoint byte ranges at the end of a container file.
// hsf never frees space: data regions are sized exactly at creation and
// metadata blocks are written once at close.
type Allocator struct {
	mu       sync.Mutex
	baseAddr uint64
	eofAddr  uint64
	stats    Stats
}

// Stats contains allocation statistics.
type Stats struct {
	Allocations  uint64 // number of allocations made
	BytesAlloc   uint64 // total bytes allocated
	LargestAlloc uint64 // largest single allocation
}

// New creates an Allocator starting at the given base address, typically
// right after the container header.
func New(baseAddr uint64) *Allocator {
	return &Allocator{baseAddr: baseAddr, eofAddr: baseAddr}
}

// Alloc reserves a block of the given size and returns its address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocLocked(size)
}

// AllocAligned reserves a block whose address is a multiple of alignment.
func (a *Allocator) AllocAligned(size, alignment uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eofAddr % alignment; rem != 0 {
			a.eofAddr += alignment - rem
		}
	}
	return a.allocLocked(size)
}

func (a *Allocator) allocLocked(size uint64) uint64 {
	if size == 0 {
		return a.eofAddr
	}

	addr := a.eofAddr
	a.eofAddr += size

	a.stats.Allocations++
	a.stats.BytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}
	return addr
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// BaseAddr returns the start of allocatable space.
func (a *Allocator) BaseAddr() uint64 {
	return a.baseAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
