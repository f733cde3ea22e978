/*
 * nucleus - Machine-dependent mapping interface.
 *
 * Copyright 2026, nucleus contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package vm

// Prot is a protection bitmask.
type Prot uint8

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

// PageSize is PGSIZE: the fixed page granularity the whole VM subsystem
// works in.
const PageSize = 4096

// Pmap is the narrow machine-dependent mapping contract the fault handler
// and WSL eviction path drive. A real kernel implements this over actual
// page tables; SoftPmap below stands in for one in a hosted simulation.
type Pmap interface {
	// Enter installs a mapping from virt to frame with the given
	// protection, replacing any existing mapping at virt.
	Enter(virt uintptr, frame *PageFrame, prot Prot) error

	// Unenter removes the mapping at virt, if any, returning the frame
	// that was mapped there.
	Unenter(virt uintptr) (*PageFrame, bool)

	// UndirtyHarvest clears the dirty bit for the mapping at virt and
	// reports whether it was set (i.e. whether the page had been
	// written to since the mapping was installed or last harvested).
	UndirtyHarvest(virt uintptr) bool

	// Activate switches the current address space's root to this pmap.
	// A no-op for SoftPmap, which holds no TLB/hardware state.
	Activate()
}

// softEntry is one mapping held by a SoftPmap.
type softEntry struct {
	frame *PageFrame
	prot  Prot
	dirty bool
}

// SoftPmap is a plain map from virtual page number to frame, guarded by
// the owning address space's VM mutex rather than its own lock: callers
// are expected to already hold that mutex for every method here, matching
// how a real pmap's entries are protected by the containing map's lock.
type SoftPmap struct {
	entries map[uintptr]*softEntry
}

// NewSoftPmap allocates an empty software pmap.
func NewSoftPmap() *SoftPmap {
	return &SoftPmap{entries: make(map[uintptr]*softEntry)}
}

func (p *SoftPmap) Enter(virt uintptr, frame *PageFrame, prot Prot) error {
	p.entries[virt] = &softEntry{frame: frame, prot: prot}
	return nil
}

func (p *SoftPmap) Unenter(virt uintptr) (*PageFrame, bool) {
	e, ok := p.entries[virt]
	if !ok {
		return nil, false
	}
	delete(p.entries, virt)
	return e.frame, true
}

func (p *SoftPmap) UndirtyHarvest(virt uintptr) bool {
	e, ok := p.entries[virt]
	if !ok {
		return false
	}
	was := e.dirty
	e.dirty = false
	return was
}

func (p *SoftPmap) Activate() {}

// MarkDirty flags the mapping at virt as written. A real pmap learns this
// from hardware dirty bits on page-table entries; tests and the copy
// helpers in this package call it explicitly after a simulated write.
func (p *SoftPmap) MarkDirty(virt uintptr) {
	if e, ok := p.entries[virt]; ok {
		e.dirty = true
	}
}

// Lookup reports the frame currently mapped at virt, if any.
func (p *SoftPmap) Lookup(virt uintptr) (*PageFrame, Prot, bool) {
	e, ok := p.entries[virt]
	if !ok {
		return nil, 0, false
	}
	return e.frame, e.prot, true
}
