/*
 * nucleus - Page fault handler.
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

import (
	"github.com/rcornwell/nucleus/ke"
)

// FaultKind names why a fault trapped.
type FaultKind int

const (
	FaultNotPresent FaultKind = iota
	FaultProtection
	FaultWriteCOW
)

// pageOffset rounds addr down to its containing page and returns both
// the page-aligned virtual address and the VAD-relative object offset.
func pageOffset(vad *VAD, addr uintptr) (vaddr uintptr, objOffset int64) {
	vaddr = addr &^ (PageSize - 1)
	return vaddr, vad.SectionOffset + int64(vaddr-vad.Start)
}

// classify determines the fault kind for an access to addr under vad.
func classify(vad *VAD, addr uintptr, write bool) FaultKind {
	if write && vad.Inherit == InheritCopy {
		return FaultWriteCOW
	}
	if write && vad.Prot&ProtWrite == 0 {
		return FaultProtection
	}
	return FaultNotPresent
}

// Fault resolves a page fault at virtual address addr in address space a
// on behalf of thread t. write indicates a write access. On success the
// faulting page is mapped into a.Pmap and recorded in a.WSL.
func (a *AddressSpace) Fault(t *ke.Thread, addr uintptr, write bool) error {
	a.lock(t)
	defer a.unlock(t)

	vad := a.vadAt(addr)
	if vad == nil {
		return ErrFault
	}

	kind := classify(vad, addr, write)
	if kind == FaultProtection {
		return ErrFault
	}

	vaddr, objOffset := pageOffset(vad, addr)

	if kind == FaultWriteCOW {
		return a.resolveCOWLocked(t, vad, vaddr, objOffset)
	}

	if rec, ok := vad.cow[objOffset]; ok {
		return a.installAnonLocked(vaddr, rec, vad.Prot)
	}

	frame, err := vad.Object.Resolve(t, a.cpu, objOffset)
	if err != nil {
		return err
	}
	return a.installLocked(vaddr, frame, vad.Prot)
}

// installLocked maps frame at vaddr and records it in the working set,
// evicting the oldest entry if the set is already full.
func (a *AddressSpace) installLocked(vaddr uintptr, frame *PageFrame, prot Prot) error {
	if err := a.Pmap.Enter(vaddr, frame, prot); err != nil {
		return err
	}
	if evicted, did := a.WSL.Insert(vaddr); did {
		a.evictLocked(evicted)
	}
	return nil
}

// installAnonLocked maps a private COW anon record at vaddr. A record that
// isn't resident gets a freshly allocated frame; its former contents are
// not read back from the drum.
func (a *AddressSpace) installAnonLocked(vaddr uintptr, rec *AnonRecord, prot Prot) error {
	if !rec.resident {
		f, err := a.db.AllocPage(a.cpu, UseAnonymous)
		if err != nil {
			return err
		}
		f.owner = pageOwner{anon: rec}
		rec.frame = f
		rec.resident = true
	}
	return a.installLocked(vaddr, rec.frame, prot)
}

// resolveCOWLocked handles a write fault against a copy-on-write VAD:
// the shared source page is copied into a fresh, process-private
// AnonRecord, which future faults at this offset resolve to instead of
// the shared object.
func (a *AddressSpace) resolveCOWLocked(t *ke.Thread, vad *VAD, vaddr uintptr, objOffset int64) error {
	if rec, ok := vad.cow[objOffset]; ok {
		return a.installAnonLocked(vaddr, rec, vad.Prot)
	}

	src, err := vad.Object.Resolve(t, a.cpu, objOffset)
	if err != nil {
		return err
	}
	dst, err := a.db.AllocPage(a.cpu, UseAnonymous)
	if err != nil {
		return err
	}
	copy(dst.Bytes(), src.Bytes())

	rec := &AnonRecord{resident: true, frame: dst}
	dst.owner = pageOwner{anon: rec}
	vad.cow[objOffset] = rec
	return a.installLocked(vaddr, dst, vad.Prot)
}

// evictLocked removes vaddr's pmap entry, harvesting its dirty bit into
// the underlying frame and moving the frame from the active to the
// inactive queue (or, if dirty, leaving it for the cleaner to write
// back before it can be reclaimed).
func (a *AddressSpace) evictLocked(vaddr uintptr) {
	dirty := a.Pmap.UndirtyHarvest(vaddr)
	frame, ok := a.Pmap.Unenter(vaddr)
	if !ok {
		return
	}
	if dirty {
		frame.dirty = true
	}
	a.db.ChangeQueue(a.cpu, frame, QueueInactive)
}
