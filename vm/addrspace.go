/*
 * nucleus - Per-process address space: VAD tree, vmem and working set.
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

// AddressSpace is one process's virtual memory: its VAD tree, the vmem
// arena those VADs are allocated from, its working-set list and its
// pmap. All mutation requires the process VM mutex, a sleepable lock
// that sits above the object mutex and PFN lock in the kernel's lock
// order.
type AddressSpace struct {
	mu    *ke.Mutex
	cpu   *ke.CPU
	arena *Arena
	vads  vadList
	WSL   *WorkingSet
	Pmap  *SoftPmap
	db    *PageDB
}

// NewAddressSpace creates an address space spanning [base, base+size) of
// user virtual address space, with a working set bounded to wslLimit
// resident pages.
func NewAddressSpace(cpu *ke.CPU, db *PageDB, base, size uintptr, wslLimit int) *AddressSpace {
	return &AddressSpace{
		mu:    ke.NewMutex(cpu),
		cpu:   cpu,
		arena: NewArena(base, size),
		WSL:   NewWorkingSet(wslLimit),
		Pmap:  NewSoftPmap(),
		db:    db,
	}
}

func (a *AddressSpace) lock(t *ke.Thread) {
	res := a.mu.Acquire(t, -1)
	ke.Assert(res == ke.WaitSuccess, "vm: address space lock wait result %v", res)
}

func (a *AddressSpace) unlock(t *ke.Thread) {
	a.mu.Release(t)
}

// Map allocates size bytes of address space (at addr if exact is true,
// otherwise anywhere the arena can fit it), installs a VAD backed by
// object at the given offset/protection, and retains the object.
// Returns the chosen base address.
func (a *AddressSpace) Map(t *ke.Thread, object *Object, size uintptr, offset int64, prot, maxProt Prot, inherit Inheritance, exact bool, addr uintptr) (uintptr, error) {
	if size == 0 {
		return 0, ErrInvalidArgument
	}
	a.lock(t)
	defer a.unlock(t)

	var base uintptr
	var err error
	if exact {
		if err = a.arena.AllocAt(addr, size); err != nil {
			return 0, err
		}
		base = addr
	} else {
		base, err = a.arena.Alloc(size)
		if err != nil {
			return 0, err
		}
	}

	object.Retain()
	vad := &VAD{
		Start:         base,
		End:           base + size,
		SectionOffset: offset,
		Prot:          prot,
		MaxProt:       maxProt,
		Inherit:       inherit,
		Object:        object,
	}
	if inherit == InheritCopy {
		vad.cow = make(map[int64]*AnonRecord)
	}
	a.vads.insert(vad)
	return base, nil
}

// Allocate is Map against a freshly created anonymous object.
func (a *AddressSpace) Allocate(t *ke.Thread, drum *Drum, size uintptr, prot Prot) (uintptr, error) {
	obj := NewObject(a.cpu, a.db, drum, KindAnonymous, nil)
	return a.Map(t, obj, size, 0, prot, prot, InheritNone, false, 0)
}

// Deallocate unmaps [base, base+size): VADs wholly inside are removed
// and their objects released; partially overlapping VADs are split;
// pmap entries and WSL entries in the range are removed.
func (a *AddressSpace) Deallocate(t *ke.Thread, base, size uintptr) error {
	if size == 0 {
		return ErrInvalidArgument
	}
	a.lock(t)
	defer a.unlock(t)

	end := base + size
	if !a.vads.overlaps(base, end) {
		return ErrInvalidArgument
	}
	removed := a.vads.removeRange(base, end)
	for _, vad := range removed {
		switch {
		case vad.Start >= base && vad.End <= end:
			vad.Object.Release()
		case vad.Start < base && vad.End > end:
			// Split into two VADs that both reference the object.
			vad.Object.Retain()
		}
	}
	a.arena.Free(base, size)
	for _, v := range a.WSL.RemoveRange(base, end) {
		a.Pmap.Unenter(v)
	}
	return nil
}

// Protect adjusts the protection of [base, base+size), which must lie
// within the bounds of existing VADs, subject to each VAD's MaxProt.
func (a *AddressSpace) Protect(t *ke.Thread, base, size uintptr, newProt Prot) error {
	if size == 0 {
		return ErrInvalidArgument
	}
	a.lock(t)
	defer a.unlock(t)

	end := base + size
	for _, v := range a.vads.vads {
		if v.End <= base || v.Start >= end {
			continue
		}
		if newProt&^v.MaxProt != 0 {
			return ErrInvalidArgument
		}
		v.Prot = newProt
	}
	return nil
}

// vadAt returns the VAD covering addr, or nil. Caller holds a.mu.
func (a *AddressSpace) vadAt(addr uintptr) *VAD {
	i := a.vads.find(addr)
	if i < 0 {
		return nil
	}
	return a.vads.vads[i]
}
