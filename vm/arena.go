/*
 * nucleus - Kernel-wired boundary-tag arena.
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
	"sort"
	"sync"
)

// segment is one boundary-tagged range of a vmem arena: either free or
// allocated, never merged across the free/allocated boundary.
type segment struct {
	base uintptr
	size uintptr
	free bool
}

// Arena is a vmem-style boundary-tag allocator over a flat virtual
// address range. Allocation is best-fit among free segments; adjacent
// free segments are coalesced on release.
type Arena struct {
	mu   sync.Mutex
	segs []segment // kept sorted by base
}

// NewArena creates an arena spanning [base, base+size) as a single free
// segment.
func NewArena(base, size uintptr) *Arena {
	return &Arena{segs: []segment{{base: base, size: size, free: true}}}
}

// Alloc reserves a range of size bytes, naturally searching for the
// smallest free segment that fits (best-fit), and returns its base.
func (a *Arena) Alloc(size uintptr) (uintptr, error) {
	if size == 0 {
		return 0, ErrInvalidArgument
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	best := -1
	for i, s := range a.segs {
		if !s.free || s.size < size {
			continue
		}
		if best == -1 || s.size < a.segs[best].size {
			best = i
		}
	}
	if best == -1 {
		return 0, ErrOutOfMemory
	}

	s := a.segs[best]
	base := s.base
	if s.size == size {
		a.segs[best].free = false
		return base, nil
	}
	a.segs[best] = segment{base: base, size: size, free: false}
	rest := segment{base: base + size, size: s.size - size, free: true}
	a.segs = append(a.segs, segment{})
	copy(a.segs[best+2:], a.segs[best+1:])
	a.segs[best+1] = rest
	return base, nil
}

// AllocAt reserves exactly [base, base+size) if it lies wholly within a
// single free segment; otherwise returns ErrInvalidArgument (the region
// is occupied or out of range).
func (a *Arena) AllocAt(base, size uintptr) error {
	if size == 0 {
		return ErrInvalidArgument
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, s := range a.segs {
		if !s.free || base < s.base || base+size > s.base+s.size {
			continue
		}
		a.splitAllocLocked(i, base, size)
		return nil
	}
	return ErrInvalidArgument
}

// splitAllocLocked carves [base,base+size) out of free segment i, which
// must wholly contain that range. Caller holds a.mu.
func (a *Arena) splitAllocLocked(i int, base, size uintptr) {
	s := a.segs[i]
	var replacement []segment
	if base > s.base {
		replacement = append(replacement, segment{base: s.base, size: base - s.base, free: true})
	}
	replacement = append(replacement, segment{base: base, size: size, free: false})
	if end := s.base + s.size; base+size < end {
		replacement = append(replacement, segment{base: base + size, size: end - (base + size), free: true})
	}
	tail := append([]segment{}, a.segs[i+1:]...)
	a.segs = append(a.segs[:i], replacement...)
	a.segs = append(a.segs, tail...)
}

// Free releases [base, base+size), coalescing with free neighbours. Only
// a range that exactly matches one allocated segment is released; any
// other range is ignored.
func (a *Arena) Free(base, size uintptr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.segs {
		if a.segs[i].base == base && a.segs[i].size == size {
			a.segs[i].free = true
			a.coalesceLocked()
			return
		}
	}
}

// coalesceLocked merges adjacent free segments. Caller holds a.mu.
func (a *Arena) coalesceLocked() {
	sort.Slice(a.segs, func(i, j int) bool { return a.segs[i].base < a.segs[j].base })
	out := a.segs[:0]
	for _, s := range a.segs {
		if n := len(out); n > 0 && out[n-1].free && s.free && out[n-1].base+out[n-1].size == s.base {
			out[n-1].size += s.size
			continue
		}
		out = append(out, s)
	}
	a.segs = out
}

// FreeBytes reports the total free capacity remaining in the arena.
func (a *Arena) FreeBytes() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total uintptr
	for _, s := range a.segs {
		if s.free {
			total += s.size
		}
	}
	return total
}
