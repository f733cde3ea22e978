/*
 * nucleus - Virtual address descriptors.
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

// Inheritance selects what happens to a VAD's mapping across a fork-like
// duplication of an address space.
type Inheritance int

const (
	InheritCopy Inheritance = iota
	InheritShared
	InheritNone
)

// AnonRecord is a private, copy-on-write page: resident, holding a frame
// directly, or swapped out to a drum slot.
type AnonRecord struct {
	resident bool
	frame    *PageFrame
	slot     int
}

// VAD describes one [Start, End) range of a process's address space.
// VADs within one address space never overlap and are kept in ascending
// order by Start.
type VAD struct {
	Start, End    uintptr
	SectionOffset int64
	Prot          Prot
	MaxProt       Prot
	Inherit       Inheritance
	Object        *Object

	// cow is non-nil when this VAD is a private, copy-on-write view of
	// Object: a write fault copies the source page into a fresh
	// AnonRecord here instead of mutating the shared object.
	cow map[int64]*AnonRecord
}

// Len reports the VAD's size in bytes.
func (v *VAD) Len() uintptr { return v.End - v.Start }

// vadList is the per-address-space ordered sequence of VADs. A sorted
// slice stands in for the red-black tree the original kernel keeps;
// lookup, insertion and range-removal are all expressed as slice
// operations over a small number of mappings, which is the scale this
// module operates at.
type vadList struct {
	vads []*VAD
}

// find returns the index of the VAD containing addr, or -1.
func (l *vadList) find(addr uintptr) int {
	for i, v := range l.vads {
		if addr >= v.Start && addr < v.End {
			return i
		}
	}
	return -1
}

// insert adds v in Start order. Caller guarantees v doesn't overlap any
// existing VAD.
func (l *vadList) insert(v *VAD) {
	i := 0
	for i < len(l.vads) && l.vads[i].Start < v.Start {
		i++
	}
	l.vads = append(l.vads, nil)
	copy(l.vads[i+1:], l.vads[i:])
	l.vads[i] = v
}

// removeRange removes or splits every VAD intersecting [start, end),
// returning the VADs wholly or partially affected. Wholly contained VADs
// are dropped outright; partially overlapping VADs are trimmed or split
// into up to two remaining pieces.
func (l *vadList) removeRange(start, end uintptr) []*VAD {
	var affected []*VAD
	var kept []*VAD
	for _, v := range l.vads {
		if v.End <= start || v.Start >= end {
			kept = append(kept, v)
			continue
		}
		affected = append(affected, v)
		if v.Start < start {
			left := *v
			left.End = start
			kept = append(kept, &left)
		}
		if v.End > end {
			right := *v
			right.Start = end
			right.SectionOffset += int64(end - v.Start)
			kept = append(kept, &right)
		}
	}
	l.vads = kept
	l.sort()
	return affected
}

func (l *vadList) sort() {
	for i := 1; i < len(l.vads); i++ {
		for j := i; j > 0 && l.vads[j-1].Start > l.vads[j].Start; j-- {
			l.vads[j-1], l.vads[j] = l.vads[j], l.vads[j-1]
		}
	}
}

// overlaps reports whether any VAD intersects [start, end).
func (l *vadList) overlaps(start, end uintptr) bool {
	for _, v := range l.vads {
		if v.Start < end && start < v.End {
			return true
		}
	}
	return false
}
