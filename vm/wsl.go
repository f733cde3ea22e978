/*
 * nucleus - Working-set list.
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

// wslEntry ties one WSL slot to a resident, pmap-mapped virtual address.
type wslEntry struct {
	vaddr uintptr
	next  *wslEntry
	prev  *wslEntry
}

// WorkingSet is a per-process bounded FIFO of resident, mapped virtual
// addresses. When full, inserting evicts the oldest entry: no
// second-chance scan, per the simplest policy the specification blesses.
type WorkingSet struct {
	limit   int
	count   int
	head    *wslEntry // oldest
	tail    *wslEntry // newest
	byVAddr map[uintptr]*wslEntry
}

// NewWorkingSet creates an empty working set bounded to limit entries.
func NewWorkingSet(limit int) *WorkingSet {
	return &WorkingSet{limit: limit, byVAddr: make(map[uintptr]*wslEntry)}
}

// Len reports the number of resident entries.
func (w *WorkingSet) Len() int { return w.count }

// Contains reports whether vaddr currently has a WSL entry.
func (w *WorkingSet) Contains(vaddr uintptr) bool {
	_, ok := w.byVAddr[vaddr]
	return ok
}

func (w *WorkingSet) pushTail(e *wslEntry) {
	e.next = nil
	e.prev = w.tail
	if w.tail != nil {
		w.tail.next = e
	} else {
		w.head = e
	}
	w.tail = e
	w.count++
}

func (w *WorkingSet) unlink(e *wslEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if w.head == e {
		w.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else if w.tail == e {
		w.tail = e.prev
	}
	e.next, e.prev = nil, nil
	w.count--
}

// Insert adds vaddr to the working set, evicting the oldest entry first
// if the set is already at its limit. Returns the evicted address, if
// any.
func (w *WorkingSet) Insert(vaddr uintptr) (evicted uintptr, didEvict bool) {
	if w.Contains(vaddr) {
		return 0, false
	}
	if w.count >= w.limit {
		oldest := w.head
		w.unlink(oldest)
		delete(w.byVAddr, oldest.vaddr)
		evicted, didEvict = oldest.vaddr, true
	}
	e := &wslEntry{vaddr: vaddr}
	w.pushTail(e)
	w.byVAddr[vaddr] = e
	return evicted, didEvict
}

// Remove drops vaddr's entry, if present, without evicting anything else.
func (w *WorkingSet) Remove(vaddr uintptr) bool {
	e, ok := w.byVAddr[vaddr]
	if !ok {
		return false
	}
	w.unlink(e)
	delete(w.byVAddr, vaddr)
	return true
}

// RemoveRange drops every entry with vaddr in [start, end), returning
// them. Used by deallocate.
func (w *WorkingSet) RemoveRange(start, end uintptr) []uintptr {
	var removed []uintptr
	for v := range w.byVAddr {
		if v >= start && v < end {
			removed = append(removed, v)
		}
	}
	for _, v := range removed {
		w.Remove(v)
	}
	return removed
}
