/*
 * nucleus - Pageable objects and page resolution.
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

// ObjectKind distinguishes what backs a pageable object's holes.
type ObjectKind int

const (
	KindAnonymous ObjectKind = iota
	KindVnodeBacked
)

// entryState is the resolution state of one page-offset in an object.
type entryState int

const (
	entryHole entryState = iota
	entryPresent
	entrySwapped
)

type pageEntry struct {
	state entryState
	frame *PageFrame
	slot  int // drum slot, valid when state == entrySwapped
}

// Object is a pageable object: an ordered offset->page mapping, backed by
// either zero-fill-on-demand anonymous pages or reads from a Vnode.
// Objects are shared-owned and destroyed only on last release.
type Object struct {
	mu    *ke.Mutex
	owner *ke.Thread // unused beyond documenting intended lock discipline

	kind  ObjectKind
	vnode Vnode

	pages map[int64]*pageEntry

	db       *PageDB
	drum     *Drum
	refCount int
}

// NewObject creates an empty pageable object of the given kind. vnode is
// ignored for anonymous objects.
func NewObject(cpu *ke.CPU, db *PageDB, drum *Drum, kind ObjectKind, vnode Vnode) *Object {
	return &Object{
		mu:       ke.NewMutex(cpu),
		kind:     kind,
		vnode:    vnode,
		pages:    make(map[int64]*pageEntry),
		db:       db,
		drum:     drum,
		refCount: 1,
	}
}

// Retain increments the object's reference count.
func (o *Object) Retain() { o.refCount++ }

// Release decrements the object's reference count; the caller must stop
// using the object once the count reaches zero.
func (o *Object) Release() int {
	o.refCount--
	return o.refCount
}

// lock acquires the object's sleepable mutex under thread t's identity.
func (o *Object) lock(t *ke.Thread) {
	res := o.mu.Acquire(t, -1)
	ke.Assert(res == ke.WaitSuccess, "vm: object lock wait result %v", res)
}

func (o *Object) unlock(t *ke.Thread) {
	o.mu.Release(t)
}

// Resolve looks up page-aligned offset, materialising it if necessary:
// a hole in an anonymous object is zero-filled, a hole in a vnode-backed
// object is read from the backing file, and a swapped page is paged in
// from the drum. The returned frame is not marked busy; the object lock
// is released before Resolve returns.
func (o *Object) Resolve(t *ke.Thread, cpu *ke.CPU, offset int64) (*PageFrame, error) {
	o.lock(t)
	defer o.unlock(t)
	return o.resolveLocked(cpu, offset)
}

func (o *Object) resolveLocked(cpu *ke.CPU, offset int64) (*PageFrame, error) {
	e, ok := o.pages[offset]
	if ok {
		switch e.state {
		case entryPresent:
			return e.frame, nil
		case entrySwapped:
			f, err := o.db.AllocPage(cpu, UseAnonymous)
			if err != nil {
				return nil, err
			}
			if err := o.drum.Read(e.slot, f.Bytes()); err != nil {
				o.db.FreePage(cpu, f)
				return nil, err
			}
			o.drum.Free(e.slot)
			f.owner = pageOwner{object: o, offset: offset}
			e.state = entryPresent
			e.frame = f
			e.slot = -1
			return f, nil
		}
	}

	// Hole.
	use := UseAnonymous
	if o.kind == KindVnodeBacked {
		use = UseFileBacked
	}
	f, err := o.db.AllocPage(cpu, use)
	if err != nil {
		return nil, err
	}
	if o.kind == KindVnodeBacked {
		if err := o.vnode.ReadPage(offset, f.Bytes()); err != nil {
			o.db.FreePage(cpu, f)
			return nil, err
		}
	}
	f.owner = pageOwner{object: o, offset: offset}
	o.pages[offset] = &pageEntry{state: entryPresent, frame: f, slot: -1}
	return f, nil
}

// persistEntryLocked writes offset's present entry to durable backing —
// the vnode for vnode-backed objects, a fresh drum slot for anonymous
// ones — and rewrites the entry so it no longer claims the frame. Caller
// holds the object lock. Returns the now-unclaimed frame, or nil if
// offset wasn't a present entry (already evicted by a concurrent pass).
func (o *Object) persistEntryLocked(cpu *ke.CPU, offset int64) (*PageFrame, error) {
	e, ok := o.pages[offset]
	if !ok || e.state != entryPresent {
		return nil, nil
	}
	frame := e.frame
	if o.kind == KindVnodeBacked {
		if err := o.vnode.WritePage(offset, frame.Bytes()); err != nil {
			return nil, err
		}
		delete(o.pages, offset)
		return frame, nil
	}
	slot, err := o.drum.Alloc()
	if err != nil {
		return nil, err
	}
	if err := o.drum.Write(slot, frame.Bytes()); err != nil {
		o.drum.Free(slot)
		return nil, err
	}
	o.pages[offset] = &pageEntry{state: entrySwapped, slot: slot}
	return frame, nil
}

// Pageout writes every present entry whose frame is neither wired nor
// busy to durable backing and frees its frame, replacing it with a swapped
// (or, for vnode-backed objects, hole) entry. Wired and busy entries are
// left in place.
func (o *Object) Pageout(t *ke.Thread, cpu *ke.CPU) error {
	o.lock(t)
	defer o.unlock(t)
	for offset, e := range o.pages {
		if e.state != entryPresent || e.frame.wireCount > 0 || e.frame.busy {
			continue
		}
		frame, err := o.persistEntryLocked(cpu, offset)
		if err != nil {
			return err
		}
		if frame != nil {
			o.db.FreePage(cpu, frame)
		}
	}
	return nil
}

// TryLock attempts to acquire the object's mutex without blocking,
// reporting false if another thread currently holds it.
func (o *Object) TryLock(t *ke.Thread) bool {
	return o.mu.Acquire(t, 0) == ke.WaitSuccess
}

// WritebackOffset attempts, without blocking, to persist offset's present
// page to durable backing so the page database can safely reclaim its
// frame. If the object is held by another thread it returns (nil, false,
// nil) immediately rather than stalling — the caller should retry a later
// pass. On success the returned frame is no longer claimed by the object;
// the caller is responsible for clearing the frame's dirty bit and owner
// back-pointer under the PFN lock before handing it back to the free
// queue.
func (o *Object) WritebackOffset(t *ke.Thread, cpu *ke.CPU, offset int64) (frame *PageFrame, locked bool, err error) {
	if !o.TryLock(t) {
		return nil, false, nil
	}
	defer o.unlock(t)
	frame, err = o.persistEntryLocked(cpu, offset)
	return frame, true, err
}

// InstallFixture directly sets offset to a present frame, bypassing
// Resolve. Used by tests to seed known page state.
func (o *Object) InstallFixture(offset int64, f *PageFrame) {
	f.owner = pageOwner{object: o, offset: offset}
	o.pages[offset] = &pageEntry{state: entryPresent, frame: f, slot: -1}
}
