/*
 * nucleus - Physical page-frame database and queues.
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

// PageUse names what a frame is currently holding.
type PageUse int

const (
	UseFree PageUse = iota
	UseKernelWired
	UseAnonymous
	UseFileBacked
	UsePmapInternal
)

// PageQueue names which queue a frame is linked on.
type PageQueue int

const (
	QueueFree PageQueue = iota
	QueueKmem
	QueueWired
	QueueActive
	QueueInactive
	QueuePmap
)

func (q PageQueue) String() string {
	switch q {
	case QueueFree:
		return "free"
	case QueueKmem:
		return "kmem"
	case QueueWired:
		return "wired"
	case QueueActive:
		return "active"
	case QueueInactive:
		return "inactive"
	case QueuePmap:
		return "pmap"
	default:
		return "unknown"
	}
}

// pageOwner is the weak back-pointer from a frame to whatever logical
// entity it currently backs: an anonymous record, or a pageable object
// plus offset.
type pageOwner struct {
	anon   *AnonRecord
	object *Object
	offset int64
}

// PageFrame is the fixed per-physical-page record. Index in the
// database's frames slice is the frame's physical page number.
type PageFrame struct {
	PFN int

	use   PageUse
	queue PageQueue

	wireCount int
	refCount  int
	dirty     bool
	accessed  bool
	busy      bool

	owner pageOwner

	drumSlot int // -1 if not paged out

	qNext *PageFrame
	qPrev *PageFrame

	data [PageSize]byte
}

// Use reports what the frame currently holds. Racy without the PFN lock;
// for diagnostics.
func (f *PageFrame) Use() PageUse { return f.use }

// Queue reports which queue currently holds the frame.
func (f *PageFrame) Queue() PageQueue { return f.queue }

// Dirty reports the frame's dirty bit.
func (f *PageFrame) Dirty() bool { return f.dirty }

// Bytes exposes the frame's backing storage directly; callers must hold
// whatever lock (object mutex, PFN lock while busy) protects the frame.
func (f *PageFrame) Bytes() []byte { return f.data[:] }

type pageQueueHead struct {
	head, tail *PageFrame
	count      int
}

func (h *pageQueueHead) pushTail(f *PageFrame) {
	f.qNext = nil
	f.qPrev = h.tail
	if h.tail != nil {
		h.tail.qNext = f
	} else {
		h.head = f
	}
	h.tail = f
	h.count++
}

func (h *pageQueueHead) popHead() *PageFrame {
	f := h.head
	if f == nil {
		return nil
	}
	h.remove(f)
	return f
}

func (h *pageQueueHead) remove(f *PageFrame) {
	if f.qPrev != nil {
		f.qPrev.qNext = f.qNext
	} else if h.head == f {
		h.head = f.qNext
	}
	if f.qNext != nil {
		f.qNext.qPrev = f.qPrev
	} else if h.tail == f {
		h.tail = f.qPrev
	}
	f.qNext, f.qPrev = nil, nil
	h.count--
}

// PageDB is the physical-memory page-frame database: the fixed array of
// frames plus the six queues they move between. All mutation requires
// the PFN lock, a global spinlock at IPLDevice.
type PageDB struct {
	PFNLock *ke.Spinlock

	frames []PageFrame
	queues [6]pageQueueHead

	lowMemory *ke.Event
}

// NewPageDB allocates a page-frame database of nframes pages, all
// initially free. cpu is the home CPU used to arm the low-memory event
// (a process-wide dispatch object, not CPU-specific beyond needing one to
// signal on).
func NewPageDB(cpu *ke.CPU, nframes int) *PageDB {
	db := &PageDB{
		PFNLock:   ke.NewSpinlock(ke.IPLDevice),
		frames:    make([]PageFrame, nframes),
		lowMemory: ke.NewEvent(cpu, false, false),
	}
	for i := range db.frames {
		db.frames[i].PFN = i
		db.frames[i].drumSlot = -1
		db.queues[QueueFree].pushTail(&db.frames[i])
	}
	return db
}

// NumFrames reports the total number of physical frames managed.
func (db *PageDB) NumFrames() int { return len(db.frames) }

// FreeCount reports the number of frames currently on the free queue.
// Racy outside the PFN lock; for diagnostics only.
func (db *PageDB) FreeCount() int {
	return db.queues[QueueFree].count
}

// LowMemory is the event the pagedaemon waits on; signalled whenever an
// allocation drives the free queue below a low-water mark.
func (db *PageDB) LowMemory() *ke.Event { return db.lowMemory }

// changeQueueLocked moves f onto queue to, inferring its current queue
// from f.queue. Caller holds the PFN lock.
func (db *PageDB) changeQueueLocked(f *PageFrame, to PageQueue) {
	db.queues[f.queue].remove(f)
	f.queue = to
	db.queues[to].pushTail(f)
}

// allocLocked pops the head of the free queue, zeroing it before return.
// Caller holds the PFN lock. Returns nil if the free queue is empty.
func (db *PageDB) allocLocked(use PageUse) *PageFrame {
	f := db.queues[QueueFree].popHead()
	if f == nil {
		return nil
	}
	for i := range f.data {
		f.data[i] = 0
	}
	f.use = use
	f.refCount = 1
	f.wireCount = 0
	f.dirty = false
	f.accessed = false
	f.busy = false
	f.owner = pageOwner{}
	f.drumSlot = -1
	switch use {
	case UseKernelWired:
		f.queue = QueueWired
		db.queues[QueueWired].pushTail(f)
	default:
		f.queue = QueueActive
		db.queues[QueueActive].pushTail(f)
	}
	if db.queues[QueueFree].count < lowWaterFrames {
		db.lowMemory.Set()
	}
	return f
}

// lowWaterFrames is the free-queue threshold below which the pagedaemon
// is signalled.
const lowWaterFrames = 4

// AllocPage allocates and zeroes a physical frame for use, or returns
// ErrOutOfMemory if none are free. cpu is used only to acquire the PFN
// lock.
func (db *PageDB) AllocPage(cpu *ke.CPU, use PageUse) (*PageFrame, error) {
	ipl := db.PFNLock.Acquire(cpu)
	defer db.PFNLock.Release(cpu, ipl)
	f := db.allocLocked(use)
	if f == nil {
		return nil, ErrOutOfMemory
	}
	return f, nil
}

// FreePage returns f to the free queue. f must not be busy or wired.
func (db *PageDB) FreePage(cpu *ke.CPU, f *PageFrame) {
	ipl := db.PFNLock.Acquire(cpu)
	defer db.PFNLock.Release(cpu, ipl)
	ke.Assert(!f.busy, "vm: free of busy frame %d", f.PFN)
	ke.Assert(f.wireCount == 0, "vm: free of wired frame %d", f.PFN)
	f.use = UseFree
	f.owner = pageOwner{}
	f.drumSlot = -1
	db.changeQueueLocked(f, QueueFree)
}

// ChangeQueue moves f to queue to under the PFN lock.
func (db *PageDB) ChangeQueue(cpu *ke.CPU, f *PageFrame, to PageQueue) {
	ipl := db.PFNLock.Acquire(cpu)
	defer db.PFNLock.Release(cpu, ipl)
	db.changeQueueLocked(f, to)
}
