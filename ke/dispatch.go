/*
 * nucleus - Dispatch object header and wait blocks.
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

package ke

// DispatcherLock is the single global spinlock guarding every dispatch
// object's state and every thread's state/run-queue linkage. Lock order
// (see the VM package) places it last: process VM mutex -> object mutex ->
// PFN lock -> DispatcherLock.
var DispatcherLock = NewSpinlock(IPLHigh)

// ObjKind names the kind of a dispatch object, used to decide how a signal
// is consumed on wakeup.
type ObjKind int

const (
	KindEvent ObjKind = iota
	KindSemaphore
	KindMutex
	KindTimer
	KindMsgQueue
)

func (k ObjKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSemaphore:
		return "semaphore"
	case KindMutex:
		return "mutex"
	case KindTimer:
		return "timer"
	case KindMsgQueue:
		return "msgqueue"
	default:
		return "unknown"
	}
}

// Header is the common prefix of every waitable object. All mutation
// requires DispatcherLock.
type Header struct {
	Kind      ObjKind
	signalled int
	waitHead  *WaitBlock
	waitTail  *WaitBlock

	// Mutex-only fields.
	owner *Thread

	// Event-only field.
	autoReset bool
}

// InitHeader sets up a dispatch header of the given kind with an initial
// signalled count.
func InitHeader(h *Header, kind ObjKind, signalled int) {
	h.Kind = kind
	h.signalled = signalled
	h.waitHead = nil
	h.waitTail = nil
}

// Signalled reports the header's current signalled count. Callers outside
// the dispatcher lock get a racy snapshot; used for diagnostics only.
func (h *Header) Signalled() int {
	return h.signalled
}

// WaitBlock is a single (thread, object) pairing live for the duration of a
// wait.
type WaitBlock struct {
	thread *Thread
	obj    *Header
	next   *WaitBlock
	prev   *WaitBlock
	index  int // position in the owning thread's waitBlocks array
}

// enqueueWaiter appends a wait block to the tail of h's wait-block queue.
func (h *Header) enqueueWaiter(wb *WaitBlock) {
	wb.next = nil
	wb.prev = h.waitTail
	if h.waitTail != nil {
		h.waitTail.next = wb
	} else {
		h.waitHead = wb
	}
	h.waitTail = wb
}

// unlinkWaiter removes wb from h's wait-block queue.
func (h *Header) unlinkWaiter(wb *WaitBlock) {
	if wb.prev != nil {
		wb.prev.next = wb.next
	} else if h.waitHead == wb {
		h.waitHead = wb.next
	}
	if wb.next != nil {
		wb.next.prev = wb.prev
	} else if h.waitTail == wb {
		h.waitTail = wb.prev
	}
	wb.next, wb.prev = nil, nil
}

// canConsume reports whether h currently has a signal a waiter may
// consume, without mutating anything.
func (h *Header) canConsume() bool {
	switch h.Kind {
	case KindMutex:
		return h.signalled == 1
	default:
		return h.signalled > 0
	}
}

// consume performs the kind-specific signal consumption for thread
// acquiring h: decrementing a semaphore, taking mutex ownership, clearing
// an auto-reset event, or leaving a sticky event/timer untouched.
func (h *Header) consume(thread *Thread) {
	switch h.Kind {
	case KindSemaphore:
		h.signalled--
	case KindMutex:
		h.signalled = 0
		h.owner = thread
	case KindEvent:
		if h.autoReset {
			h.signalled = 0
		}
	case KindTimer, KindMsgQueue:
		// Timers and message-queue headers are left signalled; the
		// specific object wrapper (Timer, MsgQueue) manages its own
		// state beyond the shared header.
	}
}

// wakeableNow reports whether every object in blocks[:n] currently has a
// consumable signal, used by the "wait all" atomic-consumption path.
func wakeableNow(blocks []*WaitBlock) bool {
	for _, wb := range blocks {
		if !wb.obj.canConsume() {
			return false
		}
	}
	return true
}
