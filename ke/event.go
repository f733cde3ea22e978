/*
 * nucleus - Event dispatch objects.
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

import "time"

// Event is a sticky or auto-reset dispatch object. A sticky event stays
// signalled once Set until explicitly Reset; an auto-reset event clears
// itself the instant a single waiter consumes it.
type Event struct {
	Header
	cpu *CPU
}

// NewEvent allocates an event. autoReset selects auto-reset semantics;
// initial is the event's starting signalled state.
func NewEvent(cpu *CPU, autoReset bool, initial bool) *Event {
	e := &Event{cpu: cpu}
	signalled := 0
	if initial {
		signalled = 1
	}
	InitHeader(&e.Header, KindEvent, signalled)
	e.autoReset = autoReset
	return e
}

// Set signals the event and wakes waiters in FIFO order. A sticky event
// wakes every waiter and stays signalled after the call; an auto-reset
// event wakes at most one waiter and reverts to unsignalled the moment
// that waiter consumes it.
func (e *Event) Set() {
	ipl := DispatcherLock.Acquire(e.cpu)
	e.signalled = 1
	walkAndWake(&e.Header)
	DispatcherLock.Release(e.cpu, ipl)
}

// Reset clears the event's signalled state without waking anyone.
func (e *Event) Reset() {
	ipl := DispatcherLock.Acquire(e.cpu)
	e.signalled = 0
	DispatcherLock.Release(e.cpu, ipl)
}

// Wait blocks the calling thread until the event is signalled or timeout
// elapses. Equivalent to Wait(t, []*Header{&e.Header}, WaitAny, timeout).
func (e *Event) Wait(t *Thread, timeout time.Duration) WaitResult {
	return Wait(t, []*Header{&e.Header}, WaitAny, timeout)
}

// walkAndWake walks hdr's wait-block queue in FIFO order, waking every
// waiter whose wait condition the current signal state now satisfies.
// Dispatcher lock must already be held by the caller.
func walkAndWake(hdr *Header) {
	block := hdr.waitHead
	for block != nil {
		next := block.next
		if !hdr.canConsume() {
			break
		}
		waiterMaybeWakeup(block.thread, hdr)
		block = next
	}
}
