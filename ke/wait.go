/*
 * nucleus - The wait() primitive.
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

// WaitMode selects whether Wait is satisfied by any one object becoming
// signalled, or requires all of them simultaneously.
type WaitMode int

const (
	WaitAny WaitMode = iota
	WaitAll
)

// Wait blocks t until one (WaitAny) or all (WaitAll) of objs are
// signalled, or timeout elapses. A timeout of zero polls without ever
// marking the thread waiting; a negative timeout waits forever.
func Wait(t *Thread, objs []*Header, mode WaitMode, timeout time.Duration) WaitResult {
	cpu := t.CPU
	n := len(objs)
	Assert(n > 0, "wait: no objects given")
	Assert(n <= MaxWaitObjects, "wait: %d objects exceeds MaxWaitObjects", n)

	ipl := DispatcherLock.Acquire(cpu)

	if satisfied(objs, mode) {
		for _, o := range objs {
			if mode == WaitAny {
				if o.canConsume() {
					o.consume(t)
					break
				}
				continue
			}
			o.consume(t)
		}
		DispatcherLock.Release(cpu, ipl)
		return WaitSuccess
	}

	if timeout == 0 {
		DispatcherLock.Release(cpu, ipl)
		return WaitTimeout
	}

	// Slow path: enqueue a wait block on every object.
	t.waitMode = mode
	t.numWaits = n
	for i, o := range objs {
		wb := &t.waitBlocks[i]
		*wb = WaitBlock{thread: t, obj: o, index: i}
		o.enqueueWaiter(wb)
	}

	if timeout > 0 {
		armTimerLocked(cpu, &t.timer, timeout, waitTimeoutFired, t)
	}

	t.waitResult = WaitResultNone
	t.waitIPL = ipl
	t.state = ThreadWaiting
	DispatcherLock.Release(cpu, ipl)

	parkSelf(t)

	ipl2 := DispatcherLock.Acquire(cpu)
	for i := 0; i < n; i++ {
		wb := &t.waitBlocks[i]
		wb.obj.unlinkWaiter(wb)
	}
	if timeout > 0 {
		cancelTimerLocked(cpu, &t.timer)
	}
	result := t.waitResult
	t.numWaits = 0
	DispatcherLock.Release(cpu, ipl2)

	CheckPreempt(t)
	return result
}

// satisfied reports whether objs already meets mode's condition, with no
// side effects. Dispatcher lock must be held.
func satisfied(objs []*Header, mode WaitMode) bool {
	switch mode {
	case WaitAny:
		for _, o := range objs {
			if o.canConsume() {
				return true
			}
		}
		return false
	case WaitAll:
		for _, o := range objs {
			if !o.canConsume() {
				return false
			}
		}
		return true
	default:
		Assert(false, "wait: unknown mode %d", mode)
		return false
	}
}

// waitTimeoutFired is the embedded timer's DPC callback for a waiting
// thread: on expiry it wakes the thread with WaitTimeout, unless it has
// already been woken by a signal in the meantime.
func waitTimeoutFired(arg any) {
	t := arg.(*Thread)
	cpu := t.CPU
	ipl := DispatcherLock.Acquire(cpu)
	if t.state == ThreadWaiting {
		t.waitResult = WaitTimeout
		t.state = ThreadRunnable
		cpu.enqueueRunnableHead(t)
		cpu.rescheduleReason = RescheduleReasonSignalled
	}
	DispatcherLock.Release(cpu, ipl)
}

// waiterMaybeWakeup attempts to wake thread because hdr may now satisfy
// its wait. Dispatcher lock must be held. Returns true if the thread was
// woken, in which case every object it was waiting on (for WaitAll) has
// been atomically consumed.
func waiterMaybeWakeup(thread *Thread, hdr *Header) bool {
	if thread.state != ThreadWaiting {
		return false
	}
	switch thread.waitMode {
	case WaitAny:
		if !hdr.canConsume() {
			return false
		}
		hdr.consume(thread)
		wakeWaiter(thread, WaitSuccess)
		return true
	case WaitAll:
		blocks := thread.waitBlocks[:thread.numWaits]
		for i := range blocks {
			if !blocks[i].obj.canConsume() {
				return false
			}
		}
		for i := range blocks {
			blocks[i].obj.consume(thread)
		}
		wakeWaiter(thread, WaitSuccess)
		return true
	default:
		return false
	}
}

// wakeWaiter transitions a waiting thread to runnable and places it at the
// tail of its home CPU's run queue, so threads woken in FIFO order also run
// in that order. Dispatcher lock must be held.
func wakeWaiter(thread *Thread, result WaitResult) {
	thread.waitResult = result
	thread.state = ThreadRunnable
	thread.CPU.enqueueRunnableTail(thread)
	thread.CPU.rescheduleReason = RescheduleReasonSignalled
}
