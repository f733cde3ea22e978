/*
 * nucleus - Counting semaphores.
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

// Semaphore is a counting dispatch object. Its signalled count is the
// number of available units; Release adds to it, Wait takes one.
type Semaphore struct {
	Header
	cpu *CPU
}

// NewSemaphore allocates a semaphore with the given initial count.
func NewSemaphore(cpu *CPU, initial int) *Semaphore {
	Assert(initial >= 0, "semaphore: negative initial count %d", initial)
	s := &Semaphore{cpu: cpu}
	InitHeader(&s.Header, KindSemaphore, initial)
	return s
}

// Release adds n to the semaphore's count and wakes waiters in FIFO order
// until either the count or the waiter queue is exhausted.
func (s *Semaphore) Release(n int) {
	Assert(n > 0, "semaphore: release of non-positive count %d", n)
	ipl := DispatcherLock.Acquire(s.cpu)
	s.signalled += n
	walkAndWake(&s.Header)
	DispatcherLock.Release(s.cpu, ipl)
}

// Wait blocks the calling thread until a unit is available or timeout
// elapses, then takes one unit.
func (s *Semaphore) Wait(t *Thread, timeout time.Duration) WaitResult {
	return Wait(t, []*Header{&s.Header}, WaitAny, timeout)
}

// Count reports the semaphore's current available count. Racy outside the
// dispatcher lock; for diagnostics only.
func (s *Semaphore) Count() int {
	return s.Signalled()
}
