/*
 * nucleus - Non-recursive mutexes.
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

// Mutex is a non-recursive dispatch object with ownership: only the owner
// may release it, and re-acquiring it while already owner deadlocks just
// as it would on real hardware (no recursion count is tracked).
type Mutex struct {
	Header
	cpu *CPU
}

// NewMutex allocates an unheld mutex.
func NewMutex(cpu *CPU) *Mutex {
	m := &Mutex{cpu: cpu}
	InitHeader(&m.Header, KindMutex, 1)
	return m
}

// Acquire blocks the calling thread until it owns the mutex or timeout
// elapses.
func (m *Mutex) Acquire(t *Thread, timeout time.Duration) WaitResult {
	return Wait(t, []*Header{&m.Header}, WaitAny, timeout)
}

// Release gives up ownership and wakes the next waiter, if any. Panics if
// the calling thread does not currently own the mutex: mutex release is
// owner-only and there is no priority inheritance to reason about
// instead.
func (m *Mutex) Release(t *Thread) {
	// Only the owner can make owner == t true, so this check is safe
	// before the lock is taken, and a failing assertion leaves
	// DispatcherLock free.
	Assert(m.owner == t, "mutex: release by non-owner thread %d (owner %v)", t.ID, m.owner)
	ipl := DispatcherLock.Acquire(m.cpu)
	m.owner = nil
	m.signalled = 1
	walkAndWake(&m.Header)
	DispatcherLock.Release(m.cpu, ipl)
}

// Owner reports the mutex's current owner, or nil if unheld. Racy outside
// the dispatcher lock; for diagnostics only.
func (m *Mutex) Owner() *Thread {
	return m.owner
}
