/*
 * nucleus - IPL-gated spinlocks.
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

import "sync"

// Spinlock pairs a mutex with the IPL a holder must be raised to. Acquiring
// raises the owning CPU's IPL and disables preemption for the duration of
// the critical section; a spinlock must never be held across a voluntary
// sleep.
type Spinlock struct {
	level IPL
	mu    sync.Mutex
}

// NewSpinlock creates a spinlock gated at the given level. level must be at
// least IPLDispatch: nothing below that needs cross-CPU mutual exclusion
// in this kernel.
func NewSpinlock(level IPL) *Spinlock {
	Assert(level >= IPLDispatch, "spinlock level %s below dispatch", level)
	return &Spinlock{level: level}
}

// Level reports the IPL this lock raises to.
func (s *Spinlock) Level() IPL {
	return s.level
}

// Acquire raises cpu's IPL to the lock's level, disables preemption and
// takes the underlying mutex. It returns the IPL in effect before the
// raise, to be passed to Release.
func (s *Spinlock) Acquire(cpu *CPU) IPL {
	prev := cpu.raiseIPL(s.level)
	s.mu.Lock()
	return prev
}

// Release drops the mutex and restores the CPU's IPL to prev, draining any
// DPCs that became eligible to run as a result.
func (s *Spinlock) Release(cpu *CPU, prev IPL) {
	s.mu.Unlock()
	cpu.lowerIPL(prev)
}
