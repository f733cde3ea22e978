/*
 * nucleus - Scheduler loop and voluntary yield/preemption.
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

// schedulerLoop is the per-CPU dispatcher: pick the run queue head (or the
// idle thread when empty), hand it the CPU, and block until it gives the
// CPU back (by yielding, waiting, or terminating).
//
// A real kernel holds the dispatcher lock across the switch itself and has
// the incoming thread release it from its first instructions (the
// switchipl field in the data model). Here the lock is released before the
// handoff: Go has no way for one goroutine to physically unlock a mutex
// that a different goroutine locked, and the scheduler loop and the thread
// goroutine are necessarily different goroutines. This is a deliberate
// simplification; it does not change any externally
// observable ordering the rest of the kernel depends on, since the next
// mutation of dispatcher state still requires re-acquiring the lock.
func (c *CPU) schedulerLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ipl := DispatcherLock.Acquire(c)
		next := c.dequeueRunnableHead()
		if next == nil {
			next = c.idle
		}
		next.state = ThreadRunning
		next.ticksLeft = next.quantum
		c.current = next
		c.rescheduleReason = RescheduleNone
		DispatcherLock.Release(c, ipl)

		next.resume <- struct{}{}
		<-c.yield
	}
}

// parkSelf gives the CPU back to the scheduler and blocks until the
// scheduler hands it back. Callers must already have moved the thread out
// of the running state (and released DispatcherLock) before calling this.
func parkSelf(t *Thread) {
	t.CPU.yield <- struct{}{}
	<-t.resume
}

// Yield voluntarily gives up the CPU: the thread goes to the tail of its
// home CPU's run queue and the scheduler picks whatever is next.
func Yield(t *Thread) {
	cpu := t.CPU
	ipl := DispatcherLock.Acquire(cpu)
	t.state = ThreadRunnable
	cpu.enqueueRunnableTail(t)
	DispatcherLock.Release(cpu, ipl)
	parkSelf(t)
}

// CheckPreempt is the cooperative safe point thread bodies call (and that
// Wait calls internally): if the current quantum has been exhausted by the
// hardclock, this yields the CPU exactly as a real preemption would,
// without needing to interrupt a running goroutine mid-instruction.
func CheckPreempt(t *Thread) {
	if t.CPU.rescheduleReason == RescheduleReasonTimeslice && t.CPU.current == t {
		Yield(t)
	}
}

// tickQuantum is called by the hardclock for the thread currently holding
// the CPU. When the quantum reaches zero it sets the reschedule reason and
// raises a DPC, matching "on reaching zero, the reschedule flag is set on
// that CPU and a DPC interrupt is raised."
func (c *CPU) tickQuantum() {
	cur := c.current
	if cur == nil || cur == c.idle {
		return
	}
	cur.ticksLeft--
	if cur.ticksLeft <= 0 {
		c.rescheduleReason = RescheduleReasonTimeslice
		c.QueueDPC(NewDPC(func(any) {
			// The timeslice DPC itself does nothing more: the flag it set
			// is observed by the running thread the next time it reaches
			// a preemption-safe point (CheckPreempt, Wait, or Yield).
		}, nil))
	}
}
