/*
 * nucleus - Per-CPU control block.
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

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// RescheduleReason records why a CPU's reschedule flag was set.
type RescheduleReason int

const (
	RescheduleNone RescheduleReason = iota
	RescheduleReasonPreempted
	RescheduleReasonTimeslice
	RescheduleReasonSignalled
)

// DefaultQuantum is the number of hardclock ticks a thread runs before its
// timeslice is exhausted.
const DefaultQuantum = 10

// CPU is a per-CPU control block: run queue, idle thread, DPC queue and
// timer list. Every thread has exactly one home CPU, fixed at creation.
type CPU struct {
	ID int

	ipl IPL

	runMu    sync.Mutex
	runHead  *Thread
	runTail  *Thread
	runCount int

	idle    *Thread
	current *Thread

	dpcLock    *Spinlock
	dpcHead    *DPC
	dpcTail    *DPC
	pendingDPC atomic.Bool

	rescheduleReason RescheduleReason

	timerHead *Timer // sorted by absolute deadline, protected by dpcLock

	ticks atomic.Uint64

	// runSlot is handed to the thread the scheduler has chosen to run; the
	// scheduler loop blocks on yield until that thread gives the CPU back.
	runSlot chan struct{}
	yield   chan struct{}

	switchIPL IPL

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewCPU allocates a CPU control block and its idle thread, but does not
// start the scheduling loop; call Start for that.
func NewCPU(id int) *CPU {
	c := &CPU{
		ID:      id,
		ipl:     IPLPassive,
		runSlot: make(chan struct{}),
		yield:   make(chan struct{}),
		stop:    make(chan struct{}),
	}
	c.dpcLock = NewSpinlock(IPLDevice)
	c.idle = newIdleThread(c)
	return c
}

// Ticks reports the CPU's monotonic hardclock tick count.
func (c *CPU) Ticks() uint64 {
	return c.ticks.Load()
}

// CurrentThread reports the thread currently holding the CPU, or nil if
// the scheduler loop hasn't started yet.
func (c *CPU) CurrentThread() *Thread {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.current
}

// raiseIPL raises the CPU to at least level and returns the previous
// level. Raising is monotone: if the CPU is already at or above level
// (e.g. a per-CPU spinlock acquired while the dispatcher lock is already
// held at IPLHigh), the IPL simply doesn't change.
func (c *CPU) raiseIPL(level IPL) IPL {
	prev := c.ipl
	if level > prev {
		c.ipl = level
	}
	return prev
}

// lowerIPL restores the CPU to prev. If the IPL drops below IPLDispatch,
// pending DPCs are first drained at IPLDispatch. The reschedule flag is
// not examined here; threads observe it at CheckPreempt.
func (c *CPU) lowerIPL(prev IPL) {
	was := c.ipl
	Assert(prev <= was, "cpu %d: ipl lower %s -> %s not monotone", c.ID, was, prev)
	if was >= IPLDispatch && prev < IPLDispatch {
		c.ipl = IPLDispatch
		c.drainDPCs()
	}
	c.ipl = prev
}

// CurIPL reports the CPU's current IPL.
func (c *CPU) CurIPL() IPL {
	return c.ipl
}

// enqueueRunnableTail appends thread to the tail of the run queue. Caller must
// hold the dispatcher lock.
func (c *CPU) enqueueRunnableTail(t *Thread) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	t.runNext = nil
	t.runPrev = c.runTail
	if c.runTail != nil {
		c.runTail.runNext = t
	} else {
		c.runHead = t
	}
	c.runTail = t
	c.runCount++
}

// enqueueRunnableHead pushes thread to the head of the run queue (used when
// a wait is abandoned and the thread must run again promptly).
func (c *CPU) enqueueRunnableHead(t *Thread) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	t.runPrev = nil
	t.runNext = c.runHead
	if c.runHead != nil {
		c.runHead.runPrev = t
	} else {
		c.runTail = t
	}
	c.runHead = t
	c.runCount++
}

// dequeueRunnableHead pops the head of the run queue, or nil if empty.
func (c *CPU) dequeueRunnableHead() *Thread {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	t := c.runHead
	if t == nil {
		return nil
	}
	c.runHead = t.runNext
	if c.runHead != nil {
		c.runHead.runPrev = nil
	} else {
		c.runTail = nil
	}
	t.runNext = nil
	t.runPrev = nil
	c.runCount--
	return t
}

// RunQueueLen reports the number of runnable threads queued on this CPU,
// not counting the idle thread or the currently running thread.
func (c *CPU) RunQueueLen() int {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.runCount
}

func newIdleThread(cpu *CPU) *Thread {
	t := &Thread{
		Name:   "idle",
		CPU:    cpu,
		state:  ThreadRunnable,
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
	t.quantum = DefaultQuantum
	return t
}

// Start launches the CPU's scheduling loop and idle thread as goroutines.
func (c *CPU) Start() {
	c.wg.Add(1)
	go c.schedulerLoop()

	c.idle.state = ThreadRunnable
	c.enqueueRunnableTail(c.idle)
	go c.idle.goroutineMain(func(t *Thread) {
		for {
			Yield(t)
		}
	})
}

// Stop signals the scheduler loop to exit after the current thread yields.
func (c *CPU) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *CPU) log(msg string, args ...any) {
	slog.Debug(msg, append([]any{"cpu", c.ID}, args...)...)
}
