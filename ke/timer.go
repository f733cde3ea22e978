/*
 * nucleus - Per-CPU timers and the hardclock.
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

// HardclockHz is KERN_HZ: the rate the hardclock source delivers at.
const HardclockHz = 100

// TickDuration is the wall-clock period of one hardclock tick.
const TickDuration = time.Second / HardclockHz

// TimerState is a timer's lifecycle state.
type TimerState int

const (
	TimerDisabled TimerState = iota
	TimerPending
	TimerElapsed
)

// Timer is a dispatch object signalled by its embedded DPC when its
// absolute deadline passes. It is also used, embedded in each Thread, to
// implement wait timeouts.
type Timer struct {
	Header
	state    TimerState
	deadline uint64 // absolute tick count
	home     *CPU
	owner    *Thread // set for a thread's embedded wait-timeout timer
	cb       DPCFunc
	cbArg    any
	next     *Timer
	prev     *Timer
}

// NewTimer allocates a standalone timer dispatch object, initially
// disabled and unsignalled.
func NewTimer() *Timer {
	tm := &Timer{state: TimerDisabled}
	InitHeader(&tm.Header, KindTimer, 0)
	return tm
}

// Set arms the timer on cpu to elapse after d, running cb(arg) as a DPC
// when it does. A duration <= 0 still waits for the next hardclock tick,
// per the "zero duration never fires synchronously" boundary rule.
func (tm *Timer) Set(cpu *CPU, d time.Duration, cb DPCFunc, arg any) {
	tm.cb = cb
	tm.cbArg = arg
	armTimerLocked(cpu, tm, d, cb, arg)
}

// Cancel unlinks the timer from its CPU's timer queue if still pending.
func (tm *Timer) Cancel() {
	if tm.home == nil {
		return
	}
	cancelTimerLocked(tm.home, tm)
}

// State reports the timer's lifecycle state.
func (tm *Timer) State() TimerState {
	return tm.state
}

func durationToTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 1
	}
	ticks := uint64(d / TickDuration)
	if d%TickDuration != 0 {
		ticks++
	}
	if ticks == 0 {
		ticks = 1
	}
	return ticks
}

// armTimerLocked inserts tm into cpu's sorted timer queue. Safe to call
// whether or not DispatcherLock is already held by the caller: it takes
// cpu's own DPC spinlock, a distinct lock from DispatcherLock.
func armTimerLocked(cpu *CPU, tm *Timer, d time.Duration, cb DPCFunc, arg any) {
	ipl := cpu.dpcLock.Acquire(cpu)
	tm.home = cpu
	tm.cb = cb
	tm.cbArg = arg
	tm.deadline = cpu.ticks.Load() + durationToTicks(d)
	tm.state = TimerPending
	cpu.insertTimerLocked(tm)
	cpu.dpcLock.Release(cpu, ipl)
}

// cancelTimerLocked removes tm from cpu's timer queue if pending.
func cancelTimerLocked(cpu *CPU, tm *Timer) {
	ipl := cpu.dpcLock.Acquire(cpu)
	if tm.state == TimerPending {
		cpu.removeTimerLocked(tm)
	}
	tm.state = TimerDisabled
	cpu.dpcLock.Release(cpu, ipl)
}

// insertTimerLocked inserts tm into the CPU's deadline-ordered timer list.
// Caller holds cpu.dpcLock.
func (c *CPU) insertTimerLocked(tm *Timer) {
	var prev *Timer
	cur := c.timerHead
	for cur != nil && cur.deadline <= tm.deadline {
		prev = cur
		cur = cur.next
	}
	tm.prev = prev
	tm.next = cur
	if prev != nil {
		prev.next = tm
	} else {
		c.timerHead = tm
	}
	if cur != nil {
		cur.prev = tm
	}
}

// removeTimerLocked unlinks tm from the CPU's timer list. Caller holds
// cpu.dpcLock.
func (c *CPU) removeTimerLocked(tm *Timer) {
	if tm.prev != nil {
		tm.prev.next = tm.next
	} else if c.timerHead == tm {
		c.timerHead = tm.next
	}
	if tm.next != nil {
		tm.next.prev = tm.prev
	}
	tm.next, tm.prev = nil, nil
}

// fire signals the timer's dispatch header, waking any waiters, and then
// invokes its callback. Runs as a DPC (IPL=Dispatch), so it must not
// block.
func (tm *Timer) fire() {
	cpu := tm.home
	ipl := DispatcherLock.Acquire(cpu)
	tm.signalled = 1
	walkAndWake(&tm.Header)
	cb, arg := tm.cb, tm.cbArg
	DispatcherLock.Release(cpu, ipl)

	if cb != nil {
		cb(arg)
	}
}

// Hardclock advances c's monotonic tick counter by one, decrements the
// current thread's quantum, and fires every timer whose deadline has now
// passed. Called by a per-CPU goroutine at HardclockHz.
func (c *CPU) Hardclock() {
	now := c.ticks.Add(1)
	c.tickQuantum()

	var due []*Timer
	ipl := c.dpcLock.Acquire(c)
	for c.timerHead != nil && c.timerHead.deadline <= now {
		tm := c.timerHead
		c.removeTimerLocked(tm)
		tm.state = TimerElapsed
		due = append(due, tm)
	}
	c.dpcLock.Release(c, ipl)

	for _, tm := range due {
		timer := tm
		c.QueueDPC(NewDPC(func(any) {
			timer.fire()
		}, nil))
	}
}

// RunHardclock drives the CPU's hardclock at HardclockHz until stop is
// closed. Intended to be run in its own goroutine by the machine harness.
func (c *CPU) RunHardclock(stop <-chan struct{}) {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Hardclock()
		}
	}
}
