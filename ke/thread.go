/*
 * nucleus - Threads.
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
	"sync/atomic"
)

// ThreadState is the lifecycle state of a thread.
type ThreadState int

const (
	ThreadRunnable ThreadState = iota
	ThreadRunning
	ThreadWaiting
	ThreadSuspended
	ThreadTerminated
)

func (s ThreadState) String() string {
	switch s {
	case ThreadRunnable:
		return "runnable"
	case ThreadRunning:
		return "running"
	case ThreadWaiting:
		return "waiting"
	case ThreadSuspended:
		return "suspended"
	case ThreadTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// WaitResult is the outcome of a wait() call.
type WaitResult int

const (
	WaitResultNone WaitResult = iota
	WaitSuccess
	WaitTimeout
	WaitCancelled
)

// MaxWaitObjects bounds the number of dispatch objects a single wait() may
// name, per the bounded wait-block array in the thread data model.
const MaxWaitObjects = 8

var nextThreadID atomic.Int64

// Thread is a schedulable unit of execution. Threads are created suspended
// and become runnable only once Resume is called.
type Thread struct {
	ID   int64
	Name string
	CPU  *CPU // home CPU, fixed at creation

	state      ThreadState
	waitIPL    IPL
	waitResult WaitResult

	waitBlocks [MaxWaitObjects]WaitBlock
	numWaits   int
	waitMode   WaitMode

	timer Timer // embedded, armed for wait timeouts

	quantum     int
	ticksLeft   int
	runNext     *Thread
	runPrev     *Thread

	resume chan struct{} // signalled by the scheduler to hand over the CPU
	done   chan struct{} // closed when the thread terminates

	fn func(t *Thread)
}

// NewThread allocates a thread bound to home, created in the suspended
// state. fn is the thread's body; it runs on the goroutine backing the
// thread once the thread is first scheduled.
func NewThread(name string, home *CPU, fn func(t *Thread)) *Thread {
	t := &Thread{
		ID:      nextThreadID.Add(1),
		Name:    name,
		CPU:     home,
		state:   ThreadSuspended,
		quantum: DefaultQuantum,
		resume:  make(chan struct{}),
		done:    make(chan struct{}),
		fn:      fn,
	}
	InitHeader(&t.timer.Header, KindTimer, 0)
	t.timer.owner = t
	return t
}

// State reports the thread's current lifecycle state.
func (t *Thread) State() ThreadState {
	return t.state
}

// Start launches the thread's backing goroutine. The goroutine blocks
// until the scheduler first hands it the CPU (via Resume), so Start may be
// called before or after Resume.
func (t *Thread) Start() {
	go t.goroutineMain(t.fn)
}

// Resume moves a suspended (or newly woken) thread onto its home CPU's run
// queue. Matches ki_thread_start: runs under the dispatcher lock and sets
// the home CPU's reschedule reason.
func (t *Thread) Resume() {
	ipl := DispatcherLock.Acquire(t.CPU)
	t.state = ThreadRunnable
	t.CPU.enqueueRunnableTail(t)
	t.CPU.rescheduleReason = RescheduleReasonPreempted
	DispatcherLock.Release(t.CPU, ipl)
}

// Done returns a channel that's closed when the thread terminates.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// goroutineMain is the trampoline every thread goroutine runs: park until
// first scheduled, run the body, then mark the thread terminated and give
// the CPU back to the scheduler for good.
func (t *Thread) goroutineMain(fn func(t *Thread)) {
	<-t.resume
	if fn != nil {
		fn(t)
	}
	t.terminate()
}

// terminate severs the thread's run-queue/wait-queue linkage and gives the
// CPU back to the scheduler without re-enqueueing.
func (t *Thread) terminate() {
	ipl := DispatcherLock.Acquire(t.CPU)
	t.state = ThreadTerminated
	DispatcherLock.Release(t.CPU, ipl)
	close(t.done)
	t.CPU.yield <- struct{}{}
}
