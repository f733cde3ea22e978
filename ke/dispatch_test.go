/*
 * nucleus - Dispatcher scenario tests.
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
	"sync"
	"testing"
	"time"
)

// newTestCPU builds and starts a CPU for use by a single test.
func newTestCPU(t *testing.T) *CPU {
	t.Helper()
	c := NewCPU(0)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

// spawn creates and launches a thread bound to cpu running fn, returning
// it already resumed onto the run queue.
func spawn(cpu *CPU, name string, fn func(t *Thread)) *Thread {
	th := NewThread(name, cpu, fn)
	th.Start()
	th.Resume()
	return th
}

// TestFIFOWake checks that threads blocked on the same semaphore wake in
// the order they enqueued, not in any other order.
func TestFIFOWake(t *testing.T) {
	cpu := newTestCPU(t)
	sem := NewSemaphore(cpu, 0)

	var mu sync.Mutex
	var order []string
	ready := make(chan struct{}, 3)
	done := make(chan struct{}, 3)

	waiter := func(name string) func(t *Thread) {
		return func(th *Thread) {
			ready <- struct{}{}
			sem.Wait(th, -1)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			done <- struct{}{}
		}
	}

	spawn(cpu, "a", waiter("a"))
	<-ready
	time.Sleep(20 * time.Millisecond)

	spawn(cpu, "b", waiter("b"))
	<-ready
	time.Sleep(20 * time.Millisecond)

	spawn(cpu, "c", waiter("c"))
	<-ready
	time.Sleep(20 * time.Millisecond)

	sem.Release(3)

	for range 3 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("waiter did not wake within timeout")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("wake order length = %d, want %d (%v)", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("wake order[%d] = %s, want %s (full order %v)", i, order[i], want[i], order)
		}
	}
}

// TestMutexOwnership checks that a second acquirer blocks until the owner
// releases.
func TestMutexOwnership(t *testing.T) {
	cpu := newTestCPU(t)
	m := NewMutex(cpu)

	var mu sync.Mutex
	var gotB bool
	bAcquired := make(chan struct{})
	release := make(chan struct{})
	bDone := make(chan struct{})

	spawn(cpu, "a", func(th *Thread) {
		if res := m.Acquire(th, -1); res != WaitSuccess {
			t.Errorf("A: acquire result = %v, want WaitSuccess", res)
		}
		<-release
		m.Release(th)
	})

	spawn(cpu, "b", func(th *Thread) {
		if res := m.Acquire(th, -1); res != WaitSuccess {
			t.Errorf("B: acquire result = %v, want WaitSuccess", res)
			close(bDone)
			return
		}
		mu.Lock()
		gotB = true
		mu.Unlock()
		close(bAcquired)
		m.Release(th)
		close(bDone)
	})

	// Give B a chance to observe the mutex held by A before releasing it.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	if gotB {
		mu.Unlock()
		t.Fatal("B acquired the mutex while A still held it")
	}
	mu.Unlock()

	close(release)

	select {
	case <-bAcquired:
	case <-time.After(time.Second):
		t.Fatal("B never acquired the mutex after A released it")
	}
	<-bDone
}

// TestMutexReleaseByNonOwnerPanics checks that Release asserts ownership:
// a thread that never acquired the mutex panics when it attempts to
// release it.
func TestMutexReleaseByNonOwnerPanics(t *testing.T) {
	cpu := newTestCPU(t)
	m := NewMutex(cpu)

	owned := make(chan struct{})
	spawn(cpu, "owner", func(th *Thread) {
		if res := m.Acquire(th, -1); res != WaitSuccess {
			t.Errorf("owner: acquire result = %v, want WaitSuccess", res)
		}
		close(owned)
		// Deliberately never releases; the mutex stays held by "owner".
	})
	<-owned

	panicked := make(chan any, 1)
	spawn(cpu, "intruder", func(th *Thread) {
		defer func() { panicked <- recover() }()
		m.Release(th)
	})

	select {
	case r := <-panicked:
		if r == nil {
			t.Fatal("Release by non-owner did not panic")
		}
	case <-time.After(time.Second):
		t.Fatal("intruder thread never ran")
	}
}

// TestTimerOrdering checks that two timers armed on the same CPU fire in
// deadline order regardless of arming order.
func TestTimerOrdering(t *testing.T) {
	cpu := newTestCPU(t)
	stop := make(chan struct{})
	go cpu.RunHardclock(stop)
	defer close(stop)

	var mu sync.Mutex
	var fired []string
	done := make(chan struct{}, 2)

	short := NewTimer()
	long := NewTimer()

	record := func(name string) DPCFunc {
		return func(any) {
			mu.Lock()
			fired = append(fired, name)
			mu.Unlock()
			done <- struct{}{}
		}
	}

	// Arm the longer-deadline timer first to verify ordering is by
	// deadline, not arming sequence.
	long.Set(cpu, 200*time.Millisecond, record("long"), nil)
	short.Set(cpu, 20*time.Millisecond, record("short"), nil)

	for range 2 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timers did not both fire within timeout")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 2 || fired[0] != "short" || fired[1] != "long" {
		t.Errorf("fire order = %v, want [short long]", fired)
	}
}
