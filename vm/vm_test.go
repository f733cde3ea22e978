/*
 * nucleus - Virtual memory scenario tests.
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

package vm

import (
	"bytes"
	"testing"
	"time"

	"github.com/rcornwell/nucleus/ke"
)

// newTestCPU builds and starts a CPU for use by a single test.
func newTestCPU(t *testing.T) *ke.CPU {
	t.Helper()
	c := ke.NewCPU(0)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

// runOnThread spawns a thread bound to cpu, runs fn on it synchronously from
// the caller's point of view, and blocks until fn returns.
func runOnThread(t *testing.T, cpu *ke.CPU, fn func(th *ke.Thread)) {
	t.Helper()
	done := make(chan struct{})
	th := ke.NewThread("test", cpu, func(th *ke.Thread) {
		fn(th)
		close(done)
	})
	th.Start()
	th.Resume()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("thread body did not complete within timeout")
	}
}

// TestCOWPrivatePage checks that a write fault against a copy-on-write VAD
// copies the shared page into a process-private frame, leaving the backing
// object and any other address space's view of the same offset untouched.
func TestCOWPrivatePage(t *testing.T) {
	cpu := newTestCPU(t)
	db := NewPageDB(cpu, 64)
	drum := NewDrum(16)
	obj := NewObject(cpu, db, drum, KindAnonymous, nil)

	parent := NewAddressSpace(cpu, db, 0x10000, 0x10000, 8)
	child := NewAddressSpace(cpu, db, 0x10000, 0x10000, 8)

	var parentBase, childBase uintptr
	var sharedPage0, sharedPage1 *PageFrame

	runOnThread(t, cpu, func(th *ke.Thread) {
		var err error
		sharedPage0, err = obj.Resolve(th, cpu, 0)
		if err != nil {
			t.Fatalf("resolve page 0: %v", err)
		}
		sharedPage0.data[0] = 0xAA

		sharedPage1, err = obj.Resolve(th, cpu, int64(PageSize))
		if err != nil {
			t.Fatalf("resolve page 1: %v", err)
		}
		sharedPage1.data[0] = 0xBB

		parentBase, err = parent.Map(th, obj, 2*PageSize, 0, ProtRead|ProtWrite, ProtRead|ProtWrite, InheritCopy, false, 0)
		if err != nil {
			t.Fatalf("parent map: %v", err)
		}
		childBase, err = child.Map(th, obj, 2*PageSize, 0, ProtRead|ProtWrite, ProtRead|ProtWrite, InheritCopy, false, 0)
		if err != nil {
			t.Fatalf("child map: %v", err)
		}

		// Both spaces read page 0 before any write fault: they share the
		// same underlying frame.
		if err := parent.Fault(th, parentBase, false); err != nil {
			t.Fatalf("parent read fault page 0: %v", err)
		}
		if err := child.Fault(th, childBase, false); err != nil {
			t.Fatalf("child read fault page 0: %v", err)
		}

		// Child writes page 0, which must fork off a private copy.
		if err := CopyOut(th, child, childBase, []byte{0xCC}); err != nil {
			t.Fatalf("child copyout: %v", err)
		}
	})

	childFrame, _, ok := child.Pmap.Lookup(childBase)
	if !ok {
		t.Fatal("child has no mapping at its own base after write fault")
	}
	if childFrame == sharedPage0 {
		t.Fatal("child's write fault did not fork a private frame")
	}
	if got := childFrame.data[0]; got != 0xCC {
		t.Errorf("child page 0 byte 0 = %#x, want 0xCC", got)
	}

	if got := sharedPage0.data[0]; got != 0xAA {
		t.Errorf("shared object page 0 byte 0 = %#x, want 0xAA (must survive child's private write)", got)
	}

	parentFrame, _, ok := parent.Pmap.Lookup(parentBase)
	if !ok {
		t.Fatal("parent has no mapping at its base")
	}
	if parentFrame != sharedPage0 {
		t.Error("parent's view of page 0 diverged from the shared object after the child's private write")
	}
}

// TestSwapRoundTrip checks that a page written to the drum by Pageout and
// paged back in by a later Resolve comes back byte-for-byte identical.
func TestSwapRoundTrip(t *testing.T) {
	cpu := newTestCPU(t)
	db := NewPageDB(cpu, 64)
	drum := NewDrum(16)
	obj := NewObject(cpu, db, drum, KindAnonymous, nil)

	pattern := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	runOnThread(t, cpu, func(th *ke.Thread) {
		f, err := obj.Resolve(th, cpu, 0)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		copy(f.data[0:4], pattern)
		copy(f.data[PageSize-4:], pattern)

		if err := obj.Pageout(th, cpu); err != nil {
			t.Fatalf("pageout: %v", err)
		}

		f2, err := obj.Resolve(th, cpu, 0)
		if err != nil {
			t.Fatalf("resolve after pageout: %v", err)
		}
		if !bytes.Equal(f2.data[0:4], pattern) {
			t.Errorf("page start after swap round trip = % x, want % x", f2.data[0:4], pattern)
		}
		if !bytes.Equal(f2.data[PageSize-4:], pattern) {
			t.Errorf("page end after swap round trip = % x, want % x", f2.data[PageSize-4:], pattern)
		}
	})
}

// TestWorkingSetEviction checks that the working set evicts strictly in
// FIFO order once it reaches its limit.
func TestWorkingSetEviction(t *testing.T) {
	w := NewWorkingSet(2)

	if _, did := w.Insert(0x1000); did {
		t.Fatal("unexpected eviction inserting into an empty working set")
	}
	if _, did := w.Insert(0x2000); did {
		t.Fatal("unexpected eviction inserting the second of two slots")
	}

	evicted, did := w.Insert(0x3000)
	if !did || evicted != 0x1000 {
		t.Fatalf("insert 3 = (evicted %#x, did %v), want (0x1000, true)", evicted, did)
	}
	if w.Contains(0x1000) {
		t.Error("0x1000 still present after eviction")
	}
	if !w.Contains(0x2000) || !w.Contains(0x3000) {
		t.Error("surviving entries missing after eviction")
	}

	evicted, did = w.Insert(0x4000)
	if !did || evicted != 0x2000 {
		t.Fatalf("insert 4 = (evicted %#x, did %v), want (0x2000, true)", evicted, did)
	}
	if w.Len() != 2 {
		t.Errorf("working set length = %d, want 2", w.Len())
	}
}
