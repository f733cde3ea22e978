/*
 * nucleus - Kernel heap and zone allocator tests.
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

import "testing"

// newTestKmem builds a kernel heap with plenty of backing frames and a
// software pmap, for use by a single test.
func newTestKmem(t *testing.T) *Kmem {
	t.Helper()
	cpu := newTestCPU(t)
	db := NewPageDB(cpu, 256)
	pmap := NewSoftPmap()
	return NewKmem(cpu, 0x100000, 0x100000, db, pmap)
}

// TestKmemAllocFreeRoundTrip checks that freeing a wired allocation returns
// its virtual address space to the arena: a second Alloc of the same size
// after the Free succeeds and reuses the freed range.
func TestKmemAllocFreeRoundTrip(t *testing.T) {
	k := newTestKmem(t)

	base, err := k.Alloc(4096)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	k.Free(base)

	again, err := k.Alloc(4096)
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	if again != base {
		t.Errorf("Alloc after Free = %#x, want reused base %#x", again, base)
	}
}

// TestKmemZoneDispatch checks that small allocations are routed to a
// size-class zone rather than wired directly, and that object size is
// rounded up to the nearest class.
func TestKmemZoneDispatch(t *testing.T) {
	k := newTestKmem(t)

	addr, err := k.Alloc(20)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	z, ok := k.objOwner[addr]
	if !ok {
		t.Fatal("20-byte allocation was not dispatched through a zone")
	}
	if z.ObjSize != 32 {
		t.Errorf("zone ObjSize = %d, want 32 (next class above 20)", z.ObjSize)
	}

	big, err := k.Alloc(2048)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, ok := k.objOwner[big]; ok {
		t.Error("2048-byte allocation above zoneThreshold was dispatched through a zone")
	}
	if _, ok := k.sizes[big]; !ok {
		t.Error("2048-byte allocation was not wired directly")
	}
}

// TestZoneBufctlRoundTrip checks that every Alloc/Free pair leaves a zone's
// allocated-object count unchanged, including across a slab growth.
func TestZoneBufctlRoundTrip(t *testing.T) {
	k := newTestKmem(t)
	z := k.zoneFor(16)
	if z == nil {
		t.Fatal("no zone registered for 16-byte objects")
	}

	before := z.BufctlCount()

	var addrs []uintptr
	for i := 0; i < 3; i++ {
		addr, err := z.Alloc()
		if err != nil {
			t.Fatalf("Zone.Alloc: %v", err)
		}
		addrs = append(addrs, addr)
	}
	for _, addr := range addrs {
		z.Free(addr)
	}

	if after := z.BufctlCount(); after != before {
		t.Errorf("BufctlCount after round trip = %d, want %d", after, before)
	}
}

// TestKmemFreeThroughZone checks that Kmem.Free of a zone-sourced
// allocation routes back to the owning zone instead of the wired-arena
// path, and that the address becomes available for reuse.
func TestKmemFreeThroughZone(t *testing.T) {
	k := newTestKmem(t)
	z := k.zoneFor(16)

	before := z.BufctlCount()
	addr, err := k.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, ok := k.objOwner[addr]; !ok {
		t.Fatal("allocation was not recorded as zone-owned")
	}

	k.Free(addr)

	if _, ok := k.objOwner[addr]; ok {
		t.Error("Free did not clear zone ownership record")
	}
	if after := z.BufctlCount(); after != before {
		t.Errorf("BufctlCount after Alloc+Free = %d, want %d", after, before)
	}
}
