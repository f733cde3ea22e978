/*
 * nucleus - Kernel heap, slab zones and the wired arena.
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
	"strconv"
	"sync"

	"github.com/rcornwell/nucleus/ke"
)

// Kmem is the kernel heap: a vmem arena of kernel virtual address space
// backed, page by page, by physical frames drawn from a PageDB and
// entered into a kernel Pmap. Allocations above zoneThreshold are
// wired directly out of the arena; smaller, fixed-size allocations
// dispatch to the nearest zone of the registry whose object size is
// greater than or equal to the request, growing that zone (and thus
// wiring a fresh slab out of the arena) on demand.
type Kmem struct {
	cpu   *ke.CPU
	heap  *Arena
	pages *PageDB
	pmap  Pmap

	mu       sync.Mutex
	sizes    map[uintptr]uintptr // base -> size, for Free of a wired allocation
	zones    []*Zone             // registry, ascending by ObjSize
	objOwner map[uintptr]*Zone   // object addr -> owning zone, for Free of a zoned allocation
}

// zoneThreshold is the largest object size a zone will carve out of a
// slab; bigger requests go straight to the wired arena.
const zoneThreshold = 1024

// zoneSizeClasses are the fixed object sizes NewKmem registers a zone
// for, smallest first.
var zoneSizeClasses = []uintptr{16, 32, 64, 128, 256, 512, 1024}

// NewKmem builds a kernel heap over [base, base+size) of virtual address
// space, backed by pages allocated from db and entered into pmap, with a
// zone registered for each of zoneSizeClasses.
func NewKmem(cpu *ke.CPU, base, size uintptr, db *PageDB, pmap Pmap) *Kmem {
	k := &Kmem{
		cpu:      cpu,
		heap:     NewArena(base, size),
		pages:    db,
		pmap:     pmap,
		sizes:    make(map[uintptr]uintptr),
		objOwner: make(map[uintptr]*Zone),
	}
	for _, objSize := range zoneSizeClasses {
		name := "kmem-" + strconv.Itoa(int(objSize))
		k.zones = append(k.zones, NewZone(cpu, k, name, objSize))
	}
	return k
}

// zoneFor returns the smallest registered zone whose object size is at
// least n, or nil if n exceeds zoneThreshold.
func (k *Kmem) zoneFor(n uintptr) *Zone {
	for _, z := range k.zones {
		if z.ObjSize >= n {
			return z
		}
	}
	return nil
}

// Alloc reserves n bytes of kernel memory. Requests above
// zoneThreshold are rounded up to a whole number of pages and wired
// directly out of the arena; smaller requests dispatch to the nearest
// size-class zone.
func (k *Kmem) Alloc(n uintptr) (uintptr, error) {
	if n > 0 && n <= zoneThreshold {
		if z := k.zoneFor(n); z != nil {
			addr, err := z.Alloc()
			if err != nil {
				return 0, err
			}
			k.mu.Lock()
			k.objOwner[addr] = z
			k.mu.Unlock()
			return addr, nil
		}
	}
	return k.allocWired(n)
}

// allocWired reserves n bytes of kernel VA space, rounded up to a whole
// number of pages, and backs each page with a wired physical frame. Used
// directly for requests above zoneThreshold, and by Zone.growLocked to
// carve fresh slabs.
func (k *Kmem) allocWired(n uintptr) (uintptr, error) {
	npages := (n + PageSize - 1) / PageSize
	size := npages * PageSize
	base, err := k.heap.Alloc(size)
	if err != nil {
		return 0, err
	}
	for off := uintptr(0); off < size; off += PageSize {
		f, err := k.pages.AllocPage(k.cpu, UseKernelWired)
		if err != nil {
			k.unwindAlloc(base, off)
			k.heap.Free(base, size)
			return 0, err
		}
		f.wireCount = 1
		if err := k.pmap.Enter(base+off, f, ProtRead|ProtWrite); err != nil {
			k.unwindAlloc(base, off)
			k.heap.Free(base, size)
			return 0, err
		}
	}
	k.mu.Lock()
	k.sizes[base] = size
	k.mu.Unlock()
	return base, nil
}

// unwindAlloc releases pages already entered for [base, base+upTo) after
// a partial allocation failure.
func (k *Kmem) unwindAlloc(base, upTo uintptr) {
	for off := uintptr(0); off < upTo; off += PageSize {
		if f, ok := k.pmap.Unenter(base + off); ok {
			f.wireCount = 0
			k.pages.FreePage(k.cpu, f)
		}
	}
}

// Free releases a kernel memory allocation previously returned by Alloc,
// routing it back to its owning zone or, for a wired allocation, back to
// the arena.
func (k *Kmem) Free(base uintptr) {
	k.mu.Lock()
	z, zoned := k.objOwner[base]
	if zoned {
		delete(k.objOwner, base)
	}
	k.mu.Unlock()
	if zoned {
		z.Free(base)
		return
	}

	k.mu.Lock()
	size, ok := k.sizes[base]
	if ok {
		delete(k.sizes, base)
	}
	k.mu.Unlock()
	if !ok {
		return
	}
	k.unwindAlloc(base, size)
	k.heap.Free(base, size)
}

// Zone carves fixed-size objects out of kernel-heap-backed slabs. Each
// zone owns one spinlock guarding its slab list and free list.
type Zone struct {
	Name     string
	ObjSize  uintptr
	lock     *ke.Spinlock
	cpu      *ke.CPU
	kmem     *Kmem
	slabSize uintptr
	freeList []uintptr // addresses of free objects
	slabs    []uintptr // bases of slabs carved so far, for bookkeeping
}

// NewZone creates a zone of fixed-size objects, each objSize bytes
// (rounded up to a minimum of 16 for bufctl bookkeeping headroom),
// carved out of slabs allocated from kmem.
func NewZone(cpu *ke.CPU, kmem *Kmem, name string, objSize uintptr) *Zone {
	if objSize < 16 {
		objSize = 16
	}
	return &Zone{
		Name:     name,
		ObjSize:  objSize,
		lock:     ke.NewSpinlock(ke.IPLDevice),
		cpu:      cpu,
		kmem:     kmem,
		slabSize: PageSize,
	}
}

// growLocked carves a fresh slab into ObjSize-sized objects and appends
// them to the free list. Caller holds z.lock.
func (z *Zone) growLocked() error {
	base, err := z.kmem.Alloc(z.slabSize)
	if err != nil {
		return err
	}
	z.slabs = append(z.slabs, base)
	for off := uintptr(0); off+z.ObjSize <= z.slabSize; off += z.ObjSize {
		z.freeList = append(z.freeList, base+off)
	}
	return nil
}

// Alloc returns one object from the zone, growing it by one slab if
// necessary.
func (z *Zone) Alloc() (uintptr, error) {
	ipl := z.lock.Acquire(z.cpu)
	defer z.lock.Release(z.cpu, ipl)
	if len(z.freeList) == 0 {
		if err := z.growLocked(); err != nil {
			return 0, err
		}
	}
	n := len(z.freeList) - 1
	addr := z.freeList[n]
	z.freeList = z.freeList[:n]
	return addr, nil
}

// Free returns an object, previously obtained from Alloc, to the zone.
func (z *Zone) Free(addr uintptr) {
	ipl := z.lock.Acquire(z.cpu)
	defer z.lock.Release(z.cpu, ipl)
	z.freeList = append(z.freeList, addr)
}

// BufctlCount reports the number of objects currently allocated out of
// the zone, used by round-trip tests to check alloc/free symmetry.
func (z *Zone) BufctlCount() int {
	ipl := z.lock.Acquire(z.cpu)
	defer z.lock.Release(z.cpu, ipl)
	perSlab := int(z.slabSize / z.ObjSize)
	return len(z.slabs)*perSlab - len(z.freeList)
}
