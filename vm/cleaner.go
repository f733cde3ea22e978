/*
 * nucleus - Cleaner and page daemon.
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
	"log/slog"
	"time"

	"github.com/rcornwell/nucleus/ke"
)

// highWaterFrames is the free-queue target the pagedaemon reclaims up to.
const highWaterFrames = 16

// Cleaner periodically writes back dirty pages. It targets clearing the
// current dirty backlog over roughly cleanWindowTicks of Run's interval,
// processing dirty/cleanWindowTicks pages per tick.
type Cleaner struct {
	db  *PageDB
	cpu *ke.CPU
	t   *ke.Thread
}

// cleanWindowTicks is the number of cleaner ticks the cleaner spreads a
// dirty backlog across ("clean all dirty pages within ~30s" at a 1s
// tick).
const cleanWindowTicks = 30

// NewCleaner builds a cleaner that walks db's dirty pages on cpu.
func NewCleaner(cpu *ke.CPU, db *PageDB) *Cleaner {
	return &Cleaner{db: db, cpu: cpu}
}

// Run drives the cleaner once per interval until stop is closed. Intended
// to run on its own thread, started by the machine harness.
func (c *Cleaner) Run(t *ke.Thread, interval time.Duration, stop <-chan struct{}) {
	c.t = t
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick persists a budgeted slice of the inactive queue's dirty pages to
// their durable backing — the owning object's vnode or a fresh drum slot
// — and clears their dirty bit once the write lands, so the pagedaemon
// can safely free the frame afterward. For each candidate it trylocks the
// owning object; if that fails it leaves the page dirty for a later tick,
// per spec. Pages owned directly by an AnonRecord (private copy-on-write
// pages) have no durable backing wired up yet — see DESIGN.md — so those
// are left dirty and never leave the inactive queue via this path.
func (c *Cleaner) tick() {
	q := &c.db.queues[QueueInactive]

	ipl := c.db.PFNLock.Acquire(c.cpu)
	dirty := 0
	for f := q.head; f != nil; f = f.qNext {
		if f.dirty {
			dirty++
		}
	}
	if dirty == 0 {
		c.db.PFNLock.Release(c.cpu, ipl)
		return
	}
	budget := dirty/cleanWindowTicks + 1

	var candidates []*PageFrame
	for f := q.tail; f != nil && len(candidates) < budget; f = f.qPrev {
		if f.dirty && f.wireCount == 0 && !f.busy && f.owner.object != nil {
			candidates = append(candidates, f)
		}
	}
	c.db.PFNLock.Release(c.cpu, ipl)

	// Persisting requires the sleepable object mutex, which must never be
	// acquired while holding the PFN spinlock.
	for _, f := range candidates {
		owner, offset := f.owner.object, f.owner.offset
		freed, locked, err := owner.WritebackOffset(c.t, c.cpu, offset)
		if err != nil {
			slog.Debug("cleaner: writeback failed", "pfn", f.PFN, "err", err)
			continue
		}
		if !locked || freed == nil {
			continue
		}

		writeIPL := c.db.PFNLock.Acquire(c.cpu)
		freed.dirty = false
		freed.owner = pageOwner{}
		c.db.PFNLock.Release(c.cpu, writeIPL)
		slog.Debug("cleaner wrote back page", "pfn", freed.PFN)
	}
}

// PageDaemon waits on the page database's low-memory event and reclaims
// inactive pages until the free queue reaches highWaterFrames.
type PageDaemon struct {
	db  *PageDB
	cpu *ke.CPU
}

// NewPageDaemon builds a page daemon over db.
func NewPageDaemon(cpu *ke.CPU, db *PageDB) *PageDaemon {
	return &PageDaemon{db: db, cpu: cpu}
}

// Run waits on the low-memory event and reclaims until stop is closed.
func (p *PageDaemon) Run(t *ke.Thread, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		res := p.db.lowMemory.Wait(t, 250*time.Millisecond)
		if res != ke.WaitSuccess {
			continue
		}
		p.reclaim(t)
	}
}

// reclaim walks the inactive queue and frees pages until the free queue
// reaches the high-water mark or the inactive queue is exhausted. The
// dirty bit is not consulted: frames with no owner are freed directly,
// and a frame still claimed by a pageable object's page tree is written
// back here through WritebackOffset (replacing the entry with a swapped
// or hole entry) before it is freed — otherwise the object's page tree
// would keep pointing at a frame a later, unrelated allocation has since
// overwritten. Busy and wired frames, and frames owned directly by an
// AnonRecord (see DESIGN.md), are skipped by this path.
func (p *PageDaemon) reclaim(t *ke.Thread) {
	ipl := p.db.PFNLock.Acquire(p.cpu)
	scanned := 0
	inactiveLen := p.db.queues[QueueInactive].count
	var owned []*PageFrame
	for p.db.queues[QueueFree].count < highWaterFrames && scanned < inactiveLen {
		f := p.db.queues[QueueInactive].head
		if f == nil {
			break
		}
		switch {
		case f.busy || f.wireCount > 0 || f.owner.anon != nil:
			p.db.queues[QueueInactive].remove(f)
			p.db.queues[QueueInactive].pushTail(f)
		case f.owner.object != nil:
			p.db.queues[QueueInactive].remove(f)
			p.db.queues[QueueInactive].pushTail(f)
			owned = append(owned, f)
		default:
			p.db.changeQueueLocked(f, QueueFree)
			f.use = UseFree
			f.owner = pageOwner{}
		}
		scanned++
	}
	needed := highWaterFrames - p.db.queues[QueueFree].count
	p.db.PFNLock.Release(p.cpu, ipl)

	freedCount := 0
	for _, f := range owned {
		if freedCount >= needed {
			break
		}
		owner, offset := f.owner.object, f.owner.offset
		freed, locked, err := owner.WritebackOffset(t, p.cpu, offset)
		if err != nil || !locked || freed == nil {
			continue
		}
		writeIPL := p.db.PFNLock.Acquire(p.cpu)
		freed.dirty = false
		freed.owner = pageOwner{}
		p.db.changeQueueLocked(freed, QueueFree)
		freed.use = UseFree
		p.db.PFNLock.Release(p.cpu, writeIPL)
		freedCount++
	}
}
