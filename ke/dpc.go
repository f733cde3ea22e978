/*
 * nucleus - Deferred procedure calls.
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

// DPCFunc is a DPC callback. It must not block and must not acquire
// DispatcherLock around anything that might sleep.
type DPCFunc func(arg any)

// DPC is a unit of deferred work, queued on a CPU's DPC queue and run at
// IPL=Dispatch when that CPU's IPL is lowered below Dispatch.
type DPC struct {
	fn   DPCFunc
	arg  any
	next *DPC
}

// NewDPC builds a DPC record; call QueueDPC on a CPU to schedule it.
func NewDPC(fn DPCFunc, arg any) *DPC {
	return &DPC{fn: fn, arg: arg}
}

// QueueDPC appends d to the tail of cpu's DPC queue. Safe to call at any
// IPL >= Dispatch (interrupt handlers call this).
func (c *CPU) QueueDPC(d *DPC) {
	ipl := c.dpcLock.Acquire(c)
	d.next = nil
	if c.dpcTail != nil {
		c.dpcTail.next = d
	} else {
		c.dpcHead = d
	}
	c.dpcTail = d
	c.pendingDPC.Store(true)
	c.dpcLock.Release(c, ipl)
}

// drainDPCs runs every queued DPC to completion. Called by lowerIPL when
// the CPU's IPL crosses below Dispatch.
func (c *CPU) drainDPCs() {
	for {
		ipl := c.dpcLock.Acquire(c)
		d := c.dpcHead
		if d == nil {
			c.pendingDPC.Store(false)
			c.dpcLock.Release(c, ipl)
			return
		}
		c.dpcHead = d.next
		if c.dpcHead == nil {
			c.dpcTail = nil
		}
		c.dpcLock.Release(c, ipl)

		d.next = nil
		if d.fn != nil {
			d.fn(d.arg)
		}
	}
}
