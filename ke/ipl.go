/*
 * nucleus - Interrupt priority levels.
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

// Package ke is the kernel executive: IPL-gated spinlocks, dispatch
// objects, per-CPU run queues, DPCs and timers. It is the synchronisation
// and scheduling substrate the rest of the kernel (vm, drivers, ...) is
// built on.
package ke

import "fmt"

// IPL is an interrupt priority level. Levels are strictly ordered; raising
// is monotone within a critical section and lowering below Dispatch drains
// any DPCs queued on the current CPU.
type IPL int

const (
	IPLPassive IPL = iota
	IPLAPC
	IPLDispatch // DPC level.
	IPLDevice
	IPLHigh
)

func (l IPL) String() string {
	switch l {
	case IPLPassive:
		return "passive"
	case IPLAPC:
		return "apc"
	case IPLDispatch:
		return "dispatch"
	case IPLDevice:
		return "device"
	case IPLHigh:
		return "high"
	default:
		return fmt.Sprintf("ipl(%d)", int(l))
	}
}
