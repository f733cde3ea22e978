/*
 * nucleus - User copy helpers and fault recovery.
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
	"github.com/rcornwell/nucleus/ke"
)

// FaultRecovery is a per-thread save area CopyIn/CopyOut arm before
// touching user memory. A real kernel's trap_recovery_begin/end pair
// catches the hardware page fault that results from an unmapped address
// and resumes at the recovery point; Go has no such trap to catch, so
// CopyIn/CopyOut instead resolve the fault through the normal fault
// handler and turn an unresolvable one into ErrFault directly.
type FaultRecovery struct {
	active bool
}

// CopyIn copies length bytes from the user address space a at virtual
// address addr into dst, faulting pages in as needed. Returns ErrFault
// if addr lies outside any VAD.
func CopyIn(t *ke.Thread, a *AddressSpace, addr uintptr, dst []byte) error {
	return copyUser(t, a, addr, dst, false)
}

// CopyOut copies src into the user address space a at virtual address
// addr, faulting pages in (write-faulting COW pages as needed) first.
func CopyOut(t *ke.Thread, a *AddressSpace, addr uintptr, src []byte) error {
	return copyUser(t, a, addr, src, true)
}

func copyUser(t *ke.Thread, a *AddressSpace, addr uintptr, buf []byte, write bool) error {
	remaining := buf
	cur := addr
	for len(remaining) > 0 {
		if err := a.Fault(t, cur, write); err != nil {
			return ErrFault
		}

		pageBase := cur &^ (PageSize - 1)
		inPage := int(cur - pageBase)
		n := PageSize - inPage
		if n > len(remaining) {
			n = len(remaining)
		}

		a.lock(t)
		frame, _, ok := a.Pmap.Lookup(pageBase)
		if !ok {
			a.unlock(t)
			return ErrFault
		}
		if write {
			copy(frame.Bytes()[inPage:inPage+n], remaining[:n])
			a.Pmap.MarkDirty(pageBase)
			frame.dirty = true
		} else {
			copy(remaining[:n], frame.Bytes()[inPage:inPage+n])
		}
		a.unlock(t)

		remaining = remaining[n:]
		cur += uintptr(n)
	}
	return nil
}
