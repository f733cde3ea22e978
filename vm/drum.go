/*
 * nucleus - Swap drum.
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
	"fmt"
	"sync"
)

// Drum is the swap device: a fixed-size region addressed as a linear
// array of PageSize slots, with a RAM-resident bitmap tracking which
// slots are occupied. Slot payloads are uninterpreted raw pages. The
// drum is discarded on shutdown; there is no on-disk recovery.
type Drum struct {
	mu       sync.Mutex
	slots    [][]byte
	occupied []bool
}

// NewDrum allocates a drum with room for nslots pages.
func NewDrum(nslots int) *Drum {
	d := &Drum{
		slots:    make([][]byte, nslots),
		occupied: make([]bool, nslots),
	}
	return d
}

// Alloc reserves and returns an empty slot index, or an error if the
// drum is full.
func (d *Drum) Alloc() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, used := range d.occupied {
		if !used {
			d.occupied[i] = true
			return i, nil
		}
	}
	return -1, ErrOutOfMemory
}

// Free releases slot back to the free bitmap.
func (d *Drum) Free(slot int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.occupied[slot] = false
	d.slots[slot] = nil
}

// Write stores page (exactly PageSize bytes) into slot.
func (d *Drum) Write(slot int, page []byte) error {
	if len(page) != PageSize {
		return fmt.Errorf("vm: drum write of %d bytes, want %d", len(page), PageSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, PageSize)
	copy(cp, page)
	d.slots[slot] = cp
	return nil
}

// Read copies slot's contents into page (exactly PageSize bytes).
func (d *Drum) Read(slot int, page []byte) error {
	if len(page) != PageSize {
		return fmt.Errorf("vm: drum read into %d bytes, want %d", len(page), PageSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.occupied[slot] || d.slots[slot] == nil {
		return fmt.Errorf("vm: drum read of unoccupied slot %d", slot)
	}
	copy(page, d.slots[slot])
	return nil
}
