/*
 * nucleus - VFS collaborator interface.
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

import "sync"

// Vnode is the minimal VFS collaborator file-backed pageable objects need:
// read and write a single page at a byte offset. Everything else a real
// vnode carries (names, directories, permissions) is out of scope.
type Vnode interface {
	ReadPage(off int64, buf []byte) error
	WritePage(off int64, buf []byte) error
}

// MemVnode is an in-memory Vnode used by tests and the demo harness; it is
// not a filesystem, just a growable byte store addressed in page-sized
// chunks.
type MemVnode struct {
	mu   sync.Mutex
	data []byte
}

// NewMemVnode allocates an empty in-memory vnode.
func NewMemVnode() *MemVnode {
	return &MemVnode{}
}

func (v *MemVnode) grow(size int) {
	if len(v.data) >= size {
		return
	}
	grown := make([]byte, size)
	copy(grown, v.data)
	v.data = grown
}

func (v *MemVnode) ReadPage(off int64, buf []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	end := int(off) + len(buf)
	v.grow(end)
	copy(buf, v.data[off:end])
	return nil
}

func (v *MemVnode) WritePage(off int64, buf []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	end := int(off) + len(buf)
	v.grow(end)
	copy(v.data[off:end], buf)
	return nil
}
