/*
 * nucleus - VM error taxonomy.
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

// Package vm implements the virtual-memory manager: the physical
// page-frame database, the kernel-wired slab/zone allocator, pageable
// objects, per-process VAD trees and working sets, the fault handler and
// the cleaner/pagedaemon pair.
package vm

import "errors"

var (
	// ErrOutOfMemory is returned when physical frames or kernel VA space
	// are exhausted and the caller did not permit blocking.
	ErrOutOfMemory = errors.New("vm: out of memory")

	// ErrInvalidArgument covers malformed ranges: zero-length map
	// requests, deallocate over a range with no VADs, a fixed-address map
	// over an already-occupied region.
	ErrInvalidArgument = errors.New("vm: invalid argument")

	// ErrFault is returned by CopyIn/CopyOut when the target address is
	// unmapped or otherwise unresolvable, the Go-native stand-in for a
	// trap-recovery-mediated -EFAULT.
	ErrFault = errors.New("vm: fault")
)
