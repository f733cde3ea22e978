/*
 * nucleus - Bounded message queues.
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

import "time"

// MsgQueue is a bounded ring buffer of messages. Posting blocks while the
// ring is full, waiting on the free-slot semaphore. Read never waits for
// a message, reporting an empty queue instead; ReadWait waits for one.
type MsgQueue struct {
	cpu    *CPU
	free   *Semaphore // empty slots available to post into
	filled *Semaphore // messages available to read
	mu     *Mutex     // protects buf/head/tail
	buf    []any
	head   int
	tail   int
}

// NewMsgQueue allocates a message queue with room for capacity messages.
func NewMsgQueue(cpu *CPU, capacity int) *MsgQueue {
	Assert(capacity > 0, "msgqueue: non-positive capacity %d", capacity)
	return &MsgQueue{
		cpu:    cpu,
		free:   NewSemaphore(cpu, capacity),
		filled: NewSemaphore(cpu, 0),
		mu:     NewMutex(cpu),
		buf:    make([]any, capacity),
	}
}

// Post waits for a free slot (or timeout) and then inserts msg at the
// tail, signalling the queue's filled-count semaphore.
func (q *MsgQueue) Post(t *Thread, msg any, timeout time.Duration) WaitResult {
	res := q.free.Wait(t, timeout)
	if res != WaitSuccess {
		return res
	}
	q.mu.Acquire(t, -1)
	q.buf[q.tail] = msg
	q.tail = (q.tail + 1) % len(q.buf)
	q.mu.Release(t)
	q.filled.Release(1)
	return WaitSuccess
}

// Read removes and returns the head message without blocking. The second
// return is false if the queue was empty.
func (q *MsgQueue) Read(t *Thread) (any, bool) {
	if q.filled.Wait(t, 0) != WaitSuccess {
		return nil, false
	}
	q.mu.Acquire(t, -1)
	msg := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.mu.Release(t)
	q.free.Release(1)
	return msg, true
}

// ReadWait blocks until a message is available (or timeout elapses) and
// then removes and returns it.
func (q *MsgQueue) ReadWait(t *Thread, timeout time.Duration) (any, WaitResult) {
	res := q.filled.Wait(t, timeout)
	if res != WaitSuccess {
		return nil, res
	}
	q.mu.Acquire(t, -1)
	msg := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.mu.Release(t)
	q.free.Release(1)
	return msg, WaitSuccess
}
