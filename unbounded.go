// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"errors"
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// ErrOutOfMemory names an allocation failure. Go's allocator does not return
// recoverable allocation errors the way the ported C reference
// implementation's malloc does (an exhausted heap ends the program), so no
// code path in this package returns ErrOutOfMemory. Push keeps an error
// result; Attach returns no error.
var ErrOutOfMemory = errors.New("lfq: allocation failed")

// errInvalidHazardSlot reports an out-of-range hazard slot index. Internal:
// the package never calls setHazard with anything but 0 or 1.
var errInvalidHazardSlot = errors.New("lfq: invalid hazard slot index")

// defaultExpectedThreads is the number of participants Unbounded sizes its
// hazard-pointer domain for (spec.md's E = 9).
const defaultExpectedThreads = 9

// unboundedNode is a Michael–Scott list node. The node that first acts as
// the dummy sentinel carries no meaningful payload; every node's payload
// becomes live once some push links it as the new tail and becomes retired
// once some pop swings first past it.
type unboundedNode[T any] struct {
	next    atomic.Pointer[unboundedNode[T]]
	payload T
}

// UnboundedOption configures NewUnbounded.
type UnboundedOption func(*unboundedConfig)

type unboundedConfig struct {
	expectedThreads int
}

// WithExpectedThreads overrides the hazard-pointer domain's initial sizing
// hint (spec.md's E). The domain still grows its per-record buffers on
// demand, so this is a performance hint, not a hard cap (spec.md §9).
func WithExpectedThreads(n int) UnboundedOption {
	return func(c *unboundedConfig) {
		if n > 0 {
			c.expectedThreads = n
		}
	}
}

// Unbounded is a multi-producer multi-consumer lock-free FIFO queue for
// arbitrary payloads, implemented as a Michael–Scott linked list with a
// permanent dummy sentinel. Unbounded never rejects a push for being full;
// see Push for what it can return.
//
// Every participating goroutine must call Attach once before calling Push
// or Pop, and Detach when it is done. Operations are safe to call from any
// goroutine holding a *ThreadHandle obtained from this queue; a handle must
// not be used concurrently from two goroutines at once.
type Unbounded[T any] struct {
	_     pad
	first atomic.Pointer[unboundedNode[T]]
	_     pad
	last  atomic.Pointer[unboundedNode[T]]
	_     pad
	hz    *hazardDomain[unboundedNode[T]]
}

// ThreadHandle binds a goroutine to a hazard record for the lifetime of its
// participation in an Unbounded queue. Obtain one with Attach and release
// it with Detach.
type ThreadHandle[T any] struct {
	rec *hazardRecord[unboundedNode[T]]
}

// NewUnbounded creates an empty unbounded queue with a dummy sentinel node.
func NewUnbounded[T any](opts ...UnboundedOption) *Unbounded[T] {
	cfg := unboundedConfig{expectedThreads: defaultExpectedThreads}
	for _, opt := range opts {
		opt(&cfg)
	}

	dummy := &unboundedNode[T]{}
	q := &Unbounded[T]{
		hz: newHazardDomain[unboundedNode[T]](cfg.expectedThreads, func(*unboundedNode[T]) {}),
	}
	q.first.Store(dummy)
	q.last.Store(dummy)
	return q
}

// Attach binds the calling goroutine to a hazard record for this queue.
func (q *Unbounded[T]) Attach() *ThreadHandle[T] {
	return &ThreadHandle[T]{rec: q.hz.acquire()}
}

// Detach flushes ctx's pending retirees with one final scan and returns its
// hazard record to the pool. ctx must not be used again after Detach.
func (q *Unbounded[T]) Detach(ctx *ThreadHandle[T]) {
	q.hz.scan(ctx.rec)
	q.hz.release(ctx.rec)
}

// Push enqueues value. It never blocks and never reports the queue as
// full. Its only error path is an out-of-range hazard slot index, which
// the fixed slot indices used here never produce, so Push returns nil; an
// allocation failure is not reported as an error (see ErrOutOfMemory).
func (q *Unbounded[T]) Push(ctx *ThreadHandle[T], value T) error {
	n := &unboundedNode[T]{payload: value}

	sw := spin.Wait{}
	for {
		t := q.last.Load()
		if !ctx.rec.setHazard(0, t) {
			return errInvalidHazardSlot
		}
		if q.last.Load() != t {
			sw.Once()
			continue
		}

		nxt := t.next.Load()
		if q.last.Load() != t {
			sw.Once()
			continue
		}

		if nxt != nil {
			q.last.CompareAndSwap(t, nxt) // help a lagging tail forward
			sw.Once()
			continue
		}

		if t.next.CompareAndSwap(nil, n) {
			q.last.CompareAndSwap(t, n) // best-effort, another thread may help
			ctx.rec.clearHazard(0)
			return nil
		}
		sw.Once()
	}
}

// Pop dequeues the oldest value. It returns (zero, ErrWouldBlock) if the
// queue was empty at some instant during the call — per spec.md §8/P4,
// this is an observation, not a promise the queue is still empty on
// return.
func (q *Unbounded[T]) Pop(ctx *ThreadHandle[T]) (T, error) {
	var zero T
	sw := spin.Wait{}
	for {
		f := q.first.Load()
		if !ctx.rec.setHazard(0, f) {
			return zero, errInvalidHazardSlot
		}
		if q.first.Load() != f {
			sw.Once()
			continue
		}

		l := q.last.Load()
		nxt := f.next.Load()
		if !ctx.rec.setHazard(1, nxt) {
			return zero, errInvalidHazardSlot
		}
		if q.first.Load() != f {
			sw.Once()
			continue
		}

		if nxt == nil {
			ctx.rec.clearHazard(0)
			ctx.rec.clearHazard(1)
			return zero, ErrWouldBlock
		}

		if f == l {
			q.last.CompareAndSwap(l, nxt) // help: last lags the real tail
			sw.Once()
			continue
		}

		value := nxt.payload

		if q.first.CompareAndSwap(f, nxt) {
			q.hz.retire(ctx.rec, f)
			ctx.rec.clearHazard(0)
			ctx.rec.clearHazard(1)
			return value, nil
		}
		sw.Once()
	}
}

// Close releases every node still reachable from the queue, invoking the
// configured release hook for each (by default a no-op: Go's collector
// reclaims the memory once the node is unreachable). Close's precondition,
// per spec.md's queue_destroy, is that every ThreadHandle obtained from
// this queue has already been detached; any payload still attached to a
// node at Close time is not returned to the caller — draining the queue
// first is the caller's responsibility.
func (q *Unbounded[T]) Close() {
	q.hz.drain()
	for n := q.first.Load(); n != nil; {
		next := n.next.Load()
		if q.hz.releaseHook != nil {
			q.hz.releaseHook(n)
		}
		n = next
	}
	q.first.Store(nil)
	q.last.Store(nil)
}
