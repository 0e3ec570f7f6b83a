// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides Unbounded[T], a multi-producer multi-consumer
// lock-free FIFO queue implemented as a Michael-Scott linked list and
// protected by an internal Michael-style hazard-pointer record manager
// (HRM) instead of a garbage collector pause or a mutex.
//
// # Quick Start
//
//	q := lfq.NewUnbounded[Job]()
//
//	ctx := q.Attach()
//	defer q.Detach(ctx)
//
//	if err := q.Push(ctx, job); err != nil {
//	    // not reached in practice: Push returns nil
//	}
//
//	v, err := q.Pop(ctx)
//	if lfq.IsWouldBlock(err) {
//	    // queue is empty, retry later
//	}
//
// # Thread participation
//
// Every goroutine that calls Push or Pop must first call Attach to bind a
// *ThreadHandle, and call Detach when it stops participating. A handle must
// not be shared across goroutines concurrently. Attach reuses a detached
// handle's hazard record when one is available instead of growing the
// queue's record list without bound; see [WithExpectedThreads] to size each
// record's hazard snapshot buffer for the expected number of participants.
//
// # Builder
//
//	q := lfq.BuildUnbounded[Job](lfq.NewUnboundedBuilder())
//
// is equivalent to NewUnbounded[Job]() and exists for callers who configure
// queues through a Builder at a call site that does not know the element
// type directly.
//
// # Error handling
//
// Push never reports the queue as full and returns nil; [ErrOutOfMemory] is
// declared but never returned, since ordinary Go allocation does not report
// failure as an error. Pop returns [ErrWouldBlock] (sourced from
// [code.hybscloud.com/iox] for ecosystem consistency) when the queue is
// observed empty:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Pop(ctx)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !lfq.IsWouldBlock(err) {
//	        return err // unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// [IsSemantic] and [IsNonFailure] classify errors the same way for callers
// that want to distinguish control flow signals from real failures without
// a direct comparison against ErrWouldBlock.
//
// # Memory reclamation
//
// A node removed by Pop is not freed immediately: it is retired into the
// calling thread's hazard record and released once a scan proves no
// currently-attached thread still holds a hazard pointer to it. Go's
// garbage collector does the actual reclamation once a node becomes
// unreachable, so the release hook inside the package is a no-op; the
// hazard-pointer machinery exists to enforce the ABA-safety and
// use-after-retire invariants of the Michael-Scott algorithm itself, not to
// manage memory by hand the way the C reference implementation this
// package is ported from does.
//
// Close releases every node still reachable from the queue. Its
// precondition is that every ThreadHandle obtained from the queue has
// already been detached; values still queued at Close time are not
// returned to the caller.
//
// # Race detection
//
// Go's race detector cannot observe the happens-before relationships
// established by acquire-release atomic memory orderings, so it may report
// false positives against this algorithm. Tests that exercise concurrent
// Push/Pop check [RaceEnabled] at runtime and skip under -race; the
// examples file is excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, and [code.hybscloud.com/spin] for CPU pause instructions in
// CAS retry loops.
package lfq
