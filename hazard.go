// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// Michael-style hazard pointer record manager (HRM). Threads publish
// pointers they are about to dereference into a fixed-width hazard record;
// a retire list defers reclamation of removed nodes until a scan proves no
// record anywhere still holds a hazard on them.
//
// The manager is internal to Unbounded: it has no queue dependency of its
// own, but nothing outside this package constructs one directly.

const (
	hazardsPerRecord  = 2
	rlistInitCapacity = 32
	scanThreshold     = 16
)

// hazardRecord is one thread's slot in the domain's global record list.
// Only its owner mutates rlist/plist/hazards; active and next admit
// cross-thread CAS so a new owner can claim a retired record and so the
// record list can be prepended to without a lock.
type hazardRecord[T any] struct {
	_       pad
	hazards [hazardsPerRecord]atomic.Pointer[T]
	_       pad
	active  atomix.Uint64 // 0 = free, 1 = owned
	next    atomic.Pointer[hazardRecord[T]]

	rlist []*T // retired, not yet proven unreachable
	plist []*T // scratch buffer rebuilt on every scan
}

// hazardDomain owns the global list of hazard records for one queue and the
// release hook invoked on pointers a scan proves safe to drop.
type hazardDomain[T any] struct {
	head            atomic.Pointer[hazardRecord[T]]
	expectedThreads int
	releaseHook     func(*T)
}

func newHazardDomain[T any](expectedThreads int, release func(*T)) *hazardDomain[T] {
	if expectedThreads < 1 {
		expectedThreads = 1
	}
	return &hazardDomain[T]{
		expectedThreads: expectedThreads,
		releaseHook:     release,
	}
}

func newHazardRecord[T any](expectedThreads int) *hazardRecord[T] {
	r := &hazardRecord[T]{
		rlist: make([]*T, 0, rlistInitCapacity),
		plist: make([]*T, 0, expectedThreads*hazardsPerRecord),
	}
	r.active.StoreRelaxed(1)
	return r
}

// acquire returns a hazard record owned by the calling thread: either an
// inactive record reclaimed from the domain's list, or a freshly allocated
// one prepended to it.
func (d *hazardDomain[T]) acquire() *hazardRecord[T] {
	for r := d.head.Load(); r != nil; r = r.next.Load() {
		if r.active.LoadAcquire() != 0 {
			continue
		}
		if r.active.CompareAndSwapAcqRel(0, 1) {
			return r
		}
	}

	r := newHazardRecord[T](d.expectedThreads)
	for {
		old := d.head.Load()
		r.next.Store(old)
		if d.head.CompareAndSwap(old, r) {
			return r
		}
	}
}

// release clears every hazard slot, then marks the record free for reuse.
// rlist is left untouched: its pending retirees stay queued until the next
// owner triggers a scan, or until domain teardown drains them.
func (d *hazardDomain[T]) release(r *hazardRecord[T]) {
	for i := range r.hazards {
		r.hazards[i].Store(nil)
	}
	r.active.StoreRelease(0)
}

// setHazard publishes ptr into slot idx, reports false on an out-of-range
// index. The store is sequentially consistent with the scanner's load of
// the same slot, which is what makes the publish/verify pattern in
// Unbounded.Push/Pop safe: the caller must re-read the atomic it took ptr
// from after this call and restart if it changed.
func (r *hazardRecord[T]) setHazard(idx int, ptr *T) bool {
	if idx < 0 || idx >= hazardsPerRecord {
		return false
	}
	r.hazards[idx].Store(ptr)
	return true
}

func (r *hazardRecord[T]) clearHazard(idx int) {
	if idx < 0 || idx >= hazardsPerRecord {
		return
	}
	r.hazards[idx].Store(nil)
}

// retire appends ptr to r's retire list, clears any hazard slot of r that
// still aliases ptr (a thread must not protect the pointer it is itself
// retiring), and runs a scan immediately once the list holds
// scanThreshold or more entries.
func (d *hazardDomain[T]) retire(r *hazardRecord[T], ptr *T) {
	r.rlist = append(r.rlist, ptr)
	for i := range r.hazards {
		if r.hazards[i].Load() == ptr {
			r.hazards[i].Store(nil)
		}
	}
	if len(r.rlist) >= scanThreshold {
		d.scan(r)
	}
}

// scan rebuilds r.plist from every hazard slot currently published anywhere
// in the domain (a not-yet-cleared slot on an inactive record still counts:
// release clears slots before dropping active, so a stale slot only exists
// while a genuine owner could still observe it), then releases every
// pointer in r.rlist that plist does not cover.
func (d *hazardDomain[T]) scan(r *hazardRecord[T]) {
	r.plist = r.plist[:0]
	for rec := d.head.Load(); rec != nil; rec = rec.next.Load() {
		for i := range rec.hazards {
			if p := rec.hazards[i].Load(); p != nil {
				r.plist = append(r.plist, p)
			}
		}
	}

	i := 0
	for i < len(r.rlist) {
		p := r.rlist[i]
		if containsPtr(r.plist, p) {
			i++
			continue
		}
		if d.releaseHook != nil {
			d.releaseHook(p)
		}
		last := len(r.rlist) - 1
		r.rlist[i] = r.rlist[last]
		r.rlist[last] = nil
		r.rlist = r.rlist[:last]
	}
}

// drain releases every pointer still retired anywhere in the domain without
// regard to currently-published hazards: callers must only invoke this once
// no thread holds an active record (i.e. at queue teardown).
func (d *hazardDomain[T]) drain() {
	for rec := d.head.Load(); rec != nil; rec = rec.next.Load() {
		for _, p := range rec.rlist {
			if d.releaseHook != nil {
				d.releaseHook(p)
			}
		}
		rec.rlist = rec.rlist[:0]
	}
}

func containsPtr[T any](list []*T, p *T) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
