// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "testing"

// TestHazardDomainRetireReleasesUnprotected covers scenario 5 of spec.md
// §8: of a batch of retired pointers, only those not currently hazarded by
// any record are released by a scan; a protected one survives until a
// later scan observes it unprotected.
func TestHazardDomainRetireReleasesUnprotected(t *testing.T) {
	type node struct{ id int }

	var released []*node
	d := newHazardDomain[node](2, func(n *node) {
		released = append(released, n)
	})

	owner := d.acquire()
	other := d.acquire()

	protected := &node{id: 1}
	unprotected := &node{id: 2}

	if !other.setHazard(0, protected) {
		t.Fatalf("setHazard failed")
	}

	d.retire(owner, protected)
	d.retire(owner, unprotected)
	d.scan(owner)

	if len(released) != 1 || released[0] != unprotected {
		t.Fatalf("released = %v, want [%p]", released, unprotected)
	}

	// Once the hazard clears, a later scan releases the rest.
	other.clearHazard(0)
	d.scan(owner)
	if len(released) != 2 || released[1] != protected {
		t.Fatalf("released = %v, want protected node to be released second", released)
	}
}

// TestHazardDomainScanThreshold exercises the implicit scan triggered once
// a record's retire list reaches scanThreshold entries.
func TestHazardDomainScanThreshold(t *testing.T) {
	type node struct{ id int }

	var releasedCount int
	d := newHazardDomain[node](1, func(*node) {
		releasedCount++
	})
	owner := d.acquire()

	for i := 0; i < scanThreshold; i++ {
		d.retire(owner, &node{id: i})
	}

	if releasedCount != scanThreshold {
		t.Fatalf("releasedCount = %d, want %d (implicit scan should have fired)", releasedCount, scanThreshold)
	}
	if len(owner.rlist) != 0 {
		t.Fatalf("rlist = %d entries, want 0 after scan", len(owner.rlist))
	}
}

// TestHazardDomainAcquireReusesReleasedRecord covers HR-I2/scenario 6: a
// released record is handed back out by a later acquire instead of the
// domain growing its record list unboundedly.
func TestHazardDomainAcquireReusesReleasedRecord(t *testing.T) {
	type node struct{}

	d := newHazardDomain[node](1, nil)
	first := d.acquire()
	d.release(first)
	second := d.acquire()

	if first != second {
		t.Fatalf("acquire did not reuse the released record")
	}
}

// TestHazardRecordSetHazardRangeCheck covers set_hazard's documented
// out-of-range failure mode.
func TestHazardRecordSetHazardRangeCheck(t *testing.T) {
	type node struct{}

	r := newHazardRecord[node](1)
	if r.setHazard(-1, &node{}) {
		t.Fatalf("setHazard(-1, ...) should fail")
	}
	if r.setHazard(hazardsPerRecord, &node{}) {
		t.Fatalf("setHazard(%d, ...) should fail (out of range)", hazardsPerRecord)
	}
	if !r.setHazard(0, &node{}) {
		t.Fatalf("setHazard(0, ...) should succeed")
	}
}

// TestHazardDomainDrainIgnoresHazards covers queue teardown: drain releases
// every still-retired pointer in every record regardless of hazards, since
// callers may only invoke it once no thread holds an active record.
func TestHazardDomainDrainIgnoresHazards(t *testing.T) {
	type node struct{}

	var released int
	d := newHazardDomain[node](1, func(*node) { released++ })
	owner := d.acquire()

	n := &node{}
	owner.setHazard(0, n) // still "protected", but drain must not care
	owner.rlist = append(owner.rlist, n)

	d.drain()
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}
}
