// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that use atomix concurrency primitives.
// These trigger false positives with Go's race detector because atomix
// atomic operations appear as regular memory accesses to the detector.
// The examples are correct; they're excluded from race testing.

package lfq_test

import (
	"fmt"

	"code.hybscloud.com/lfq/v2"
)

// ExampleNewUnbounded demonstrates the Michael-Scott hazard-pointer queue.
// Every participant must Attach before use and Detach when done; Push never
// rejects a value for the queue being full.
func ExampleNewUnbounded() {
	q := lfq.NewUnbounded[string]()

	ctx := q.Attach()
	defer q.Detach(ctx)

	for _, job := range []string{"build", "test", "deploy"} {
		if err := q.Push(ctx, job); err != nil {
			fmt.Println("push error:", err)
			return
		}
	}

	for {
		job, err := q.Pop(ctx)
		if err != nil {
			break
		}
		fmt.Println(job)
	}

	// Output:
	// build
	// test
	// deploy
}
