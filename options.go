// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

// Options configures queue creation.
type Options struct {
	// unbounded selects the Michael-Scott hazard-pointer queue. It is the
	// only algorithm Builder knows how to construct; the field exists so
	// Builder can still reject a zero-value Options the caller never
	// configured via NewUnboundedBuilder.
	unbounded bool
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	q := lfq.BuildUnbounded[Job](lfq.NewUnboundedBuilder())
type Builder struct {
	opts Options
}

// NewUnboundedBuilder creates a builder for the Michael-Scott
// hazard-pointer-protected queue.
func NewUnboundedBuilder() *Builder {
	return &Builder{opts: Options{unbounded: true}}
}

// BuildUnbounded creates an *Unbounded[T] with compile-time type safety.
// Panics if the builder was not configured via NewUnboundedBuilder.
func BuildUnbounded[T any](b *Builder, opts ...UnboundedOption) *Unbounded[T] {
	if !b.opts.unbounded {
		panic("lfq: BuildUnbounded requires NewUnboundedBuilder()")
	}
	return NewUnbounded[T](opts...)
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
