// Package pool provides typed object pooling to reduce GC pressure
package pool

import (
	"bytes"
	"sync"
)

// maxRetained caps the capacity of a buffer returned to Buffers.
const maxRetained = 1 << 20

// Pool is a typed sync.Pool that resets values on Put.
type Pool[T any] struct {
	p     sync.Pool
	reset func(T) bool
}

// New creates a pool. reset clears a value before reuse and reports whether
// it is worth keeping.
func New[T any](newFn func() T, reset func(T) bool) *Pool[T] {
	return &Pool[T]{
		p:     sync.Pool{New: func() any { return newFn() }},
		reset: reset,
	}
}

// Get takes a value from the pool, allocating when empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put returns v to the pool.
func (p *Pool[T]) Put(v T) {
	if p.reset != nil && !p.reset(v) {
		return
	}
	p.p.Put(v)
}

// Buffers pools scratch buffers for text extraction.
var Buffers = New(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) bool {
		if b.Cap() > maxRetained {
			return false
		}
		b.Reset()
		return true
	},
)
