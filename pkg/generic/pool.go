// Package generic holds small type-safe helpers over the standard library.
package generic

import "sync"

// Pool is a typed sync.Pool. Values are reset on Put so Get always hands
// out a clean value.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// NewPool builds a pool that allocates with generate and clears returned
// values with reset. A nil reset keeps values as they are.
func NewPool[T any](generate func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
		reset: reset,
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}
