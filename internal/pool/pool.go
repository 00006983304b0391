// Package pool keeps reusable visual objects on a generational free list.
//
// A Key is only valid until the slot it names is released; after that the
// slot generation moves on and Get reports the key as stale. The pool is not
// safe for concurrent use.
package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by Acquire when the pool is at capacity
	ErrExhausted = errors.New("pool exhausted")
	// ErrStaleKey is returned when a key no longer names a live object
	ErrStaleKey = errors.New("stale pool key")
)

// Key names one acquired object
type Key struct {
	Index uint32
	Gen   uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%d#%d", k.Index, k.Gen)
}

// Factory creates the object stored in slot index.
type Factory[T any] func(index int) (T, error)

type slot[T any] struct {
	obj   T
	gen   uint32
	inUse bool
}

// Pool is a free list of reusable objects.
type Pool[T any] struct {
	factory  Factory[T]
	reset    func(T)
	capacity int

	slots []slot[T]
	free  []uint32
	inUse int
}

// New creates a pool. capacity <= 0 means unbounded. reset, if set, runs
// every time an object is handed to a new tenant.
func New[T any](factory Factory[T], reset func(T), capacity int) *Pool[T] {
	return &Pool[T]{
		factory:  factory,
		reset:    reset,
		capacity: capacity,
	}
}

// Acquire hands out a free object, creating one when the free list is empty.
func (p *Pool[T]) Acquire() (Key, T, error) {
	var zero T

	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[idx]
		s.inUse = true
		p.inUse++
		if p.reset != nil {
			p.reset(s.obj)
		}
		return Key{Index: idx, Gen: s.gen}, s.obj, nil
	}

	if p.capacity > 0 && len(p.slots) >= p.capacity {
		return Key{}, zero, ErrExhausted
	}

	idx := len(p.slots)
	obj, err := p.factory(idx)
	if err != nil {
		return Key{}, zero, fmt.Errorf("creating pooled object %d: %w", idx, err)
	}
	p.slots = append(p.slots, slot[T]{obj: obj, inUse: true})
	p.inUse++
	if p.reset != nil {
		p.reset(obj)
	}
	return Key{Index: uint32(idx)}, obj, nil
}

// Get returns the object for key, or false when the key is stale.
func (p *Pool[T]) Get(key Key) (T, bool) {
	var zero T
	if int(key.Index) >= len(p.slots) {
		return zero, false
	}
	s := &p.slots[key.Index]
	if !s.inUse || s.gen != key.Gen {
		return zero, false
	}
	return s.obj, true
}

// Release returns the object named by key to the free list.
func (p *Pool[T]) Release(key Key) error {
	if _, ok := p.Get(key); !ok {
		return fmt.Errorf("release %s: %w", key, ErrStaleKey)
	}
	s := &p.slots[key.Index]
	s.inUse = false
	s.gen++
	p.inUse--
	p.free = append(p.free, key.Index)
	return nil
}

// Each calls fn for every object ever created, in use or not.
func (p *Pool[T]) Each(fn func(T)) {
	for i := range p.slots {
		fn(p.slots[i].obj)
	}
}

// InUse returns the number of acquired objects.
func (p *Pool[T]) InUse() int {
	return p.inUse
}

// Len returns the number of objects created so far.
func (p *Pool[T]) Len() int {
	return len(p.slots)
}
