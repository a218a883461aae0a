// Package types contains small common types shared across the pipeline.
package types

import "context"

// Limit bounds the concurrency of a fan-out stage. Zero means unbounded,
// making the convention explicit instead of a magic number buried in callers.
type Limit int

// Unbounded disables concurrency limiting.
const Unbounded Limit = 0

// Bounded returns a limit of n, or Unbounded when n <= 0.
func Bounded(n int) Limit {
	if n <= 0 {
		return Unbounded
	}
	return Limit(n)
}

// IsUnbounded reports whether the limit disables bounding.
func (l Limit) IsUnbounded() bool { return l <= 0 }

// Semaphore returns a counting semaphore honoring the limit.
// For an unbounded limit the returned semaphore never blocks.
func (l Limit) Semaphore() *Semaphore {
	if l.IsUnbounded() {
		return &Semaphore{}
	}
	return &Semaphore{slots: make(chan struct{}, int(l))}
}

// Semaphore is a counting semaphore over a buffered channel.
// The zero value never blocks.
type Semaphore struct {
	slots chan struct{}
}

// Acquire takes a slot, blocking until one is free or ctx is done.
// Returns false if the context was cancelled before a slot was acquired.
func (s *Semaphore) Acquire(ctx context.Context) bool {
	if s.slots == nil {
		return ctx.Err() == nil
	}
	select {
	case s.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release frees a slot taken by Acquire.
func (s *Semaphore) Release() {
	if s.slots == nil {
		return
	}
	<-s.slots
}
