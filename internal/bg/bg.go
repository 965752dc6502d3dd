// Package bg runs fire-and-forget work behind a small interface so tests
// can swap goroutines for inline execution.
package bg

import (
	"context"
	"sync"
)

// Runner executes fn, either inline or in the background.
type Runner interface {
	Do(fn func())
}

// Async runs every fn in a new goroutine.
type Async struct{}

func (Async) Do(fn func()) { go fn() }

// Sync runs fn in the caller's goroutine. Panics propagate.
type Sync struct{}

func (Sync) Do(fn func()) { fn() }

// Tracked is an Async runner that remembers in-flight work so shutdown can
// wait for pending remote writes.
type Tracked struct {
	wg sync.WaitGroup
}

func (t *Tracked) Do(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until every started fn returned or ctx is done.
func (t *Tracked) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
