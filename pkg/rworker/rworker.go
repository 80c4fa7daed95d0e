package rworker

import (
	"context"
	"sync"
)

// Job runs fn on its own goroutine once a slot in rate is free. Errors are
// forwarded to errCh without blocking; a full errCh drops them. A canceled ctx
// skips jobs that have not started yet.
func Job(ctx context.Context, wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case rate <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-rate }()
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
}
