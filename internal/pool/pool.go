// Package pool runs batches of independent I/O-bound tasks under a
// fixed concurrency bound while keeping results aligned with inputs.
package pool

import (
	"context"
	"sync"

	"bdtdharvest/internal/ports"
)

// NopObserver ignores all progress events.
type NopObserver struct{}

func (NopObserver) Begin(int)        {}
func (NopObserver) Advance(int, int) {}
func (NopObserver) End()             {}

// Map executes fn over every input with at most `workers` tasks in
// flight. The returned slice has exactly len(inputs) elements and
// out[i] is fn's value for inputs[i] regardless of completion order.
// Task failures must be encoded in O; Map never drops a slot. Once a
// batch is submitted it runs to completion; cancellation only reaches
// tasks through their own ctx handling.
func Map[I, O any](ctx context.Context, workers int, inputs []I, fn func(context.Context, I) O, obs ports.Observer) []O {
	if obs == nil {
		obs = NopObserver{}
	}
	out := make([]O, len(inputs))
	if len(inputs) == 0 {
		obs.Begin(0)
		obs.End()
		return out
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	obs.Begin(len(inputs))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	indexes := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				out[i] = fn(ctx, inputs[i])

				mu.Lock()
				completed++
				obs.Advance(completed, len(inputs))
				mu.Unlock()
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	obs.End()
	return out
}
