package ops

import (
	"context"
	"sync"

	"github.com/vk/optgridgo/internal/dataset"
)

// cancelCheckStride bounds how many records a shard processes between
// context checks.
const cancelCheckStride = 4096

// shards splits data into n contiguous chunks for parallel execution.
func shards(data []dataset.Record, n int) [][]dataset.Record {
	if n < 1 {
		n = 1
	}
	if n > len(data) {
		n = len(data)
	}
	if n == 0 {
		return nil
	}
	out := make([][]dataset.Record, 0, n)
	size := (len(data) + n - 1) / n
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[start:end])
	}
	return out
}

// runSharded executes fn over each shard on its own goroutine and returns
// the per-shard results in shard order, so reductions stay deterministic
// regardless of goroutine scheduling.
func runSharded[T any](ctx context.Context, data []dataset.Record, threads int, fn func(ctx context.Context, chunk []dataset.Record) (T, error)) ([]T, error) {
	chunks := shards(data, threads)
	results := make([]T, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []dataset.Record) {
			defer wg.Done()
			results[i], errs[i] = fn(ctx, chunk)
		}(i, chunk)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
