package util

import (
	"runtime"
	"sync"
)

// minChunk keeps tiny inputs on the calling goroutine.
const minChunk = 256

// ParallelFor splits [0, n) into contiguous chunks and runs fn on each chunk
// concurrently. fn must only write to indices inside its own chunk.
func ParallelFor(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if limit := (n + minChunk - 1) / minChunk; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	wg := &sync.WaitGroup{}
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// ParallelMap applies fn to every element of src and returns the results in
// the same order.
func ParallelMap[T, U any](src []T, fn func(T) U) []U {
	dst := make([]U, len(src))
	ParallelFor(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = fn(src[i])
		}
	})
	return dst
}
