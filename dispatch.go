package junban

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Span is a half-open row range [Lo, Hi) owned by one task.
type Span struct {
	Lo, Hi int
}

// Len returns the number of rows in the span.
func (s Span) Len() int {
	return s.Hi - s.Lo
}

// Overlaps reports whether s and o share a row.
func (s Span) Overlaps(o Span) bool {
	return s.Lo < o.Hi && o.Lo < s.Hi
}

// partition splits [0, n) into consecutive spans of at most batch rows,
// appended to dst.
func partition(dst []Span, n, batch int) []Span {
	for lo := 0; lo < n; lo += batch {
		dst = append(dst, Span{Lo: lo, Hi: min(lo+batch, n)})
	}
	return dst
}

// dispatcher runs a tick's tasks on a bounded set of goroutines and joins on
// them before returning. Tasks are claimed through a shared counter, so each
// task index is executed exactly once.
type dispatcher struct {
	workers int
}

func newDispatcher(workers int) dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return dispatcher{workers: workers}
}

// run executes task(0) .. task(tasks-1) and returns the sum of their results.
func (d dispatcher) run(tasks int, task func(t int) int) int {
	if tasks <= 0 {
		return 0
	}
	workers := min(d.workers, tasks)
	if workers == 1 {
		total := 0
		for t := range tasks {
			total += task(t)
		}
		return total
	}
	// A row domain splits into tens of thousands of spans per tick, so a fixed
	// set of workers claims task indices from next instead of one g.Go per task.
	var next, total atomic.Int64
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			local := 0
			for {
				t := int(next.Add(1) - 1)
				if t >= tasks {
					break
				}
				local += task(t)
			}
			total.Add(int64(local))
			return nil
		})
	}
	// tasks cannot fail; Wait is the join
	_ = g.Wait()
	return int(total.Load())
}
