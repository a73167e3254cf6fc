package junban

import (
	"sync/atomic"
	"testing"
)

func TestPartitionCoversDisjoint(t *testing.T) {
	cases := []struct{ n, batch int }{{0, 64}, {1, 64}, {64, 64}, {65, 64}, {1000, 7}, {10, 100}}
	for _, c := range cases {
		spans := partition(nil, c.n, c.batch)
		covered := 0
		for i, s := range spans {
			if s.Len() <= 0 || s.Len() > c.batch {
				t.Errorf("n=%d batch=%d: span %d has length %d", c.n, c.batch, i, s.Len())
			}
			if i > 0 && spans[i-1].Hi != s.Lo {
				t.Errorf("n=%d batch=%d: gap or overlap at span %d", c.n, c.batch, i)
			}
			for j := 0; j < i; j++ {
				if spans[j].Overlaps(s) {
					t.Errorf("n=%d batch=%d: spans %d and %d overlap", c.n, c.batch, j, i)
				}
			}
			covered += s.Len()
		}
		if covered != c.n {
			t.Errorf("n=%d batch=%d: covered %d rows", c.n, c.batch, covered)
		}
	}
}

func TestSpanOverlaps(t *testing.T) {
	if (Span{0, 5}).Overlaps(Span{5, 10}) {
		t.Error("adjacent spans must not overlap")
	}
	if !(Span{0, 6}).Overlaps(Span{5, 10}) {
		t.Error("expected overlap")
	}
}

func TestDispatcherRunsEveryTaskOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 8, 64} {
		d := newDispatcher(workers)
		const tasks = 1000
		var hits [tasks]atomic.Int32
		total := d.run(tasks, func(i int) int {
			hits[i].Add(1)
			return 2
		})
		if total != 2*tasks {
			t.Errorf("workers=%d: expected total %d, got %d", workers, 2*tasks, total)
		}
		for i := range hits {
			if hits[i].Load() != 1 {
				t.Fatalf("workers=%d: task %d ran %d times", workers, i, hits[i].Load())
			}
		}
	}
}

func TestDispatcherNoTasks(t *testing.T) {
	d := newDispatcher(0)
	if d.workers <= 0 {
		t.Fatalf("expected GOMAXPROCS workers, got %d", d.workers)
	}
	if got := d.run(0, func(int) int { t.Fatal("task must not run"); return 0 }); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
