package junban

import (
	"fmt"
	"testing"
)

func benchName(size int) string {
	if size >= 1000000 {
		return fmt.Sprintf("%dM", size/1000000)
	}
	return fmt.Sprintf("%dK", size/1000)
}

// Tick Benchmarks
func BenchmarkTick(b *testing.B) {
	sizes := []int{10000, 100000, 1000000}
	for _, s := range Strategies() {
		for _, size := range sizes {
			b.Run(s.String()+"/"+benchName(size), func(b *testing.B) {
				w, _ := spawn(b, size, 10, DefaultChunkCapacity)
				cfg := DefaultConfig()
				cfg.Strategy = s
				sched, err := NewScheduler(w, cfg, quietLogger())
				if err != nil {
					b.Fatal(err)
				}
				defer sched.Close()
				b.ReportAllocs()
				b.ResetTimer()
				for b.Loop() {
					sched.Tick(1.0 / 60)
				}
			})
		}
	}
}

// Group Index Benchmarks
func BenchmarkGroupIndexRebuild(b *testing.B) {
	sizes := []int{10000, 100000, 1000000}
	for _, size := range sizes {
		b.Run(benchName(size), func(b *testing.B) {
			w, _ := spawn(b, size, 10, DefaultChunkCapacity)
			idx := NewGroupIndex(10)
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				idx.Rebuild(w)
			}
		})
	}
}

// Filter Benchmarks
func BenchmarkFilterExtract(b *testing.B) {
	sizes := []int{10000, 100000, 1000000}
	for _, size := range sizes {
		b.Run(benchName(size), func(b *testing.B) {
			w, _ := spawn(b, size, 10, DefaultChunkCapacity)
			f := NewFilter(w)
			f.SetGroup(3)
			x := &extraction{}
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				f.extract(x)
			}
		})
	}
}

// World Entity Creation Benchmarks
func BenchmarkBuilderNewEntities(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	for _, size := range sizes {
		b.Run(benchName(size), func(b *testing.B) {
			for b.Loop() {
				b.StopTimer()
				w := NewWorld(size, 0)
				builder := NewBuilder(w, 10)
				b.StartTimer()
				builder.NewEntities(size, Prototype{Speed: 1})
			}
			b.ReportAllocs()
		})
	}
}
