package junban

import "time"

// TickStats summarizes one tick.
type TickStats struct {
	Tick     uint64
	Elapsed  time.Duration
	Domain   int // entities in the tick's domain
	Updated  int // entities whose position was written
	Tasks    int // parallel tasks dispatched
	Strategy Strategy
	Cursor   Group
	Kind     DomainKind
}

// StrategySelected is published after the scheduler switches strategy and has
// released the previous strategy's buffers.
type StrategySelected struct {
	Description string
	Previous    Strategy
	Strategy    Strategy
}

// TaskPlan is published once per tick, before the tasks run. For a rows
// domain Spans holds each task's row range; for a chunks domain Chunks holds
// each task's chunk. Both slices are owned by the scheduler and are only valid
// during the handler.
type TaskPlan struct {
	Spans    []Span
	Chunks   []*Chunk
	Tick     uint64
	Strategy Strategy
	Cursor   Group
	Kind     DomainKind
}

// IndexRebuilt is published after the scheduler rebuilds its group index.
type IndexRebuilt struct {
	Groups   int
	Entities int
	Rebuilds uint64
}

// TickCompleted is published after every tick has joined its tasks.
type TickCompleted struct {
	Stats TickStats
}
