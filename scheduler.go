package junban

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler drives the round-robin update of a World. Every Tick advances the
// cursor by one (wrapping at F), selects the due domain with the active
// strategy, runs the kernel over it in parallel and joins before returning.
//
// SelectStrategy and Tick are the only entry points that change scheduling
// state. Both must be called from a single goroutine, and the World must not be
// mutated while a Tick is running.
type Scheduler struct {
	world     *World
	bus       *EventBus
	log       *logrus.Entry
	scratch   *Resources // buffers owned by the active strategy
	filter    *Filter
	spans     []Span
	dom       domain
	pool      dispatcher
	ticks     uint64
	frequency int
	batch     int
	policy    Policy
	strategy  Strategy
	cursor    Group
}

// NewScheduler validates cfg and creates a scheduler over w with the
// configured strategy active. cfg.UpdateFrequency must match the frequency the
// world's entities were spawned with. A nil log uses the logrus standard
// logger.
func NewScheduler(w *World, cfg Config, log *logrus.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !w.bindFrequency(cfg.UpdateFrequency) {
		return nil, fmt.Errorf("%w: %d, world uses %d", ErrInvalidFrequency, cfg.UpdateFrequency, w.Frequency())
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{
		world:     w,
		bus:       &EventBus{},
		log:       log.WithField("component", "scheduler"),
		scratch:   &Resources{},
		filter:    NewFilter(w),
		pool:      newDispatcher(cfg.Workers),
		frequency: cfg.UpdateFrequency,
		batch:     cfg.BatchSize,
		strategy:  cfg.Strategy,
		policy:    cfg.Strategy.Policy(),
	}
	s.prepare()
	return s, nil
}

// Bus returns the event bus the scheduler publishes on.
func (s *Scheduler) Bus() *EventBus {
	return s.bus
}

// World returns the scheduled world.
func (s *Scheduler) World() *World {
	return s.world
}

// Cursor returns the group updated by the most recent tick.
func (s *Scheduler) Cursor() Group {
	return s.cursor
}

// Frequency returns F, the number of ticks between two updates of an entity.
func (s *Scheduler) Frequency() int {
	return s.frequency
}

// Strategy returns the active strategy.
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// Ticks returns the number of ticks run so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

// Index returns the group index owned by the active strategy, or nil if the
// strategy holds none.
func (s *Scheduler) Index() *GroupIndex {
	idx, _ := GetResource[GroupIndex](s.scratch)
	return idx
}

// SelectStrategy releases every buffer owned by the current strategy and
// activates id. The switch takes effect at the next tick. Selecting the active
// strategy again also starts it afresh, which for StrategyChunkCachedIndex
// means one index rebuild.
func (s *Scheduler) SelectStrategy(id Strategy) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, id)
	}
	prev := s.strategy
	s.release()
	s.strategy = id
	s.policy = id.Policy()
	s.prepare()
	s.log.WithFields(logrus.Fields{
		"strategy": id.String(),
		"mode":     int(id),
		"previous": prev.String(),
	}).Info(id.Description())
	Publish(s.bus, StrategySelected{Previous: prev, Strategy: id, Description: id.Description()})
	return nil
}

// RebuildIndex rebuilds the group index from the current world. Callers using
// StrategyChunkCachedIndex must call it after changing entity groups. It does
// nothing when the active strategy does not use the index.
func (s *Scheduler) RebuildIndex() {
	if !s.usesIndex() {
		return
	}
	idx := s.groupIndex()
	idx.Rebuild(s.world)
	if HasSubscribers[IndexRebuilt](s.bus) {
		Publish(s.bus, IndexRebuilt{Groups: idx.Groups(), Entities: idx.Entities(), Rebuilds: idx.Rebuilds()})
	}
}

// Close releases every buffer owned by the active strategy. The scheduler
// stays usable; buffers are allocated again on the next tick.
func (s *Scheduler) Close() {
	s.release()
}

// Tick advances the cursor and updates the due entities, moving each by
// speed * dt * F along Up. It returns after every task of the tick finished.
func (s *Scheduler) Tick(dt float32) TickStats {
	start := time.Now()
	s.ticks++
	s.cursor = Group((int(s.cursor) + 1) % s.frequency)
	s.selectDomain()

	k := newKernel(s.policy, s.cursor, s.frequency, dt)
	stats := TickStats{
		Tick:     s.ticks,
		Strategy: s.strategy,
		Cursor:   s.cursor,
		Kind:     s.dom.kind,
		Domain:   s.dom.entities(),
	}
	switch s.dom.kind {
	case DomainRows:
		x := s.dom.rows
		s.spans = partition(s.spans[:0], x.len(), s.batch)
		stats.Tasks = len(s.spans)
		s.publishPlan()
		stats.Updated = s.pool.run(len(s.spans), func(t int) int {
			sp := s.spans[t]
			n := k.rows(x.positions[sp.Lo:sp.Hi], x.speeds[sp.Lo:sp.Hi], sp.Lo)
			if n > 0 {
				x.scatter(s.world, sp.Lo, sp.Hi)
			}
			return n
		})
	case DomainChunks:
		chunks := s.dom.chunks
		modulus := s.policy.Eligibility == EligibleModulus
		if modulus && len(s.dom.offsets) != len(chunks) {
			panic("junban: chunk offsets out of step with chunk domain")
		}
		stats.Tasks = len(chunks)
		s.publishPlan()
		stats.Updated = s.pool.run(len(chunks), func(t int) int {
			first := 0
			if modulus {
				first = s.dom.offsets[t]
			}
			return k.chunk(chunks[t], first)
		})
	}
	stats.Elapsed = time.Since(start)

	if s.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		s.log.WithFields(logrus.Fields{
			"tick":     stats.Tick,
			"cursor":   stats.Cursor,
			"strategy": stats.Strategy.String(),
			"domain":   stats.Domain,
			"updated":  stats.Updated,
			"tasks":    stats.Tasks,
			"elapsed":  stats.Elapsed,
		}).Debug("tick")
	}
	Publish(s.bus, TickCompleted{Stats: stats})
	return stats
}

// selectDomain fills s.dom for the current cursor.
func (s *Scheduler) selectDomain() {
	switch s.policy.Selection {
	case SelectAll:
		x := s.rows()
		s.filter.ResetFilter()
		s.filter.extract(x)
		s.dom.setRows(x)
	case SelectScan:
		x := s.rows()
		s.filter.SetGroup(s.cursor)
		s.filter.extract(x)
		s.dom.setRows(x)
	case SelectMembership:
		m := s.members()
		m.refresh(s.world, s.frequency)
		x := s.rows()
		x.gather(s.world, m.lookup(s.cursor))
		s.dom.setRows(x)
	case SelectChunks:
		s.dom.selectAllChunks(s.world)
	case SelectIndexFresh:
		s.RebuildIndex()
		s.dom.selectIndexed(s.groupIndex(), s.cursor)
	case SelectIndexCached:
		idx := s.groupIndex()
		if !idx.Built() {
			s.RebuildIndex()
		}
		s.dom.selectIndexed(idx, s.cursor)
	}
}

// prepare builds the state a strategy needs before its first tick.
func (s *Scheduler) prepare() {
	if s.policy.Selection == SelectIndexCached {
		s.RebuildIndex()
	}
}

// release drops every buffer owned by the active strategy.
func (s *Scheduler) release() {
	s.scratch.Clear()
	s.dom.release()
	s.spans = nil
	s.filter.ResetFilter()
}

func (s *Scheduler) publishPlan() {
	if !HasSubscribers[TaskPlan](s.bus) {
		return
	}
	Publish(s.bus, TaskPlan{
		Tick:     s.ticks,
		Strategy: s.strategy,
		Cursor:   s.cursor,
		Kind:     s.dom.kind,
		Spans:    s.planSpans(),
		Chunks:   s.planChunks(),
	})
}

func (s *Scheduler) planSpans() []Span {
	if s.dom.kind != DomainRows {
		return nil
	}
	return s.spans
}

func (s *Scheduler) planChunks() []*Chunk {
	if s.dom.kind != DomainChunks {
		return nil
	}
	return s.dom.chunks
}

func (s *Scheduler) rows() *extraction {
	return EnsureResource(s.scratch, func() *extraction { return &extraction{} })
}

func (s *Scheduler) members() *membership {
	return EnsureResource(s.scratch, func() *membership { return &membership{} })
}

func (s *Scheduler) usesIndex() bool {
	return s.policy.Domain == DomainChunks && s.policy.Eligibility == EligibleChunkGroup
}

func (s *Scheduler) groupIndex() *GroupIndex {
	return EnsureResource(s.scratch, func() *GroupIndex { return NewGroupIndex(s.frequency) })
}
