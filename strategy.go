package junban

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy identifies one of the interchangeable scheduling strategies. All of
// them produce the same positions after every full round of F ticks; they
// differ in how the due entities are found.
type Strategy uint8

const (
	// StrategyModulus gathers every row and gates each one by
	// (index + cursor) mod F inside the parallel loop.
	StrategyModulus Strategy = iota
	// StrategyFilterEveryTick scans every row's group label each tick and
	// gathers the due group's rows.
	StrategyFilterEveryTick
	// StrategyFilterOnce scans once, keeps per-group row lists and gathers the
	// due group's rows from them each tick.
	StrategyFilterOnce
	// StrategyChunkModulus visits every chunk in place and gates each row by
	// (index + cursor) mod F.
	StrategyChunkModulus
	// StrategyChunkFreshIndex rebuilds the group index every tick and visits
	// the due group's chunks in place.
	StrategyChunkFreshIndex
	// StrategyChunkCachedIndex visits the due group's chunks from an index
	// built once. Call Scheduler.RebuildIndex after changing groups.
	StrategyChunkCachedIndex

	strategyCount
)

// Eligibility is the per-row or per-chunk test the kernel applies.
type Eligibility uint8

const (
	// EligibleAll updates every row of the domain.
	EligibleAll Eligibility = iota
	// EligibleModulus updates row i when (i + cursor) mod F == 0.
	EligibleModulus
	// EligibleChunkGroup skips chunks whose group is not the cursor.
	EligibleChunkGroup
)

// ScaleMode selects the per-update distance multiplier.
type ScaleMode uint8

const (
	// ScaleUnit moves an entity by speed*dt per update.
	ScaleUnit ScaleMode = iota
	// ScaleFrequency moves an entity by speed*dt*F per update, matching an
	// every-tick update when each entity is updated once every F ticks.
	ScaleFrequency
)

// Policy describes a strategy to the query engine and the kernel.
type Policy struct {
	Selection   Selection
	Domain      DomainKind
	Eligibility Eligibility
	Scale       ScaleMode
}

// factor returns the distance multiplier for the given update frequency.
func (p Policy) factor(frequency int) float32 {
	if p.Scale == ScaleFrequency {
		return float32(frequency)
	}
	return 1
}

type strategyInfo struct {
	name        string
	description string
	policy      Policy
	key         rune
}

var strategyTable = [strategyCount]strategyInfo{
	StrategyModulus: {
		name:        "modulus",
		key:         'a',
		description: "parallel loop over every entity with a per-entity (index+cursor) mod F test; no filtering cost, the cheapest way to reach the due entities",
		policy:      Policy{Selection: SelectAll, Domain: DomainRows, Eligibility: EligibleModulus, Scale: ScaleFrequency},
	},
	StrategyFilterEveryTick: {
		name:        "filter-every-tick",
		key:         'b',
		description: "parallel loop over rows gathered by a group filter re-applied every tick; the O(N) scan and copy cost more than the work they save",
		policy:      Policy{Selection: SelectScan, Domain: DomainRows, Eligibility: EligibleAll, Scale: ScaleFrequency},
	},
	StrategyFilterOnce: {
		name:        "filter-once",
		key:         'c',
		description: "same loop with the group filter evaluated once and reused; still slow because gathering the rows dominates, not the predicate",
		policy:      Policy{Selection: SelectMembership, Domain: DomainRows, Eligibility: EligibleAll, Scale: ScaleFrequency},
	},
	StrategyChunkModulus: {
		name:        "chunk-modulus",
		key:         'd',
		description: "one task per chunk over every entity in place with the per-entity modulus test; no copies, about as cheap as the modulus loop",
		policy:      Policy{Selection: SelectChunks, Domain: DomainChunks, Eligibility: EligibleModulus, Scale: ScaleFrequency},
	},
	StrategyChunkFreshIndex: {
		name:        "chunk-fresh-index",
		key:         'e',
		description: "one task per due chunk found through a group index rebuilt every tick; good, but the rebuild is paid each tick",
		policy:      Policy{Selection: SelectIndexFresh, Domain: DomainChunks, Eligibility: EligibleChunkGroup, Scale: ScaleFrequency},
	},
	StrategyChunkCachedIndex: {
		name:        "chunk-cached-index",
		key:         'f',
		description: "one task per due chunk found through a group index built once; the fastest filtered strategy, stale until RebuildIndex after group changes",
		policy:      Policy{Selection: SelectIndexCached, Domain: DomainChunks, Eligibility: EligibleChunkGroup, Scale: ScaleFrequency},
	},
}

// Strategies returns every strategy in identifier order.
func Strategies() []Strategy {
	out := make([]Strategy, strategyCount)
	for i := range out {
		out[i] = Strategy(i)
	}
	return out
}

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s < strategyCount
}

func (s Strategy) String() string {
	if !s.Valid() {
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
	return strategyTable[s].name
}

// Description returns a human-readable summary of the strategy and its
// expected relative cost.
func (s Strategy) Description() string {
	if !s.Valid() {
		return ""
	}
	return strategyTable[s].description
}

// Policy returns the kernel policy of the strategy.
func (s Strategy) Policy() Policy {
	if !s.Valid() {
		return Policy{}
	}
	return strategyTable[s].policy
}

// Key returns the key that selects the strategy in the interactive driver.
func (s Strategy) Key() rune {
	if !s.Valid() {
		return 0
	}
	return strategyTable[s].key
}

// StrategyForKey maps a key in 'a'..'f' (either case) to its strategy.
func StrategyForKey(r rune) (Strategy, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	for i, info := range strategyTable {
		if info.key == r {
			return Strategy(i), true
		}
	}
	return 0, false
}

// ParseStrategy accepts a strategy name, its key letter, a bare number or the
// "s<number>" form.
func ParseStrategy(v string) (Strategy, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, info := range strategyTable {
		if info.name == v {
			return Strategy(i), nil
		}
	}
	if len(v) == 1 {
		if s, ok := StrategyForKey(rune(v[0])); ok {
			return s, nil
		}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "s"))
	if err == nil && n >= 0 && n < int(strategyCount) {
		return Strategy(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, v)
}
