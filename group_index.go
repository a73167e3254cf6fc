package junban

import "sync/atomic"

// groupTable is one immutable build of a GroupIndex.
type groupTable struct {
	chunks   [][]*Chunk // chunks per group label
	present  bitmask256 // groups with at least one live row
	version  uint32     // world version the table was built from
	entities int
}

// GroupIndex maps each group label to the chunks holding entities of that
// label, so a tick can find its due chunks without scanning the store.
//
// The index is correct only as of its last Rebuild. If entities change group,
// or are created or removed, Lookup keeps returning the old membership until
// Rebuild is called again. Chunks released by the world since the build are
// seen as empty.
//
// Rebuild must be called from a single goroutine; Lookup may run concurrently
// with it and observes either the previous or the new table, never a mix.
type GroupIndex struct {
	table     atomic.Pointer[groupTable]
	frequency int
	rebuilds  uint64
}

// NewGroupIndex creates an empty index for groups in [0, frequency).
func NewGroupIndex(frequency int) *GroupIndex {
	if frequency <= 0 || frequency > MaxGroups {
		panic("junban: group index frequency out of range")
	}
	return &GroupIndex{frequency: frequency}
}

// Rebuild scans every chunk of w once, groups them by label and publishes the
// result in a single swap.
func (x *GroupIndex) Rebuild(w *World) {
	t := &groupTable{
		chunks:  make([][]*Chunk, x.frequency),
		version: w.Version(),
	}
	for _, c := range w.chunks.list {
		if c.size == 0 || int(c.group) >= x.frequency {
			continue
		}
		t.chunks[c.group] = append(t.chunks[c.group], c)
		t.present.set(c.group)
		t.entities += c.size
	}
	x.table.Store(t)
	x.rebuilds++
}

// Lookup returns the chunks recorded for g by the last Rebuild. The result is
// empty for a group with no members, for a label outside the index's range
// and before the first Rebuild. The slice must not be modified.
func (x *GroupIndex) Lookup(g Group) []*Chunk {
	t := x.table.Load()
	if t == nil || int(g) >= len(t.chunks) {
		return nil
	}
	return t.chunks[g]
}

// Has reports whether g had members at the last Rebuild.
func (x *GroupIndex) Has(g Group) bool {
	t := x.table.Load()
	return t != nil && t.present.containsBit(g)
}

// Groups returns how many distinct labels had members at the last Rebuild.
func (x *GroupIndex) Groups() int {
	t := x.table.Load()
	if t == nil {
		return 0
	}
	return t.present.count()
}

// Entities returns how many entities the last Rebuild saw.
func (x *GroupIndex) Entities() int {
	t := x.table.Load()
	if t == nil {
		return 0
	}
	return t.entities
}

// Built reports whether the index has been built and not released.
func (x *GroupIndex) Built() bool {
	return x.table.Load() != nil
}

// Stale reports whether w has changed structurally since the last Rebuild.
// It is informational: Lookup never refreshes on its own.
func (x *GroupIndex) Stale(w *World) bool {
	t := x.table.Load()
	return t == nil || t.version != w.Version()
}

// Rebuilds returns how many times the index has been rebuilt.
func (x *GroupIndex) Rebuilds() uint64 {
	return x.rebuilds
}

// Release drops the current table.
func (x *GroupIndex) Release() {
	x.table.Store(nil)
}
