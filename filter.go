package junban

// Filter iterates over the entities of a World, optionally restricted to one
// update group. The restriction is tested against every row's own group
// label, so a filtered pass costs O(N) regardless of how selective it is.
//
// Example:
//
//	f := junban.NewFilter(world)
//	f.SetGroup(3)
//	for f.Next() {
//	    pos, speed := f.Get()
//	    pos.Y += *speed
//	}
type Filter struct {
	world    *World
	cur      *Chunk
	mask     bitmask256
	curChunk int // index into world.chunks.list
	curIdx   int // row inside cur
	filtered bool
}

// NewFilter creates an unfiltered Filter over w.
func NewFilter(w *World) *Filter {
	f := &Filter{world: w}
	f.Reset()
	return f
}

// SetGroup restricts the filter to entities of group g, replacing any
// previous restriction, and rewinds it.
func (f *Filter) SetGroup(g Group) {
	f.mask = bitmask256{}
	f.mask.set(g)
	f.filtered = true
	f.Reset()
}

// ResetFilter drops the group restriction and rewinds the filter.
func (f *Filter) ResetFilter() {
	f.mask = bitmask256{}
	f.filtered = false
	f.Reset()
}

// Filtered reports whether a group restriction is active.
func (f *Filter) Filtered() bool {
	return f.filtered
}

// Accepts reports whether entities of group g pass the filter.
func (f *Filter) Accepts(g Group) bool {
	return !f.filtered || f.mask.containsBit(g)
}

// Reset rewinds the iterator to the beginning. It must be called before
// re-iterating and after any structural change to the world.
func (f *Filter) Reset() {
	f.curChunk = -1
	f.curIdx = -1
	f.cur = nil
}

// Next advances to the next matching entity. It returns false when the
// iteration is complete.
func (f *Filter) Next() bool {
	for {
		f.curIdx++
		if f.cur != nil && f.curIdx < f.cur.size {
			if f.Accepts(f.cur.groups[f.curIdx]) {
				return true
			}
			continue
		}
		f.curChunk++
		if f.curChunk >= len(f.world.chunks.list) {
			f.cur = nil
			return false
		}
		f.cur = f.world.chunks.list[f.curChunk]
		f.curIdx = -1
	}
}

// Entity returns the current entity. Only valid after Next returned true.
func (f *Filter) Entity() Entity {
	return f.cur.entities[f.curIdx]
}

// Get returns pointers to the position and speed of the current entity.
// Only valid after Next returned true.
func (f *Filter) Get() (*Vec3, *float32) {
	return &f.cur.positions[f.curIdx], &f.cur.speeds[f.curIdx]
}

// Group returns the group of the current entity.
func (f *Filter) Group() Group {
	return f.cur.groups[f.curIdx]
}

// Count scans the world and returns the number of matching entities.
func (f *Filter) Count() int {
	n := 0
	for _, c := range f.world.chunks.list {
		if !f.filtered {
			n += c.size
			continue
		}
		for _, g := range c.groups[:c.size] {
			if f.mask.containsBit(g) {
				n++
			}
		}
	}
	return n
}

// Entities returns all matching entities, appended to dst.
func (f *Filter) Entities(dst []Entity) []Entity {
	for _, c := range f.world.chunks.list {
		for i, g := range c.groups[:c.size] {
			if f.Accepts(g) {
				dst = append(dst, c.entities[i])
			}
		}
	}
	return dst
}

// extract scans every row's group attribute and gathers the matching rows into
// x, replacing its contents.
func (f *Filter) extract(x *extraction) {
	x.reset()
	for ci, c := range f.world.chunks.list {
		for i, g := range c.groups[:c.size] {
			if f.Accepts(g) {
				x.push(c, ci, i)
			}
		}
	}
}
