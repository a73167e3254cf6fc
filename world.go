// Package junban implements a batched, data-parallel update engine for large
// homogeneous populations that are updated on a round-robin cadence.
//
// Entities carry a position, a scalar speed and an update group label in
// [0, F). Entities sharing a label are stored together in fixed-capacity
// chunks, so a tick can either visit every entity and gate each one by
// index, or visit only the chunks whose label matches the tick cursor.
//
// Features:
//   - Chunked storage with one group label per chunk.
//   - Versioned entity handles with recycled IDs.
//   - Six interchangeable scheduling strategies behind one kernel.
//   - A group index cache with an explicit rebuild lifecycle.
package junban

// MaxGroups is the maximum number of distinct update groups a World can hold.
// It bounds the update frequency of a Scheduler.
const MaxGroups = 256

// DefaultChunkCapacity is the number of entities a chunk holds when no
// capacity is given.
const DefaultChunkCapacity = 1024

// Group is an update group label.
type Group uint8

// Entity represents a unique identifier for an object in the World. It combines
// a 32-bit ID with a 32-bit version to ensure that recycled IDs are not confused
// with new entities.
type Entity struct {
	// ID is the unique, recyclable identifier for the entity.
	ID uint32
	// Version is a generation counter to protect against stale entity references.
	Version uint32
}

// entityMeta holds the internal location and state of an entity.
type entityMeta struct {
	chunkIndex int    // index in World.chunks.list
	index      int    // row inside the chunk
	version    uint32 // current version, 0 if the entity is dead
}

// entityRegistry tracks live entities and recycled IDs.
type entityRegistry struct {
	freeIDs       []uint32     // stack of recycled entity IDs
	metas         []entityMeta // indexed by entity ID
	capacity      int          // current maximum number of entities
	nextEntityVer uint32       // version for the next created entity
	count         int          // live entities
}

// chunkArena owns every chunk of the world. Chunks are addressed by index.
type chunkArena struct {
	list     []*Chunk
	open     [MaxGroups]*Chunk // last non-full chunk per group
	capacity int               // rows per chunk
}

// World is the component store. It holds position, speed and group data for
// every entity in chunks that support O(1) random access by Entity and bulk
// iteration by chunk.
//
// A World is not safe for concurrent mutation. During a tick the scheduler
// writes positions from several goroutines, each owning a disjoint set of
// rows; structural changes must happen between ticks.
type World struct {
	resources       *Resources
	entities        entityRegistry
	chunks          chunkArena
	mutationVersion uint32 // incremented on structural mutations
	frequency       int    // update frequency F, 0 until bound
}

// NewWorld creates a World with room for initialCapacity entities and chunks
// of chunkCapacity rows. A chunkCapacity of 0 selects DefaultChunkCapacity.
//
// Parameters:
//   - initialCapacity: The number of entity slots to pre-allocate.
//   - chunkCapacity: The number of rows per chunk.
//
// Returns:
//   - The newly created World.
func NewWorld(initialCapacity, chunkCapacity int) *World {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	if chunkCapacity <= 0 {
		chunkCapacity = DefaultChunkCapacity
	}
	w := &World{
		resources: &Resources{},
		entities: entityRegistry{
			capacity:      initialCapacity,
			freeIDs:       make([]uint32, initialCapacity),
			metas:         make([]entityMeta, initialCapacity),
			nextEntityVer: 1,
		},
		chunks: chunkArena{
			list:     make([]*Chunk, 0, initialCapacity/chunkCapacity+1),
			capacity: chunkCapacity,
		},
	}
	for i := range w.entities.freeIDs {
		w.entities.freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	for i := range w.entities.metas {
		w.entities.metas[i].chunkIndex = -1
		w.entities.metas[i].index = -1
	}
	return w
}

// Resources returns the world's resource registry.
func (w *World) Resources() *Resources {
	return w.resources
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.count
}

// ChunkCapacity returns the number of rows per chunk.
func (w *World) ChunkCapacity() int {
	return w.chunks.capacity
}

// Chunks returns every chunk in arena order. The slice is owned by the World
// and is invalidated by the next structural mutation.
func (w *World) Chunks() []*Chunk {
	return w.chunks.list
}

// Version returns the structural version of the world. It changes whenever an
// entity is created, removed or moved to another group; position writes do not
// change it.
func (w *World) Version() uint32 {
	return w.mutationVersion
}

// Frequency returns the update frequency F the world's group labels are drawn
// from, or 0 if no Builder or Scheduler has bound one yet. Every label is in
// [0, F).
func (w *World) Frequency() int {
	return w.frequency
}

// bindFrequency fixes F on first use and reports whether f agrees with it.
func (w *World) bindFrequency(f int) bool {
	if w.frequency == 0 {
		w.frequency = f
	}
	return w.frequency == f
}

// IsValid checks if the entity is currently alive in the world.
func (w *World) IsValid(e Entity) bool {
	if int(e.ID) >= len(w.entities.metas) {
		return false
	}
	meta := w.entities.metas[e.ID]
	return meta.version != 0 && meta.version == e.Version
}

// Position returns a pointer to the position of e, or nil if e is invalid.
// The pointer is invalidated by the next structural mutation.
func (w *World) Position(e Entity) *Vec3 {
	if !w.IsValid(e) {
		return nil
	}
	meta := w.entities.metas[e.ID]
	return &w.chunks.list[meta.chunkIndex].positions[meta.index]
}

// SetPosition overwrites the position of e. It reports false if e is invalid.
func (w *World) SetPosition(e Entity, p Vec3) bool {
	ptr := w.Position(e)
	if ptr == nil {
		return false
	}
	*ptr = p
	return true
}

// Speed returns the speed of e.
func (w *World) Speed(e Entity) (float32, bool) {
	if !w.IsValid(e) {
		return 0, false
	}
	meta := w.entities.metas[e.ID]
	return w.chunks.list[meta.chunkIndex].speeds[meta.index], true
}

// Group returns the update group of e.
func (w *World) Group(e Entity) (Group, bool) {
	if !w.IsValid(e) {
		return 0, false
	}
	meta := w.entities.metas[e.ID]
	return w.chunks.list[meta.chunkIndex].groups[meta.index], true
}

// SetGroup moves e to a chunk of group g, keeping its position and speed.
// Any GroupIndex built before this call becomes stale until it is rebuilt.
// It reports false if e is invalid or g is not below the world's frequency.
func (w *World) SetGroup(e Entity, g Group) bool {
	if !w.IsValid(e) || int(g) >= w.frequency {
		return false
	}
	meta := &w.entities.metas[e.ID]
	old := w.chunks.list[meta.chunkIndex]
	if old.group == g {
		return true
	}
	pos := old.positions[meta.index]
	speed := old.speeds[meta.index]
	w.removeFromChunk(meta)
	w.place(e, meta, g, pos, speed)
	w.mutationVersion++
	return true
}

// createEntity allocates an ID and places the entity into a chunk of group g.
func (w *World) createEntity(g Group, pos Vec3, speed float32) Entity {
	if len(w.entities.freeIDs) == 0 {
		w.expand(1)
	}
	last := len(w.entities.freeIDs) - 1
	id := w.entities.freeIDs[last]
	w.entities.freeIDs = w.entities.freeIDs[:last]
	meta := &w.entities.metas[id]
	meta.version = w.entities.nextEntityVer
	w.entities.nextEntityVer++
	ent := Entity{ID: id, Version: meta.version}
	w.place(ent, meta, g, pos, speed)
	w.entities.count++
	w.mutationVersion++
	return ent
}

// place appends the entity to the open chunk of group g, creating one if the
// group has none or its open chunk is full.
func (w *World) place(e Entity, meta *entityMeta, g Group, pos Vec3, speed float32) {
	c := w.chunks.open[g]
	if c == nil || c.size == len(c.entities) {
		c = newChunk(g, w.chunks.capacity)
		c.index = len(w.chunks.list)
		w.chunks.list = append(w.chunks.list, c)
		w.chunks.open[g] = c
	}
	row := c.size
	c.entities[row] = e
	c.positions[row] = pos
	c.speeds[row] = speed
	c.groups[row] = g
	c.size++
	meta.chunkIndex = c.index
	meta.index = row
}

// expand automatically increases capacity when full.
func (w *World) expand(additional int) {
	oldCap := w.entities.capacity
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 1
	}
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	newMetas := make([]entityMeta, delta)
	for i := range newMetas {
		newMetas[i].chunkIndex = -1
		newMetas[i].index = -1
	}
	w.entities.metas = append(w.entities.metas, newMetas...)
	newFree := make([]uint32, delta)
	for i := range delta {
		newFree[i] = uint32(newCap - 1 - i)
	}
	w.entities.freeIDs = append(w.entities.freeIDs, newFree...)
	w.entities.capacity = newCap
}

// RemoveEntity removes a single entity. Stale handles are ignored.
func (w *World) RemoveEntity(e Entity) {
	if !w.IsValid(e) {
		return
	}
	meta := &w.entities.metas[e.ID]
	w.removeFromChunk(meta)
	meta.chunkIndex = -1
	meta.index = -1
	meta.version = 0
	w.entities.freeIDs = append(w.entities.freeIDs, e.ID)
	w.entities.count--
	w.mutationVersion++
}

// RemoveEntities removes a batch of entities.
func (w *World) RemoveEntities(ents []Entity) {
	for _, e := range ents {
		w.RemoveEntity(e)
	}
}

// ClearEntities removes all entities from the world, recycling their IDs.
func (w *World) ClearEntities() {
	for i := range w.entities.metas {
		w.entities.metas[i].chunkIndex = -1
		w.entities.metas[i].index = -1
		w.entities.metas[i].version = 0
	}
	w.entities.freeIDs = w.entities.freeIDs[:0]
	for i := w.entities.capacity - 1; i >= 0; i-- {
		w.entities.freeIDs = append(w.entities.freeIDs, uint32(i))
	}
	for _, c := range w.chunks.list {
		c.detach()
	}
	w.chunks.list = w.chunks.list[:0]
	w.chunks.open = [MaxGroups]*Chunk{}
	w.entities.count = 0
	w.mutationVersion++
}

// removeFromChunk swap-removes the entity row without freeing its ID. A chunk
// that becomes empty is swap-removed from the arena.
func (w *World) removeFromChunk(meta *entityMeta) {
	chunkIdx := meta.chunkIndex
	c := w.chunks.list[chunkIdx]
	idx := meta.index
	lastIdx := c.size - 1
	if idx < lastIdx {
		lastEnt := c.entities[lastIdx]
		c.entities[idx] = lastEnt
		c.positions[idx] = c.positions[lastIdx]
		c.speeds[idx] = c.speeds[lastIdx]
		c.groups[idx] = c.groups[lastIdx]
		w.entities.metas[lastEnt.ID].index = idx
	}
	c.size--
	if c.size > 0 {
		// a chunk with free rows becomes the group's open chunk again
		if open := w.chunks.open[c.group]; open == nil || open.size == len(open.entities) {
			w.chunks.open[c.group] = c
		}
		return
	}
	if w.chunks.open[c.group] == c {
		w.chunks.open[c.group] = nil
	}
	lastChunkIdx := len(w.chunks.list) - 1
	if chunkIdx < lastChunkIdx {
		swapped := w.chunks.list[lastChunkIdx]
		w.chunks.list[chunkIdx] = swapped
		swapped.index = chunkIdx
		for j := 0; j < swapped.size; j++ {
			w.entities.metas[swapped.entities[j].ID].chunkIndex = chunkIdx
		}
	}
	w.chunks.list[lastChunkIdx] = nil
	w.chunks.list = w.chunks.list[:lastChunkIdx]
	c.detach()
}
