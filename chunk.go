package junban

// Chunk holds fixed-capacity, contiguous storage for entities of a single
// update group. It is the unit of parallel dispatch: during a tick at most one
// task writes to a given chunk.
type Chunk struct {
	entities  []Entity
	positions []Vec3
	speeds    []float32
	groups    []Group // per-row label, always equal to group while attached
	size      int     // number of live rows, 0 to capacity
	index     int     // position in the world's chunk arena, -1 once detached
	group     Group
}

func newChunk(g Group, capacity int) *Chunk {
	return &Chunk{
		entities:  make([]Entity, capacity),
		positions: make([]Vec3, capacity),
		speeds:    make([]float32, capacity),
		groups:    make([]Group, capacity),
		group:     g,
	}
}

// Len returns the number of live rows.
func (c *Chunk) Len() int {
	return c.size
}

// Cap returns the row capacity.
func (c *Chunk) Cap() int {
	return len(c.entities)
}

// Group returns the update group shared by every row of the chunk.
func (c *Chunk) Group() Group {
	return c.group
}

// Index returns the chunk's position in the world's arena, or -1 if the chunk
// has been released by the world.
func (c *Chunk) Index() int {
	return c.index
}

// Entities returns the live entity handles of the chunk.
func (c *Chunk) Entities() []Entity {
	return c.entities[:c.size]
}

// Positions returns the live position column. Writes go straight to the store.
func (c *Chunk) Positions() []Vec3 {
	return c.positions[:c.size]
}

// Speeds returns the live speed column. It must be treated as read-only.
func (c *Chunk) Speeds() []float32 {
	return c.speeds[:c.size]
}

// Groups returns the live per-row group column. It must be treated as read-only.
func (c *Chunk) Groups() []Group {
	return c.groups[:c.size]
}

// detach marks a chunk as no longer owned by the world. Stale references held
// by a GroupIndex then observe an empty chunk.
func (c *Chunk) detach() {
	c.size = 0
	c.index = -1
}
