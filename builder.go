package junban

// Prototype is the initial state of a spawned entity.
type Prototype struct {
	Position Vec3
	Speed    float32
}

// Builder spawns entities into a World and assigns each one the update group
// spawnIndex mod frequency, where spawnIndex counts every entity the builder
// has created so far.
type Builder struct {
	world     *World
	frequency int
	next      int
}

// NewBuilder creates a Builder that distributes entities over frequency
// groups. The first Builder or Scheduler fixes the world's frequency. It
// panics if frequency is outside [1, MaxGroups] or differs from the world's;
// validate the configuration first.
func NewBuilder(w *World, frequency int) *Builder {
	if frequency <= 0 || frequency > MaxGroups {
		panic("junban: builder frequency out of range")
	}
	if !w.bindFrequency(frequency) {
		panic("junban: builder frequency differs from the world's")
	}
	return &Builder{world: w, frequency: frequency}
}

// Frequency returns the number of groups the builder distributes over.
func (b *Builder) Frequency() int {
	return b.frequency
}

// NewEntity spawns one entity from p.
func (b *Builder) NewEntity(p Prototype) Entity {
	g := Group(b.next % b.frequency)
	b.next++
	return b.world.createEntity(g, p.Position, p.Speed)
}

// NewEntities spawns count entities that all start from p and returns their
// handles in spawn order.
func (b *Builder) NewEntities(count int, p Prototype) []Entity {
	if count <= 0 {
		return nil
	}
	return b.NewEntitiesFunc(count, func(int) Prototype { return p })
}

// NewEntitiesFunc spawns count entities, calling fn with the batch-relative
// index to obtain each prototype.
func (b *Builder) NewEntitiesFunc(count int, fn func(i int) Prototype) []Entity {
	if count <= 0 {
		return nil
	}
	w := b.world
	if free := len(w.entities.freeIDs); free < count {
		w.expand(count - free)
	}
	ents := make([]Entity, count)
	for i := range count {
		ents[i] = b.NewEntity(fn(i))
	}
	return ents
}
