package junban

import "testing"

func spawn(t testing.TB, count, frequency, chunkCap int) (*World, []Entity) {
	t.Helper()
	w := NewWorld(count, chunkCap)
	b := NewBuilder(w, frequency)
	ents := b.NewEntitiesFunc(count, func(i int) Prototype {
		return Prototype{Position: Vec3{X: float32(i)}, Speed: 1 + float32(i%7)}
	})
	return w, ents
}

func TestBuilderAssignsGroupsRoundRobin(t *testing.T) {
	const n, f = 1000, 10
	w, ents := spawn(t, n, f, 64)
	if w.EntityCount() != n {
		t.Fatalf("expected %d entities, got %d", n, w.EntityCount())
	}
	for i, e := range ents {
		g, ok := w.Group(e)
		if !ok {
			t.Fatalf("entity %d not valid", i)
		}
		if int(g) != i%f {
			t.Errorf("entity %d: expected group %d, got %d", i, i%f, g)
		}
	}
}

func TestGroupPartitionCompleteness(t *testing.T) {
	const n, f = 5000, 7
	w, ents := spawn(t, n, f, 128)
	seen := make(map[Entity]int, n)
	for _, c := range w.Chunks() {
		for i, e := range c.Entities() {
			if int(c.Groups()[i]) >= f {
				t.Fatalf("group %d out of range", c.Groups()[i])
			}
			if c.Groups()[i] != c.Group() {
				t.Fatalf("row group %d differs from chunk group %d", c.Groups()[i], c.Group())
			}
			seen[e]++
		}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct entities across groups, got %d", n, len(seen))
	}
	for _, e := range ents {
		if seen[e] != 1 {
			t.Errorf("entity %v seen %d times", e, seen[e])
		}
	}
}

func TestChunksHoldOneGroup(t *testing.T) {
	w, _ := spawn(t, 100, 4, 8)
	perGroup := make(map[Group]int)
	for _, c := range w.Chunks() {
		if c.Len() == 0 || c.Len() > c.Cap() {
			t.Errorf("chunk %d has invalid size %d", c.Index(), c.Len())
		}
		perGroup[c.Group()] += c.Len()
	}
	for g := Group(0); g < 4; g++ {
		if perGroup[g] != 25 {
			t.Errorf("group %d: expected 25 entities, got %d", g, perGroup[g])
		}
	}
	// 25 entities in chunks of 8 -> 4 chunks per group
	if len(w.Chunks()) != 16 {
		t.Errorf("expected 16 chunks, got %d", len(w.Chunks()))
	}
}

func TestPositionAccess(t *testing.T) {
	w, ents := spawn(t, 10, 2, 4)
	p := w.Position(ents[3])
	if p == nil || p.X != 3 {
		t.Fatalf("expected position X 3, got %+v", p)
	}
	if !w.SetPosition(ents[3], Vec3{1, 2, 3}) {
		t.Fatal("SetPosition failed")
	}
	if got := *w.Position(ents[3]); got != (Vec3{1, 2, 3}) {
		t.Errorf("expected {1 2 3}, got %+v", got)
	}
	speed, ok := w.Speed(ents[3])
	if !ok || speed != 4 {
		t.Errorf("expected speed 4, got %v", speed)
	}
}

func TestSetGroupMovesEntity(t *testing.T) {
	w, ents := spawn(t, 8, 2, 4)
	e := ents[0]
	before := *w.Position(e)
	v := w.Version()
	if !w.SetGroup(e, 1) {
		t.Fatal("SetGroup failed")
	}
	if w.Version() == v {
		t.Error("expected version to change after SetGroup")
	}
	g, _ := w.Group(e)
	if g != 1 {
		t.Errorf("expected group 1, got %d", g)
	}
	if got := *w.Position(e); got != before {
		t.Errorf("position changed by SetGroup: %+v -> %+v", before, got)
	}
	speed, _ := w.Speed(e)
	if speed != 1 {
		t.Errorf("expected speed 1, got %v", speed)
	}
	if w.EntityCount() != 8 {
		t.Errorf("expected 8 entities, got %d", w.EntityCount())
	}
	for _, other := range ents[1:] {
		if w.Position(other) == nil {
			t.Fatalf("entity %v lost after SetGroup", other)
		}
	}
}

func TestSetGroupSameGroupIsNoop(t *testing.T) {
	w, ents := spawn(t, 4, 2, 4)
	v := w.Version()
	if !w.SetGroup(ents[0], 0) {
		t.Fatal("SetGroup failed")
	}
	if w.Version() != v {
		t.Error("expected version unchanged")
	}
}

func TestRemoveEntity(t *testing.T) {
	w, ents := spawn(t, 12, 3, 2)
	w.RemoveEntity(ents[0])
	if w.IsValid(ents[0]) {
		t.Error("expected removed entity to be invalid")
	}
	if w.Position(ents[0]) != nil {
		t.Error("expected nil position for removed entity")
	}
	if w.EntityCount() != 11 {
		t.Errorf("expected 11 entities, got %d", w.EntityCount())
	}
	for _, e := range ents[1:] {
		p := w.Position(e)
		if p == nil || p.X != float32(e.ID) {
			t.Errorf("entity %v has wrong position %+v after removal", e, p)
		}
	}
	// removing twice is ignored
	w.RemoveEntity(ents[0])
	if w.EntityCount() != 11 {
		t.Errorf("expected 11 entities, got %d", w.EntityCount())
	}
}

func TestRemoveEntityRecyclesID(t *testing.T) {
	w, ents := spawn(t, 4, 2, 4)
	w.RemoveEntity(ents[1])
	b := NewBuilder(w, 2)
	e := b.NewEntity(Prototype{})
	if e.ID != ents[1].ID {
		t.Errorf("expected recycled ID %d, got %d", ents[1].ID, e.ID)
	}
	if e.Version == ents[1].Version {
		t.Error("expected a new version for the recycled ID")
	}
	if w.IsValid(ents[1]) {
		t.Error("stale handle must stay invalid")
	}
}

func TestEmptyChunkReleased(t *testing.T) {
	w, ents := spawn(t, 4, 4, 4)
	if len(w.Chunks()) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(w.Chunks()))
	}
	c := w.Chunks()[0]
	w.RemoveEntity(ents[0])
	if len(w.Chunks()) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(w.Chunks()))
	}
	if c.Index() != -1 || c.Len() != 0 {
		t.Errorf("expected released chunk, got index %d len %d", c.Index(), c.Len())
	}
	for _, e := range ents[1:] {
		if w.Position(e) == nil {
			t.Errorf("entity %v lost", e)
		}
	}
}

func TestClearEntities(t *testing.T) {
	w, ents := spawn(t, 100, 10, 16)
	w.ClearEntities()
	if w.EntityCount() != 0 || len(w.Chunks()) != 0 {
		t.Errorf("expected empty world, got %d entities in %d chunks", w.EntityCount(), len(w.Chunks()))
	}
	for _, e := range ents {
		if w.IsValid(e) {
			t.Fatalf("entity %v still valid", e)
		}
	}
	b := NewBuilder(w, 10)
	b.NewEntities(10, Prototype{Speed: 1})
	if w.EntityCount() != 10 {
		t.Errorf("expected 10 entities, got %d", w.EntityCount())
	}
}

func TestWorldExpands(t *testing.T) {
	w := NewWorld(2, 4)
	b := NewBuilder(w, 3)
	ents := b.NewEntities(50, Prototype{Speed: 2})
	if w.EntityCount() != 50 {
		t.Fatalf("expected 50 entities, got %d", w.EntityCount())
	}
	ids := make(map[uint32]bool)
	for _, e := range ents {
		if ids[e.ID] {
			t.Fatalf("duplicate ID %d", e.ID)
		}
		ids[e.ID] = true
	}
}

func TestNewBuilderRejectsFrequency(t *testing.T) {
	for _, f := range []int{0, -1, MaxGroups + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for frequency %d", f)
				}
			}()
			NewBuilder(NewWorld(0, 0), f)
		}()
	}
}

func TestSetGroupRejectsLabelOutsideFrequency(t *testing.T) {
	w, ents := spawn(t, 8, 2, 4)
	if w.Frequency() != 2 {
		t.Fatalf("expected frequency 2, got %d", w.Frequency())
	}
	v := w.Version()
	for _, g := range []Group{2, 7, MaxGroups - 1} {
		if w.SetGroup(ents[0], g) {
			t.Errorf("expected SetGroup to reject group %d", g)
		}
	}
	if g, _ := w.Group(ents[0]); g != 0 {
		t.Errorf("expected group 0 to be kept, got %d", g)
	}
	if w.Version() != v {
		t.Error("expected version unchanged after a rejected SetGroup")
	}
}

func TestNewBuilderRejectsOtherFrequency(t *testing.T) {
	w, _ := spawn(t, 10, 5, 4)
	NewBuilder(w, 5).NewEntity(Prototype{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a builder with another frequency")
		}
	}()
	NewBuilder(w, 10)
}

func TestRemoveEntities(t *testing.T) {
	w, ents := spawn(t, 20, 4, 4)
	removed := []Entity{ents[0], ents[5], ents[19], ents[5]}
	w.RemoveEntities(removed)
	if w.EntityCount() != 17 {
		t.Fatalf("expected 17 entities, got %d", w.EntityCount())
	}
	for i, e := range ents {
		dead := i == 0 || i == 5 || i == 19
		if w.IsValid(e) == dead {
			t.Errorf("entity %d: expected valid %v", i, !dead)
		}
	}
	n := 0
	for _, c := range w.Chunks() {
		n += c.Len()
	}
	if n != 17 {
		t.Errorf("expected 17 stored rows, got %d", n)
	}
}
