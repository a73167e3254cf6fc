package junban

// DomainKind tells the kernel how a tick's iteration domain is laid out.
type DomainKind uint8

const (
	// DomainRows is a flat run of rows gathered into extraction buffers and
	// scattered back once updated.
	DomainRows DomainKind = iota
	// DomainChunks is a list of chunks updated in place.
	DomainChunks
)

func (k DomainKind) String() string {
	switch k {
	case DomainRows:
		return "rows"
	case DomainChunks:
		return "chunks"
	default:
		return "unknown"
	}
}

// Selection names how the query engine derives a tick's domain.
type Selection uint8

const (
	// SelectAll gathers every row.
	SelectAll Selection = iota
	// SelectScan gathers the rows of the due group by scanning every row's
	// group label.
	SelectScan
	// SelectMembership gathers the rows of the due group from membership lists
	// built by one earlier scan.
	SelectMembership
	// SelectChunks takes every chunk.
	SelectChunks
	// SelectIndexFresh rebuilds the group index, then takes the due group's chunks.
	SelectIndexFresh
	// SelectIndexCached takes the due group's chunks from the group index as it
	// was last built.
	SelectIndexCached
)

// entityRef addresses a row by chunk arena index and row.
type entityRef struct {
	chunk int32
	row   int32
}

// extraction holds rows copied out of the store. refs[i] records where
// positions[i] and speeds[i] came from so results can be scattered back.
type extraction struct {
	refs      []entityRef
	positions []Vec3
	speeds    []float32
}

func (x *extraction) reset() {
	x.refs = x.refs[:0]
	x.positions = x.positions[:0]
	x.speeds = x.speeds[:0]
}

func (x *extraction) push(c *Chunk, ci, row int) {
	x.refs = append(x.refs, entityRef{chunk: int32(ci), row: int32(row)})
	x.positions = append(x.positions, c.positions[row])
	x.speeds = append(x.speeds, c.speeds[row])
}

// gather replaces the contents of x with copies of the rows named by refs.
func (x *extraction) gather(w *World, refs []entityRef) {
	x.reset()
	x.refs = append(x.refs, refs...)
	for _, r := range refs {
		c := w.chunks.list[r.chunk]
		x.positions = append(x.positions, c.positions[r.row])
		x.speeds = append(x.speeds, c.speeds[r.row])
	}
}

// scatter writes positions[lo:hi] back to the store.
func (x *extraction) scatter(w *World, lo, hi int) {
	for i := lo; i < hi; i++ {
		r := x.refs[i]
		w.chunks.list[r.chunk].positions[r.row] = x.positions[i]
	}
}

// len returns the number of extracted rows. A mismatch between the buffers
// can only come from a broken selection step, so it aborts.
func (x *extraction) len() int {
	n := len(x.refs)
	if len(x.positions) != n || len(x.speeds) != n {
		panic("junban: extraction buffers out of step")
	}
	return n
}

// Release drops the buffers.
func (x *extraction) Release() {
	x.refs = nil
	x.positions = nil
	x.speeds = nil
}

// membership caches, per group, the rows found by one scan of the store. It is
// rescanned only when the world's structure changes.
type membership struct {
	groups  [][]entityRef
	version uint32
	built   bool
}

func (m *membership) refresh(w *World, frequency int) {
	if m.built && m.version == w.Version() {
		return
	}
	if cap(m.groups) < frequency {
		m.groups = make([][]entityRef, frequency)
	}
	m.groups = m.groups[:frequency]
	for g := range m.groups {
		m.groups[g] = m.groups[g][:0]
	}
	for ci, c := range w.chunks.list {
		for i, g := range c.groups[:c.size] {
			if int(g) < frequency {
				m.groups[g] = append(m.groups[g], entityRef{chunk: int32(ci), row: int32(i)})
			}
		}
	}
	m.version = w.Version()
	m.built = true
}

func (m *membership) lookup(g Group) []entityRef {
	if int(g) >= len(m.groups) {
		return nil
	}
	return m.groups[g]
}

// Release drops the cached lists.
func (m *membership) Release() {
	m.groups = nil
	m.built = false
}

// domain is the set of rows or chunks a tick updates.
type domain struct {
	rows    *extraction
	chunks  []*Chunk
	offsets []int // global index of each chunk's first row, DomainChunks only
	kind    DomainKind
}

// entities returns the number of entities covered by the domain.
func (d *domain) entities() int {
	if d.kind == DomainRows {
		return d.rows.len()
	}
	n := 0
	for _, c := range d.chunks {
		n += c.size
	}
	return n
}

func (d *domain) setRows(x *extraction) {
	d.kind = DomainRows
	d.rows = x
	d.chunks = d.chunks[:0]
	d.offsets = d.offsets[:0]
}

// selectAllChunks fills d with every chunk of w and their first-row offsets.
func (d *domain) selectAllChunks(w *World) {
	d.kind = DomainChunks
	d.rows = nil
	d.chunks = append(d.chunks[:0], w.chunks.list...)
	d.offsets = d.offsets[:0]
	first := 0
	for _, c := range d.chunks {
		d.offsets = append(d.offsets, first)
		first += c.size
	}
}

// selectIndexed fills d with the chunks the index lists for g.
func (d *domain) selectIndexed(idx *GroupIndex, g Group) {
	d.kind = DomainChunks
	d.rows = nil
	d.chunks = append(d.chunks[:0], idx.Lookup(g)...)
	d.offsets = d.offsets[:0]
}

// release drops references to store data held between ticks.
func (d *domain) release() {
	d.rows = nil
	d.chunks = nil
	d.offsets = nil
}
