package junban

// kernel applies position += Up * speed * dt * scale to the rows that pass its
// eligibility test. One kernel serves every strategy; the policy decides the
// test and the scale.
type kernel struct {
	step        Vec3 // Up * dt * scale
	cursor      int
	frequency   int
	eligibility Eligibility
}

func newKernel(p Policy, cursor Group, frequency int, dt float32) kernel {
	return kernel{
		step:        Up.Scale(dt * p.factor(frequency)),
		cursor:      int(cursor),
		frequency:   frequency,
		eligibility: p.Eligibility,
	}
}

// rows updates positions in place. first is the domain-wide index of
// positions[0], used by the modulus test. It returns the number of rows
// written.
func (k *kernel) rows(positions []Vec3, speeds []float32, first int) int {
	if len(positions) != len(speeds) {
		panic("junban: position and speed columns differ in length")
	}
	n := 0
	for i := range positions {
		if k.eligibility == EligibleModulus && (first+i+k.cursor)%k.frequency != 0 {
			continue
		}
		positions[i] = positions[i].Add(k.step.Scale(speeds[i]))
		n++
	}
	return n
}

// chunk updates the live rows of c in place.
func (k *kernel) chunk(c *Chunk, first int) int {
	if k.eligibility == EligibleChunkGroup && int(c.group) != k.cursor {
		return 0
	}
	return k.rows(c.positions[:c.size], c.speeds[:c.size], first)
}
