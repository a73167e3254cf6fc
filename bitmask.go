package junban

import "math/bits"

// bitmask256 represents a set of up to 256 update groups. Each bit corresponds
// to a group label, and if the bit is set the group is part of the set.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given group.
func (m *bitmask256) set(g Group) {
	i := g >> 6 // (g / 64) to find the uint64 index
	o := g & 63 // (g % 64) to find the bit offset
	m[i] |= uint64(1) << uint64(o)
}

// containsBit checks if a specific group is in the set.
func (m bitmask256) containsBit(g Group) bool {
	i := g >> 6
	o := g & 63
	return (m[i] & (uint64(1) << uint64(o))) != 0
}

// count returns the number of groups in the set.
func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}
