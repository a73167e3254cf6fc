package junban

// Vec3 is a float32 3D vector used for entity positions.
type Vec3 struct {
	X, Y, Z float32
}

// Up is the unit vector along +Y, the direction every entity travels in.
var Up = Vec3{0, 1, 0}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
