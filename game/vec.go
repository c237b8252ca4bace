package game

import "math"

// Vec2 is a 2D vector in world space. Y grows downward, matching screen
// coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Normalized returns the unit vector in the same direction. The zero
// vector stays zero.
func (v Vec2) Normalized() Vec2 {
	n := math.Hypot(v.X, v.Y)
	if n == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / n, Y: v.Y / n}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}
