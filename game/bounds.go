package game

// Rect is the world-space extent of the play field.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// ScreenBounds is the external screen-bounds provider: the world-space
// corners of the viewport, computed once at startup. Entities read it to
// clamp horizontal movement and detect vertical exit.
type ScreenBounds interface {
	Bounds() Rect
}

// FixedBounds is a static ScreenBounds, used by the server and in tests.
type FixedBounds Rect

func (f FixedBounds) Bounds() Rect {
	return Rect(f)
}
