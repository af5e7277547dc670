package kernel

// Polyline is an ordered list of points, the tessellated form of a piece
// path.
type Polyline struct {
	Points []Vec2 `json:"points"`
	// Name is the piece or path the polyline was produced for.
	Name string `json:"name"`
}

// PointCount returns the number of points.
func (p *Polyline) PointCount() int {
	return len(p.Points)
}

// IsEmpty returns true if the polyline has no geometry.
func (p *Polyline) IsEmpty() bool {
	return len(p.Points) == 0
}

// Length returns the total length of the segments.
func (p *Polyline) Length() float64 {
	var l float64
	for i := 1; i < len(p.Points); i++ {
		l += p.Points[i-1].Dist(p.Points[i])
	}
	return l
}

// Append adds pts, skipping a leading point that repeats the current last
// point.
func (p *Polyline) Append(pts ...Vec2) {
	for _, pt := range pts {
		if n := len(p.Points); n > 0 && p.Points[n-1] == pt {
			continue
		}
		p.Points = append(p.Points, pt)
	}
}
