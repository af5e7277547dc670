package kernel

import (
	"math"
	"testing"
)

// --- Polyline helper method tests ---

func TestPolylinePointCount(t *testing.T) {
	tests := []struct {
		name   string
		points []Vec2
		want   int
	}{
		{"empty", nil, 0},
		{"one point", []Vec2{{1, 2}}, 1},
		{"square", []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Polyline{Points: tt.points}
			if got := p.PointCount(); got != tt.want {
				t.Errorf("PointCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPolylineIsEmpty(t *testing.T) {
	t.Run("empty polyline", func(t *testing.T) {
		p := &Polyline{}
		if !p.IsEmpty() {
			t.Error("IsEmpty() = false for empty polyline, want true")
		}
	})
	t.Run("non-empty polyline", func(t *testing.T) {
		p := &Polyline{Points: []Vec2{{1, 2}}}
		if p.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty polyline, want false")
		}
	})
}

func TestPolylineAppendSkipsRepeats(t *testing.T) {
	p := &Polyline{}
	p.Append(Vec2{0, 0}, Vec2{3, 4})
	p.Append(Vec2{3, 4}, Vec2{3, 8})
	if p.PointCount() != 3 {
		t.Fatalf("PointCount() = %d, want 3", p.PointCount())
	}
	if math.Abs(p.Length()-9) > 1e-9 {
		t.Errorf("Length() = %f, want 9", p.Length())
	}
}

func TestVecAngle(t *testing.T) {
	tests := []struct {
		to   Vec2
		want float64
	}{
		{Vec2{1, 0}, 0},
		{Vec2{0, -1}, 90},
		{Vec2{-1, 0}, 180},
		{Vec2{0, 1}, 270},
	}
	for _, tt := range tests {
		if got := (Vec2{}).Angle(tt.to); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Angle(%v) = %f, want %f", tt.to, got, tt.want)
		}
	}
}

func TestBoxExtent(t *testing.T) {
	b := Box{Min: Vec2{-1, 2}, Max: Vec2{3, 7}}
	if b.Width() != 4 || b.Height() != 5 {
		t.Errorf("got %fx%f, want 4x5", b.Width(), b.Height())
	}
}
