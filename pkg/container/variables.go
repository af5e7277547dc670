package container

import (
	"github.com/chazu/selvage/pkg/ident"
)

// VarKind is the category of a variable.
type VarKind int

const (
	VarIncrement VarKind = iota
	VarPreview
	VarLineLength
	VarLineAngle
	VarCurveLength
	VarArcRadius
	VarCurveAngle
	VarPieceArea
)

func (k VarKind) String() string {
	switch k {
	case VarIncrement:
		return "increment"
	case VarPreview:
		return "preview"
	case VarLineLength:
		return "line_length"
	case VarLineAngle:
		return "line_angle"
	case VarCurveLength:
		return "curve_length"
	case VarArcRadius:
		return "arc_radius"
	case VarCurveAngle:
		return "curve_angle"
	case VarPieceArea:
		return "piece_area"
	default:
		return "unknown"
	}
}

// Derived reports whether variables of this kind are computed from geometry
// rather than declared in the document.
func (k VarKind) Derived() bool {
	return k != VarIncrement && k != VarPreview
}

// Variable is a named value formulas can reference.
type Variable struct {
	Name    string
	Kind    VarKind
	Value   float64
	Formula string
	// Sources are the objects the variable is derived from.
	Sources []ident.ID
	// Index is the declaration order of an increment.
	Index int
}
