package ident

// ToolKind classifies the tool that produced a history record.
type ToolKind int

const (
	ToolBasePoint ToolKind = iota
	ToolEndLine
	ToolAlongLine
	ToolLine
	ToolArc
	ToolCubicBezier
	ToolNodePoint
	ToolNodeArc
	ToolNodeSpline
	ToolPiecePath
	ToolPin
	ToolPlaceLabel
	ToolPiece
)

// String returns a human-readable name for the tool kind.
func (k ToolKind) String() string {
	switch k {
	case ToolBasePoint:
		return "BasePoint"
	case ToolEndLine:
		return "EndLine"
	case ToolAlongLine:
		return "AlongLine"
	case ToolLine:
		return "Line"
	case ToolArc:
		return "Arc"
	case ToolCubicBezier:
		return "CubicBezier"
	case ToolNodePoint:
		return "NodePoint"
	case ToolNodeArc:
		return "NodeArc"
	case ToolNodeSpline:
		return "NodeSpline"
	case ToolPiecePath:
		return "PiecePath"
	case ToolPin:
		return "Pin"
	case ToolPlaceLabel:
		return "PlaceLabel"
	case ToolPiece:
		return "Piece"
	default:
		return "Unknown"
	}
}
