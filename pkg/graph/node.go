package graph

import "github.com/chazu/selvage/pkg/ident"

// VertexKind enumerates the kinds of vertices in the dependency graph.
type VertexKind int

const (
	VertexTool           VertexKind = iota // calculation-section tool (point, line, arc)
	VertexObject                           // calculation-section object with no tool of its own
	VertexModelingObject                   // copy made inside the modeling section (node, path)
	VertexModelingTool                     // operation inside the modeling section (pin, place label)
	VertexPiece                            // detail
)

func (k VertexKind) String() string {
	switch k {
	case VertexTool:
		return "tool"
	case VertexObject:
		return "object"
	case VertexModelingObject:
		return "modeling_object"
	case VertexModelingTool:
		return "modeling_tool"
	case VertexPiece:
		return "piece"
	default:
		return "unknown"
	}
}

// Collectable reports whether vertices of kind k are garbage collection
// candidates.
func (k VertexKind) Collectable() bool {
	return k == VertexModelingObject || k == VertexModelingTool
}

// Vertex is one produced object.
type Vertex struct {
	ID    ident.ID   `json:"id"`
	Kind  VertexKind `json:"kind"`
	Block string     `json:"block,omitempty"`
}

// Edge records that From is depended on by To.
type Edge struct {
	From ident.ID `json:"from"`
	To   ident.ID `json:"to"`
}
