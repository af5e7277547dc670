// Package piece defines the composite piece record and assembles it from a
// detail node. Sub-sections are parsed concurrently and joined into one
// value; a partially joined record is never returned.
package piece

import (
	"fmt"

	"github.com/chazu/selvage/pkg/ident"
)

// NodeType is the kind of object a path node refers to.
type NodeType int

const (
	NodePoint NodeType = iota
	NodeArc
	NodeSpline
)

func (t NodeType) String() string {
	switch t {
	case NodePoint:
		return "NodePoint"
	case NodeArc:
		return "NodeArc"
	case NodeSpline:
		return "NodeSpline"
	default:
		return "Unknown"
	}
}

// ParseNodeType converts the document spelling of a node type.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "NodePoint":
		return NodePoint, nil
	case "NodeArc":
		return NodeArc, nil
	case "NodeSpline":
		return NodeSpline, nil
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// Node is one element of a piece outline or internal path.
type Node struct {
	ID       ident.ID `json:"id"`
	Type     NodeType `json:"type"`
	Reverse  bool     `json:"reverse,omitempty"`
	Excluded bool     `json:"excluded,omitempty"`
	// SABefore and SAAfter are seam allowance width formulas; empty means
	// the piece default.
	SABefore string `json:"saBefore,omitempty"`
	SAAfter  string `json:"saAfter,omitempty"`
}

// Path is an ordered list of nodes.
type Path struct {
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
}

// NodeIDs returns the ids of the path's nodes in order.
func (p Path) NodeIDs() []ident.ID {
	ids := make([]ident.ID, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// LabelData places the piece label.
type LabelData struct {
	Visible   bool     `json:"visible"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     string   `json:"width,omitempty"`
	Height    string   `json:"height,omitempty"`
	Rotation  string   `json:"rotation,omitempty"`
	Letter    string   `json:"letter,omitempty"`
	FontSize  int      `json:"fontSize"`
	CenterPin ident.ID `json:"centerPin,omitempty"`
	TopLeft   ident.ID `json:"topLeftPin,omitempty"`
	BottomRt  ident.ID `json:"bottomRightPin,omitempty"`
}

// PatternLabelData places the pattern-info label on the piece.
type PatternLabelData struct {
	Visible   bool     `json:"visible"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     string   `json:"width,omitempty"`
	Height    string   `json:"height,omitempty"`
	Rotation  string   `json:"rotation,omitempty"`
	FontSize  int      `json:"fontSize"`
	CenterPin ident.ID `json:"centerPin,omitempty"`
	TopLeft   ident.ID `json:"topLeftPin,omitempty"`
	BottomRt  ident.ID `json:"bottomRightPin,omitempty"`
}

// ArrowType selects the arrowheads drawn on a grainline.
type ArrowType int

const (
	ArrowBoth ArrowType = iota
	ArrowFront
	ArrowRear
)

// GrainlineData places the grainline.
type GrainlineData struct {
	Visible   bool      `json:"visible"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Length    string    `json:"length,omitempty"`
	Rotation  string    `json:"rotation,omitempty"`
	Arrow     ArrowType `json:"arrow"`
	CenterPin ident.ID  `json:"centerPin,omitempty"`
	TopPin    ident.ID  `json:"topPin,omitempty"`
	BottomPin ident.ID  `json:"bottomPin,omitempty"`
}

// CustomSARecord replaces the seam allowance between Start and End with the
// internal path Path.
type CustomSARecord struct {
	Start     ident.ID `json:"start"`
	Path      ident.ID `json:"path"`
	End       ident.ID `json:"end"`
	Reverse   bool     `json:"reverse,omitempty"`
	IncludeAs int      `json:"includeAs"`
}

// FoldLineData is the mirror line of a symmetric piece.
type FoldLineData struct {
	P1      ident.ID `json:"p1"`
	P2      ident.ID `json:"p2"`
	Visible bool     `json:"visible"`
}

// Record is the fully assembled piece.
type Record struct {
	ID            ident.ID `json:"id"`
	Name          string   `json:"name"`
	Version       int      `json:"version"`
	Width         string   `json:"width"`
	SeamAllowance bool     `json:"seamAllowance"`
	Closed        bool     `json:"closed"`
	X             float64  `json:"mx"`
	Y             float64  `json:"my"`

	Path          Path             `json:"path"`
	Label         LabelData        `json:"label"`
	PatternInfo   PatternLabelData `json:"patternInfo"`
	Grainline     GrainlineData    `json:"grainline"`
	CustomSA      []CustomSARecord `json:"customSA,omitempty"`
	InternalPaths []ident.ID       `json:"internalPaths,omitempty"`
	Pins          []ident.ID       `json:"pins,omitempty"`
	PlaceLabels   []ident.ID       `json:"placeLabels,omitempty"`
	FoldLine      *FoldLineData    `json:"foldLine,omitempty"`
}

// Dependencies returns every id the piece consumes: outline nodes, custom
// seam allowance paths, internal paths, pins and place labels.
func (r Record) Dependencies() []ident.ID {
	var ids []ident.ID
	ids = append(ids, r.Path.NodeIDs()...)
	for _, csa := range r.CustomSA {
		ids = append(ids, csa.Path)
	}
	ids = append(ids, r.InternalPaths...)
	ids = append(ids, r.Pins...)
	ids = append(ids, r.PlaceLabels...)
	return ids
}
