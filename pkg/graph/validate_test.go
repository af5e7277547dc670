package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildPiece creates a small valid graph: a base point copied into the
// modeling section, used by one piece.
func buildPiece() *Graph {
	g := New()
	g.AddVertex(Vertex{ID: 1, Kind: VertexTool, Block: "Block 1"})
	g.AddVertex(Vertex{ID: 2, Kind: VertexModelingObject, Block: "Block 1"})
	g.AddVertex(Vertex{ID: 3, Kind: VertexPiece, Block: "Block 1"})
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	return g
}

// hasError reports whether errs contains an error-severity finding whose
// message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidateValidGraph(t *testing.T) {
	g := buildPiece()
	if errs := Validate(g); len(errs) != 0 {
		t.Fatalf("expected no findings, got %v", errs)
	}
	if !g.Complete() {
		t.Error("valid graph should be complete")
	}
}

func TestValidateCycle(t *testing.T) {
	g := buildPiece()
	g.AddEdge(3, 1)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Fatalf("expected cycle error, got %v", errs)
	}
	if g.Complete() {
		t.Error("cyclic graph should not be complete")
	}
}

func TestValidateDanglingEdge(t *testing.T) {
	g := buildPiece()
	g.AddEdge(7, 3)

	errs := Validate(g)
	if !hasError(errs, "missing vertex 7") {
		t.Fatalf("expected dangling reference error, got %v", errs)
	}
}

func TestValidateIsolatedPieceIsWarning(t *testing.T) {
	g := New()
	g.AddVertex(Vertex{ID: 5, Kind: VertexPiece})

	errs := Validate(g)
	if len(errs) != 1 || errs[0].Severity != SeverityWarning {
		t.Fatalf("expected one warning, got %v", errs)
	}
	if !g.Complete() {
		t.Error("warnings must not make the graph incomplete")
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{ID: 4, Message: "boom", Severity: SeverityError}
	if got := e.Error(); got != "[error] vertex 4: boom" {
		t.Errorf("got %q", got)
	}
	e = ValidationError{Message: "graph-level", Severity: SeverityWarning}
	if got := e.Error(); got != "[warning] graph-level" {
		t.Errorf("got %q", got)
	}
}
