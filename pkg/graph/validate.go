package graph

import (
	"fmt"
	"sort"

	"github.com/chazu/selvage/pkg/ident"
)

// ValidationSeverity indicates whether a validation finding makes the graph
// incomplete or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // graph is not complete
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       ident.ID           // which vertex has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.ID.IsNull() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] vertex %d: %s", e.Severity, e.ID, e.Message)
}

// Validate runs the structural checks on the graph and returns every finding.
// It never mutates the graph.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateIsolatedPieces(g)...)
	return errs
}

// Complete reports whether the graph has no error-severity findings: every
// edge endpoint resolved and no dependency cycle.
func (g *Graph) Complete() bool {
	for _, e := range Validate(g) {
		if e.Severity == SeverityError {
			return false
		}
	}
	return true
}

// validateReferences reports every edge whose endpoints did not exist when it
// was added.
func validateReferences(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, e := range g.dangling {
		missing := e.From
		if _, ok := g.vertices[e.From]; ok {
			missing = e.To
		}
		errs = append(errs, ValidationError{
			ID:       e.To,
			Message:  fmt.Sprintf("edge %d -> %d references missing vertex %d", e.From, e.To, missing),
			Severity: SeverityError,
		})
	}
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray vertex during traversal, we have found a cycle.
func validateDAG(g *Graph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[ident.ID]int)
	var errs []ValidationError

	var visit func(id ident.ID) bool // returns true if cycle found
	visit = func(id ident.ID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  "dependency cycle detected",
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		for _, next := range g.out[id] {
			if visit(next) {
				return true
			}
		}
		color[id] = black
		return false
	}

	// Visit in id order so the reported vertex is stable.
	ids := make([]ident.ID, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateIsolatedPieces warns about pieces that depend on nothing.
func validateIsolatedPieces(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, v := range g.VerticesByKind(VertexPiece) {
		if len(g.in[v.ID]) == 0 {
			errs = append(errs, ValidationError{
				ID:       v.ID,
				Message:  "piece has no outline dependencies",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
