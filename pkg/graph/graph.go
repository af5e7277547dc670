package graph

import (
	"sort"

	"github.com/chazu/selvage/pkg/ident"
)

// Graph is the dependency graph built during a full parse.
//
// A Graph is not safe for concurrent mutation. The parser owns it; worker
// tasks return edges as values and the owner applies them.
type Graph struct {
	vertices map[ident.ID]Vertex
	// out maps a vertex to the vertices that depend on it.
	out map[ident.ID][]ident.ID
	// in maps a vertex to the vertices it depends on.
	in map[ident.ID][]ident.ID
	// dangling holds edges whose endpoints were missing when added.
	dangling []Edge
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[ident.ID]Vertex),
		out:      make(map[ident.ID][]ident.ID),
		in:       make(map[ident.ID][]ident.ID),
	}
}

// AddVertex adds v. It returns false when a vertex with the same id already
// exists; the existing vertex is kept.
func (g *Graph) AddVertex(v Vertex) bool {
	if _, ok := g.vertices[v.ID]; ok {
		return false
	}
	g.vertices[v.ID] = v
	return true
}

// AddEdge records that from is depended on by to. Both endpoints must already
// exist; otherwise the edge is kept aside as dangling and AddEdge returns
// false. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to ident.ID) bool {
	_, okFrom := g.vertices[from]
	_, okTo := g.vertices[to]
	if !okFrom || !okTo {
		g.dangling = append(g.dangling, Edge{From: from, To: to})
		return false
	}
	for _, id := range g.out[from] {
		if id == to {
			return true
		}
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return true
}

// RemoveVertex deletes a vertex together with its edges.
func (g *Graph) RemoveVertex(id ident.ID) {
	if _, ok := g.vertices[id]; !ok {
		return
	}
	for _, to := range g.out[id] {
		g.in[to] = without(g.in[to], id)
	}
	for _, from := range g.in[id] {
		g.out[from] = without(g.out[from], id)
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.vertices, id)
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id ident.ID) (Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// VerticesByKind returns the vertices of the given kinds in ascending id
// order.
func (g *Graph) VerticesByKind(kinds ...VertexKind) []Vertex {
	var out []Vertex
	for _, v := range g.vertices {
		for _, k := range kinds {
			if v.Kind == k {
				out = append(out, v)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dependents returns the vertices that directly depend on id.
func (g *Graph) Dependents(id ident.ID) []ident.ID {
	return append([]ident.ID(nil), g.out[id]...)
}

// Dependencies returns the vertices id directly depends on.
func (g *Graph) Dependencies(id ident.ID) []ident.ID {
	return append([]ident.ID(nil), g.in[id]...)
}

// HasDependentOfKind reports whether any vertex of kind k is reachable from
// id by following "depended-on-by" edges, directly or transitively.
func (g *Graph) HasDependentOfKind(id ident.ID, k VertexKind) bool {
	seen := ident.NewSet(id)
	queue := append([]ident.ID(nil), g.out[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen.Has(cur) {
			continue
		}
		seen.Add(cur)
		if v, ok := g.vertices[cur]; ok && v.Kind == k {
			return true
		}
		queue = append(queue, g.out[cur]...)
	}
	return false
}

// Dangling returns the edges that could not be attached.
func (g *Graph) Dangling() []Edge {
	return append([]Edge(nil), g.dangling...)
}

// Clear empties the graph.
func (g *Graph) Clear() {
	g.vertices = make(map[ident.ID]Vertex)
	g.out = make(map[ident.ID][]ident.ID)
	g.in = make(map[ident.ID][]ident.ID)
	g.dangling = nil
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of attached edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, to := range g.out {
		n += len(to)
	}
	return n
}

// Edges returns every attached edge ordered by (From, To).
func (g *Graph) Edges() []Edge {
	var out []Edge
	for from, tos := range g.out {
		for _, to := range tos {
			out = append(out, Edge{From: from, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func without(ids []ident.ID, id ident.ID) []ident.ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
