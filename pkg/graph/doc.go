// Package graph defines the object dependency graph of a pattern document.
// Vertices are produced objects; an edge a -> b means "a is depended on by
// b". The graph is rebuilt from scratch on every full parse and never patched
// across parses.
package graph
