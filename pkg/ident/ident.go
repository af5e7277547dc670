// Package ident defines object identifiers and tool kinds shared by the
// registry, the history ledger and the dependency graph.
package ident

import (
	"fmt"
	"strconv"
)

// ID identifies one object inside a pattern document. Ids are unique per
// document and are never reused while any record still references them.
type ID uint32

// NullID means "no object".
const NullID ID = 0

// IsNull reports whether id is the sentinel value.
func (id ID) IsNull() bool { return id == NullID }

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Parse converts the textual form of an id. An empty string yields NullID.
func Parse(s string) (ID, error) {
	if s == "" {
		return NullID, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return NullID, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(v), nil
}

// Set is an unordered set of ids.
type Set map[ID]struct{}

// NewSet returns a set containing ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s Set) Add(id ID) { s[id] = struct{}{} }

// Has reports whether id is a member.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}
