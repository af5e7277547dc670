// Package history records the order in which tools were produced. The ledger
// is the replay order for recomputation and answers "last object in block"
// queries.
package history

import (
	"github.com/chazu/selvage/pkg/ident"
)

// Record is one entry of the ledger.
type Record struct {
	ID    ident.ID
	Kind  ident.ToolKind
	Block string
	// Seq is the global creation position of the record.
	Seq int
}

// Ledger is an append-only sequence of records. Only a garbage collection
// pass may remove entries, and it preserves the order of the rest.
type Ledger struct {
	records []Record
	next    int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append records that tool id of the given kind was produced in block.
func (l *Ledger) Append(id ident.ID, kind ident.ToolKind, block string) Record {
	rec := Record{ID: id, Kind: kind, Block: block, Seq: l.next}
	l.next++
	l.records = append(l.records, rec)
	return rec
}

// Records returns a copy of all records in creation order.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// IDs returns the ids of all records in creation order.
func (l *Ledger) IDs() []ident.ID {
	out := make([]ident.ID, len(l.records))
	for i, r := range l.records {
		out[i] = r.ID
	}
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Local returns the records of one block in creation order.
func (l *Ledger) Local(block string) []Record {
	var out []Record
	for _, r := range l.records {
		if r.Block == block {
			out = append(out, r)
		}
	}
	return out
}

// LastInBlock returns the id of the most recent record in block, or NullID.
func (l *Ledger) LastInBlock(block string) ident.ID {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Block == block {
			return l.records[i].ID
		}
	}
	return ident.NullID
}

// Last returns the most recent record.
func (l *Ledger) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// Drop removes every record whose id is in ids and returns how many were
// removed. The relative order of the remaining records is unchanged.
func (l *Ledger) Drop(ids ident.Set) int {
	kept := l.records[:0]
	for _, r := range l.records {
		if !ids.Has(r.ID) {
			kept = append(kept, r)
		}
	}
	removed := len(l.records) - len(kept)
	for i := len(kept); i < len(l.records); i++ {
		l.records[i] = Record{}
	}
	l.records = kept
	return removed
}

// Clear empties the ledger and restarts sequencing.
func (l *Ledger) Clear() {
	l.records = nil
	l.next = 0
}
