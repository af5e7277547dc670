package pattern

import "slices"

// Blocks is the ordered list of pattern blocks with one active block.
type Blocks struct {
	names  []string
	active int
}

func newBlocks() *Blocks { return &Blocks{active: -1} }

// Add registers name and returns its index. A known name keeps its index.
func (b *Blocks) Add(name string) int {
	if i := slices.Index(b.names, name); i >= 0 {
		return i
	}
	b.names = append(b.names, name)
	return len(b.names) - 1
}

// SetActive selects the block called name. It reports false for an unknown
// name and leaves the selection unchanged.
func (b *Blocks) SetActive(name string) bool {
	i := slices.Index(b.names, name)
	if i < 0 {
		return false
	}
	b.active = i
	return true
}

// SetActiveIndex selects the block at i.
func (b *Blocks) SetActiveIndex(i int) {
	if i >= 0 && i < len(b.names) {
		b.active = i
	}
}

// Active returns the active block name, or "" when none is selected.
func (b *Blocks) Active() string {
	if b.active < 0 {
		return ""
	}
	return b.names[b.active]
}

// Names returns the block names in document order.
func (b *Blocks) Names() []string { return slices.Clone(b.names) }

func (b *Blocks) Len() int { return len(b.names) }

// Clear drops every block.
func (b *Blocks) Clear() {
	b.names = nil
	b.active = -1
}
