package doc

import "strings"

// Attr is one attribute on an element. Attribute order is preserved so that
// a saved document round-trips without spurious diffs.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the document tree.
//
// Elements are mutated only from the goroutine that owns the document.
// Worker goroutines may read an element subtree while the owner is blocked
// waiting for them.
type Element struct {
	tag      string
	attrs    []Attr
	children []*Element
	parent   *Element
	text     string
	doc      *Document
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.tag }

// Parent returns the parent element; nil for the root or a detached element.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child element slice.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// FirstChild returns the first child element, or nil.
func (e *Element) FirstChild() *Element {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// NextSibling returns the element following e under the same parent, or nil.
func (e *Element) NextSibling() *Element {
	if e.parent == nil {
		return nil
	}
	sibs := e.parent.children
	for i, c := range sibs {
		if c == e && i+1 < len(sibs) {
			return sibs[i+1]
		}
	}
	return nil
}

// FirstChildNamed returns the first direct child with the given tag.
func (e *Element) FirstChildNamed(tag string) *Element {
	for _, c := range e.children {
		if c.tag == tag {
			return c
		}
	}
	return nil
}

// Text returns the text directly under the element, trimmed.
func (e *Element) Text() string { return strings.TrimSpace(e.text) }

// SetText replaces the element's direct text.
func (e *Element) SetText(s string) {
	e.text = s
	e.markModified()
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Attr returns the raw attribute value.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the element attributes.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// SetAttr sets an attribute, appending it when absent. Setting an attribute to
// its current value is a no-op and leaves the modified flag untouched.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.attrs {
		if a.Name == name {
			if a.Value == value {
				return
			}
			e.attrs[i].Value = value
			e.afterAttrChange(name)
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
	e.afterAttrChange(name)
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			e.afterAttrChange(name)
			return
		}
	}
}

// AppendChild attaches c as the last child of e, detaching it from any
// previous parent.
func (e *Element) AppendChild(c *Element) {
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = e
	e.children = append(e.children, c)
	c.adopt(e.doc)
	if e.doc != nil {
		e.doc.InvalidateIDCache()
		e.doc.SetModified(true)
	}
}

// RemoveChild detaches c from e. It returns false when c is not a child of e.
func (e *Element) RemoveChild(c *Element) bool {
	for i, child := range e.children {
		if child != c {
			continue
		}
		e.children = append(e.children[:i], e.children[i+1:]...)
		c.parent = nil
		if e.doc != nil {
			e.doc.InvalidateIDCache()
			e.doc.SetModified(true)
		}
		c.adopt(nil)
		return true
	}
	return false
}

// Walk visits e and its descendants in document order. Returning false from
// fn prunes the subtree below the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

func (e *Element) adopt(d *Document) {
	e.doc = d
	for _, c := range e.children {
		c.adopt(d)
	}
}

func (e *Element) afterAttrChange(name string) {
	if e.doc == nil {
		return
	}
	if name == AttrID {
		e.doc.InvalidateIDCache()
	}
	e.doc.SetModified(true)
}

func (e *Element) markModified() {
	if e.doc != nil {
		e.doc.SetModified(true)
	}
}
