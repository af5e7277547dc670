// Package doc is the mutable document tree the parser walks. It is a small
// XML DOM with id-indexed lookup, typed attribute access and serialization.
package doc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/chazu/selvage/pkg/ident"
)

// AttrID is the attribute carrying an object's id.
const AttrID = "id"

// Document is a parsed pattern document.
type Document struct {
	root *Element

	mu         sync.RWMutex
	idIndex    map[ident.ID]*Element
	indexValid bool
	rebuild    singleflight.Group

	modified bool
	path     string
}

// New returns a document with an empty root element of the given tag.
func New(rootTag string) *Document {
	d := &Document{}
	d.root = &Element{tag: rootTag, doc: d}
	return d
}

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	d := &Document{}

	var stack []*Element
	rootClosed := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("unexpected element %s after document end", t.Name.Local)
			}
			el := &Element{tag: t.Name.Local, doc: d}
			for _, a := range t.Attr {
				el.attrs = append(el.attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
				el.parent = parent
			} else {
				d.root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isSpace(string(t)) {
					return nil, fmt.Errorf("unexpected character data outside root element")
				}
				continue
			}
			stack[len(stack)-1].text += string(t)
		}
	}

	if d.root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return d, nil
}

// Load reads the document stored at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	d.path = path
	return d, nil
}

// Path returns the file the document was loaded from, if any.
func (d *Document) Path() string { return d.path }

// SetPath records the file the document belongs to.
func (d *Document) SetPath(p string) { d.path = p }

// Root returns the document element.
func (d *Document) Root() *Element { return d.root }

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{tag: tag, doc: d}
}

// Modified reports whether the tree changed since load or the last save.
func (d *Document) Modified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// SetModified sets the modified flag.
func (d *Document) SetModified(v bool) {
	d.mu.Lock()
	d.modified = v
	d.mu.Unlock()
}

// ElementsByTagName returns every element with the given tag in document
// order.
func (d *Document) ElementsByTagName(tag string) []*Element {
	var out []*Element
	d.root.Walk(func(e *Element) bool {
		if e.tag == tag {
			out = append(out, e)
		}
		return true
	})
	return out
}

// ElementByID returns the element whose id attribute equals id, or nil.
// Lookups are served from a cache that is rebuilt lazily after the tree
// changes.
func (d *Document) ElementByID(id ident.ID) *Element {
	if id == ident.NullID {
		return nil
	}
	return d.index()[id]
}

func (d *Document) index() map[ident.ID]*Element {
	d.mu.RLock()
	if d.indexValid {
		idx := d.idIndex
		d.mu.RUnlock()
		return idx
	}
	d.mu.RUnlock()

	v, _, _ := d.rebuild.Do("index", func() (any, error) {
		return d.buildIndex(), nil
	})
	return v.(map[ident.ID]*Element)
}

// InvalidateIDCache marks the id index stale.
func (d *Document) InvalidateIDCache() {
	d.mu.Lock()
	d.indexValid = false
	d.mu.Unlock()
}

// RefreshIDCache rebuilds the id index immediately.
func (d *Document) RefreshIDCache() {
	d.InvalidateIDCache()
	d.buildIndex()
}

// MaxID returns the largest id present in the document.
func (d *Document) MaxID() ident.ID {
	var max ident.ID
	for id := range d.index() {
		if id > max {
			max = id
		}
	}
	return max
}

func (d *Document) buildIndex() map[ident.ID]*Element {
	idx := make(map[ident.ID]*Element)
	d.root.Walk(func(e *Element) bool {
		raw, ok := e.Attr(AttrID)
		if !ok {
			return true
		}
		id, err := ident.Parse(raw)
		if err != nil || id == ident.NullID {
			return true
		}
		if _, dup := idx[id]; !dup {
			idx[id] = e
		}
		return true
	})

	d.mu.Lock()
	d.idIndex = idx
	d.indexValid = true
	d.mu.Unlock()
	return idx
}

// WriteTo serializes the document as indented XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := encodeElement(enc, d.root); err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path and clears the modified flag.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	d.path = path
	d.SetModified(false)
	return nil
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.tag}}
	for _, a := range e.attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text := strings.TrimSpace(e.text); text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	for _, c := range e.children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func isSpace(data string) bool {
	for _, r := range data {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
