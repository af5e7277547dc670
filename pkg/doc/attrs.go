package doc

import (
	"strconv"
	"strings"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
)

// String returns a required attribute. When the attribute is missing or
// blank, def is returned; if def is also empty the call fails with an
// empty-parameter error.
func (e *Element) String(name, def string) (string, error) {
	v, _ := e.Attr(name)
	if strings.TrimSpace(v) == "" {
		if def == "" {
			return "", perr.EmptyParameter(e.tag, name)
		}
		return def, nil
	}
	return v, nil
}

// OptString returns an attribute that may legitimately be empty.
func (e *Element) OptString(name, def string) string {
	v, ok := e.Attr(name)
	if !ok {
		return def
	}
	return v
}

// Float returns a numeric attribute, falling back to def when the attribute
// is absent. def is parsed the same way so callers can pass literal text.
func (e *Element) Float(name, def string) (float64, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		if def == "" {
			return 0, perr.EmptyParameter(e.tag, name)
		}
		v = def
	}
	f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(v), ",", ".", 1), 64)
	if err != nil {
		return 0, perr.Conversion(e.tag, name, v, err)
	}
	return f, nil
}

// Uint returns a non-negative integer attribute.
func (e *Element) Uint(name, def string) (uint64, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		if def == "" {
			return 0, perr.EmptyParameter(e.tag, name)
		}
		v = def
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, perr.Conversion(e.tag, name, v, err)
	}
	return n, nil
}

// Bool returns a boolean attribute. Both "true"/"false" and "1"/"0" are
// accepted.
func (e *Element) Bool(name string, def bool) (bool, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, perr.Conversion(e.tag, name, v, err)
	}
	return b, nil
}

// ID returns the element's own id. A missing or zero id is an error.
func (e *Element) ID() (ident.ID, error) {
	return e.RefID(AttrID)
}

// RefID returns a required id-valued attribute.
func (e *Element) RefID(name string) (ident.ID, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return ident.NullID, perr.EmptyParameter(e.tag, name)
	}
	id, err := ident.Parse(strings.TrimSpace(v))
	if err != nil {
		return ident.NullID, perr.Conversion(e.tag, name, v, err)
	}
	if id == ident.NullID {
		return ident.NullID, perr.Object(e.tag, "attribute %q must reference an object", name)
	}
	return id, nil
}

// OptRefID returns an id-valued attribute, NullID when absent or malformed.
func (e *Element) OptRefID(name string) ident.ID {
	v, ok := e.Attr(name)
	if !ok {
		return ident.NullID
	}
	id, err := ident.Parse(strings.TrimSpace(v))
	if err != nil {
		return ident.NullID
	}
	return id
}

// SetFloat stores a numeric attribute in its shortest textual form.
func (e *Element) SetFloat(name string, v float64) {
	e.SetAttr(name, strconv.FormatFloat(v, 'f', -1, 64))
}

// SetID stores an id-valued attribute.
func (e *Element) SetID(name string, id ident.ID) {
	e.SetAttr(name, id.String())
}
