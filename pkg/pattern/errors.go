package pattern

import (
	"fmt"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
)

// wrapBadID reports an unresolved reference as a malformed node, naming the
// element that held it. Other errors pass through unchanged.
func wrapBadID(e *doc.Element, err error) error {
	if !perr.IsKind(err, perr.KindBadID) {
		return err
	}
	pe := &perr.Error{
		Kind:    perr.KindObject,
		Message: fmt.Sprintf("error creating or updating %s", describe(e)),
		Tag:     e.Tag(),
		Err:     err,
	}
	if raw, ok := e.Attr(doc.AttrID); ok {
		pe.ID, _ = ident.Parse(raw)
	}
	return pe
}

func describe(e *doc.Element) string {
	if t, ok := e.Attr(attrType); ok && t != "" {
		return t + " " + e.Tag()
	}
	return e.Tag()
}
