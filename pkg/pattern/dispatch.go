package pattern

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/perr"
)

// Document sections a handler can be registered for.
const (
	SectionCalculation = "calculation"
	SectionModeling    = "modeling"
	SectionDetails     = "details"
	SectionGroups      = "groups"
)

// HandlerKey selects a handler by draw section, element tag and, for tags
// that come in several flavours, the element's type attribute.
type HandlerKey struct {
	Section string
	Tag     string
	Type    string
}

func (k HandlerKey) String() string {
	if k.Type == "" {
		return k.Section + "/" + k.Tag
	}
	return k.Section + "/" + k.Tag + "[" + k.Type + "]"
}

// Handler materializes one document element.
type Handler func(ctx context.Context, p *Pattern, e *doc.Element, mode ParseMode) error

// Handlers is the tag dispatch table.
type Handlers map[HandlerKey]Handler

// typedTags lists the tags whose handler is chosen by the type attribute.
var typedTags = map[string]bool{"point": true, "arc": true, "spline": true}

// DefaultHandlers returns the built-in dispatch table.
func DefaultHandlers() Handlers {
	return Handlers{
		{SectionCalculation, "point", "single"}:       handleBasePoint,
		{SectionCalculation, "point", "endLine"}:      handleEndLine,
		{SectionCalculation, "point", "alongLine"}:    handleAlongLine,
		{SectionCalculation, "line", ""}:              handleLine,
		{SectionCalculation, "arc", "simple"}:         handleArc,
		{SectionCalculation, "spline", "cubicBezier"}: handleCubicBezier,
		{SectionModeling, "point", "modeling"}:        handleNodePoint,
		{SectionModeling, "point", "pin"}:             handlePin,
		{SectionModeling, "point", "placeLabel"}:      handlePlaceLabel,
		{SectionModeling, "arc", "modeling"}:          handleNodeArc,
		{SectionModeling, "spline", "modeling"}:       handleNodeSpline,
		{SectionModeling, "path", ""}:                 handlePath,
		{SectionDetails, "detail", ""}:                handleDetail,
		{SectionGroups, "group", ""}:                  handleGroup,
	}
}

// requiredHandlers are the keys every table must carry.
var requiredHandlers = func() []HandlerKey {
	keys := make([]HandlerKey, 0, len(DefaultHandlers()))
	for k := range DefaultHandlers() {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}()

// Validate reports every required key that has no handler.
func (h Handlers) Validate() error {
	var missing []string
	for _, k := range requiredHandlers {
		if h[k] == nil {
			missing = append(missing, k.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dispatch table is missing handlers for %s", strings.Join(missing, ", "))
	}
	return nil
}

// lookup finds the handler for e inside section. Unknown tags or types in
// the draw sections are Object errors; details and groups skip strangers.
func (p *Pattern) lookup(section string, e *doc.Element) (Handler, error) {
	key := HandlerKey{Section: section, Tag: e.Tag()}
	if typedTags[e.Tag()] {
		key.Type = e.OptString("type", "")
	}
	if h := p.handlers[key]; h != nil {
		return h, nil
	}
	if section == SectionDetails || section == SectionGroups {
		return nil, nil
	}
	if typedTags[e.Tag()] {
		return nil, perr.Object(e.Tag(), "unknown %s type %q in %s", e.Tag(), key.Type, section)
	}
	return nil, perr.Object(e.Tag(), "unknown tag %q in %s", e.Tag(), section)
}
