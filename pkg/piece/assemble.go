package piece

import (
	"context"
	"strconv"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/workpool"
)

// Section names one independently parsed part of a detail node.
type Section int

const (
	SectionNodes Section = iota
	SectionData
	SectionPatternInfo
	SectionGrainline
	SectionCustomSA
	SectionInternalPaths
	SectionPins
	SectionPlaceLabels
	SectionFoldLine
)

var sectionTags = map[string]Section{
	"nodes":       SectionNodes,
	"data":        SectionData,
	"patternInfo": SectionPatternInfo,
	"grainline":   SectionGrainline,
	"csa":         SectionCustomSA,
	"iPaths":      SectionInternalPaths,
	"pins":        SectionPins,
	"placeLabels": SectionPlaceLabels,
	"mirrorLine":  SectionFoldLine,
}

func (s Section) String() string {
	for tag, sec := range sectionTags {
		if sec == s {
			return tag
		}
	}
	return "unknown"
}

// Outcome reports which sections were joined into the record and which were
// abandoned because the context was cancelled.
type Outcome struct {
	Applied   []Section
	Cancelled []Section
}

// Complete reports whether no section was cancelled.
func (o Outcome) Complete() bool { return len(o.Cancelled) == 0 }

// CurrentVersion is the detail format version that stores seam allowance
// per node. Older details carry one width for the whole piece.
const CurrentVersion = 2

// Assembler parses detail nodes on a worker pool.
type Assembler struct {
	pool *workpool.Pool
}

// NewAssembler returns an assembler that schedules section parsers on pool.
func NewAssembler(pool *workpool.Pool) *Assembler {
	return &Assembler{pool: pool}
}

// pending is a dispatched section awaiting its join.
type pending struct {
	section Section
	join    func(*Record) (workpool.TaskState, error)
}

func dispatch[T any](ctx context.Context, pool *workpool.Pool, s Section, parse func() (T, error), set func(*Record, T)) pending {
	f := workpool.Go(ctx, pool, func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return parse()
	})
	return pending{
		section: s,
		join: func(r *Record) (workpool.TaskState, error) {
			v, err := f.Wait()
			st := f.State()
			if st == workpool.Completed {
				set(r, v)
			}
			return st, err
		},
	}
}

// Assemble builds the record for elem on top of base. Header attributes are
// read before any section is dispatched, so the legacy node conversion sees
// the piece width and closed flag. Every section is joined before the
// record is returned; a failed section fails the whole assembly and base is
// returned unchanged. Cancelled sections are left at their base values and
// listed in the outcome.
func (a *Assembler) Assemble(ctx context.Context, elem *doc.Element, base Record) (Record, Outcome, error) {
	var out Outcome
	rec := base

	id, err := elem.ID()
	if err != nil {
		return base, out, err
	}
	rec.ID = id
	if rec.Name, err = elem.String("name", "Detail"); err != nil {
		return base, out, err
	}
	version, err := elem.Uint("version", "1")
	if err != nil {
		return base, out, err
	}
	rec.Version = int(version)
	if rec.X, err = elem.Float("mx", "0"); err != nil {
		return base, out, err
	}
	if rec.Y, err = elem.Float("my", "0"); err != nil {
		return base, out, err
	}
	rec.Width = elem.OptString("width", "0")
	if rec.SeamAllowance, err = elem.Bool("seamAllowance", false); err != nil {
		return base, out, err
	}
	if rec.Closed, err = elem.Bool("closed", true); err != nil {
		return base, out, err
	}
	width, closed, legacy := rec.Width, rec.Closed, rec.Version < CurrentVersion

	var jobs []pending
	for _, child := range elem.Children() {
		sec, ok := sectionTags[child.Tag()]
		if !ok {
			continue
		}
		child := child
		switch sec {
		case SectionNodes:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() ([]Node, error) {
				if legacy {
					return parseLegacyNodes(child, width, closed)
				}
				return parseNodes(child)
			}, func(r *Record, v []Node) { r.Path.Nodes = v }))
		case SectionData:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() (LabelData, error) {
				return parseLabel(child)
			}, func(r *Record, v LabelData) { r.Label = v }))
		case SectionPatternInfo:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() (PatternLabelData, error) {
				return parsePatternLabel(child)
			}, func(r *Record, v PatternLabelData) { r.PatternInfo = v }))
		case SectionGrainline:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() (GrainlineData, error) {
				return parseGrainline(child)
			}, func(r *Record, v GrainlineData) { r.Grainline = v }))
		case SectionCustomSA:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() ([]CustomSARecord, error) {
				return parseCustomSA(child)
			}, func(r *Record, v []CustomSARecord) { r.CustomSA = v }))
		case SectionInternalPaths:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() ([]ident.ID, error) {
				return parseRecordAttrs(child, "path"), nil
			}, func(r *Record, v []ident.ID) { r.InternalPaths = v }))
		case SectionPins:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() ([]ident.ID, error) {
				return parseRecordTexts(child), nil
			}, func(r *Record, v []ident.ID) { r.Pins = v }))
		case SectionPlaceLabels:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() ([]ident.ID, error) {
				return parseRecordTexts(child), nil
			}, func(r *Record, v []ident.ID) { r.PlaceLabels = v }))
		case SectionFoldLine:
			jobs = append(jobs, dispatch(ctx, a.pool, sec, func() (*FoldLineData, error) {
				return parseFoldLine(child)
			}, func(r *Record, v *FoldLineData) { r.FoldLine = v }))
		}
	}

	// Join all of them even after a failure so no task outlives the call.
	var firstErr error
	for _, j := range jobs {
		st, err := j.join(&rec)
		switch st {
		case workpool.Completed:
			out.Applied = append(out.Applied, j.section)
		case workpool.Cancelled:
			out.Cancelled = append(out.Cancelled, j.section)
		default:
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return base, Outcome{}, firstErr
	}
	return rec, out, nil
}

// ParsePath reads an internal path element: its name and the nodes listed
// under its nodes child.
func ParsePath(elem *doc.Element) (Path, error) {
	p := Path{Name: elem.OptString("name", "Unnamed path")}
	if nodes := elem.FirstChildNamed("nodes"); nodes != nil {
		var err error
		if p.Nodes, err = parseNodes(nodes); err != nil {
			return Path{}, err
		}
	}
	return p, nil
}

func parseNodes(elem *doc.Element) ([]Node, error) {
	var nodes []Node
	for _, n := range elem.Children() {
		if n.Tag() != "node" {
			continue
		}
		id, err := n.RefID("idObject")
		if err != nil {
			return nil, err
		}
		t, err := ParseNodeType(n.OptString("type", "NodePoint"))
		if err != nil {
			return nil, perr.Object(n.Tag(), "%v", err)
		}
		reverse, err := n.Bool("reverse", false)
		if err != nil {
			return nil, err
		}
		excluded, err := n.Bool("excluded", false)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{
			ID:       id,
			Type:     t,
			Reverse:  reverse,
			Excluded: excluded,
			SABefore: n.OptString("before", ""),
			SAAfter:  n.OptString("after", ""),
		})
	}
	return nodes, nil
}

// parseLegacyNodes reads the first detail format, where seam allowance is a
// single piece-wide width. Every node inherits that width; an open piece has
// no allowance before its first node or after its last.
func parseLegacyNodes(elem *doc.Element, width string, closed bool) ([]Node, error) {
	nodes, err := parseNodes(elem)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i].SABefore = width
		nodes[i].SAAfter = width
	}
	if !closed && len(nodes) > 0 {
		nodes[0].SABefore = "0"
		nodes[len(nodes)-1].SAAfter = "0"
	}
	return nodes, nil
}

func parseLabel(elem *doc.Element) (LabelData, error) {
	var (
		d   LabelData
		err error
	)
	if d.Visible, err = elem.Bool("visible", false); err != nil {
		return d, err
	}
	if d.X, err = elem.Float("mx", "0"); err != nil {
		return d, err
	}
	if d.Y, err = elem.Float("my", "0"); err != nil {
		return d, err
	}
	fs, err := elem.Uint("fontSize", "0")
	if err != nil {
		return d, err
	}
	d.FontSize = int(fs)
	d.Width = elem.OptString("width", "1")
	d.Height = elem.OptString("height", "1")
	d.Rotation = elem.OptString("rotation", "0")
	d.Letter = elem.OptString("letter", "")
	d.CenterPin = elem.OptRefID("centerPin")
	d.TopLeft = elem.OptRefID("topLeftPin")
	d.BottomRt = elem.OptRefID("bottomRightPin")
	return d, nil
}

func parsePatternLabel(elem *doc.Element) (PatternLabelData, error) {
	l, err := parseLabel(elem)
	if err != nil {
		return PatternLabelData{}, err
	}
	return PatternLabelData{
		Visible:   l.Visible,
		X:         l.X,
		Y:         l.Y,
		Width:     l.Width,
		Height:    l.Height,
		Rotation:  l.Rotation,
		FontSize:  l.FontSize,
		CenterPin: l.CenterPin,
		TopLeft:   l.TopLeft,
		BottomRt:  l.BottomRt,
	}, nil
}

func parseGrainline(elem *doc.Element) (GrainlineData, error) {
	var (
		g   GrainlineData
		err error
	)
	if g.Visible, err = elem.Bool("visible", false); err != nil {
		return g, err
	}
	if g.X, err = elem.Float("mx", "0"); err != nil {
		return g, err
	}
	if g.Y, err = elem.Float("my", "0"); err != nil {
		return g, err
	}
	arrow, err := elem.Uint("arrows", "0")
	if err != nil {
		return g, err
	}
	if arrow > uint64(ArrowRear) {
		return g, perr.Object(elem.Tag(), "unknown arrow type %d", arrow)
	}
	g.Arrow = ArrowType(arrow)
	g.Length = elem.OptString("length", "1")
	g.Rotation = elem.OptString("rotation", "90")
	g.CenterPin = elem.OptRefID("centerPin")
	g.TopPin = elem.OptRefID("topPin")
	g.BottomPin = elem.OptRefID("bottomPin")
	return g, nil
}

// parseCustomSA keeps records that name an internal path and drops the
// rest.
func parseCustomSA(elem *doc.Element) ([]CustomSARecord, error) {
	var recs []CustomSARecord
	for _, r := range elem.Children() {
		if r.Tag() != "record" {
			continue
		}
		path := r.OptRefID("path")
		if path.IsNull() {
			continue
		}
		reverse, err := r.Bool("reverse", false)
		if err != nil {
			return nil, err
		}
		inc, err := r.Uint("includeAs", "1")
		if err != nil {
			return nil, err
		}
		recs = append(recs, CustomSARecord{
			Start:     r.OptRefID("start"),
			Path:      path,
			End:       r.OptRefID("end"),
			Reverse:   reverse,
			IncludeAs: int(inc),
		})
	}
	return recs, nil
}

// parseRecordAttrs collects the ids held in attr of each record child.
// Records with a missing or zero id are dropped.
func parseRecordAttrs(elem *doc.Element, attr string) []ident.ID {
	var ids []ident.ID
	for _, r := range elem.Children() {
		if r.Tag() != "record" {
			continue
		}
		if id := r.OptRefID(attr); !id.IsNull() {
			ids = append(ids, id)
		}
	}
	return ids
}

// parseRecordTexts collects ids stored as record text.
func parseRecordTexts(elem *doc.Element) []ident.ID {
	var ids []ident.ID
	for _, r := range elem.Children() {
		if r.Tag() != "record" {
			continue
		}
		n, err := strconv.ParseUint(r.Text(), 10, 32)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, ident.ID(n))
	}
	return ids
}

func parseFoldLine(elem *doc.Element) (*FoldLineData, error) {
	p1, p2 := elem.OptRefID("p1"), elem.OptRefID("p2")
	if p1.IsNull() || p2.IsNull() {
		return nil, nil
	}
	visible, err := elem.Bool("visible", true)
	if err != nil {
		return nil, err
	}
	return &FoldLineData{P1: p1, P2: p2, Visible: visible}, nil
}
