package pattern

import (
	"context"
	"sort"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/engine"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/workpool"
)

// checkSet tracks the formula-dependency checks of the current cycle.
// Results carry the generation they were launched in; a result from an
// older generation is dropped.
type checkSet struct {
	gen     uint64
	pending int
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   []*workpool.Future[struct{}]
}

// cancelChecks stops outstanding checks and waits for their tasks to
// return.
func (p *Pattern) cancelChecks() {
	if p.checks.cancel != nil {
		p.checks.cancel()
	}
	for _, f := range p.checks.tasks {
		<-f.Done()
	}
	p.checks = checkSet{gen: p.checks.gen + 1}
}

// checkFormulas starts a background task that turns the variables used by
// formulas into graph edges ending at target. Only full parses build the
// graph, so other modes skip it.
func (p *Pattern) checkFormulas(mode ParseMode, target ident.ID, formulas ...string) {
	if mode != FullParse || len(formulas) == 0 {
		return
	}
	if p.checks.ctx == nil {
		p.checks.ctx, p.checks.cancel = context.WithCancel(context.Background())
	}
	sources := p.varSources()
	gen := p.checks.gen
	p.checks.pending++
	f := workpool.Go(p.checks.ctx, p.pool, func(ctx context.Context) (struct{}, error) {
		edges, err := formulaEdges(target, formulas, sources)
		if ctx.Err() == nil {
			p.loop.Post(func() { p.applyCheck(gen, target, edges, err) })
		}
		return struct{}{}, err
	})
	p.checks.tasks = append(p.checks.tasks, f)
}

// applyCheck runs on the owning loop.
func (p *Pattern) applyCheck(gen uint64, target ident.ID, edges []graph.Edge, err error) {
	if gen != p.checks.gen {
		return
	}
	p.checks.pending--
	if err != nil {
		p.log.Warn("formula dependency check failed", "id", target.String(), "error", err)
	}
	for _, e := range edges {
		if !p.graph.AddEdge(e.From, e.To) {
			p.log.Debug("formula dependency on unknown object", "from", e.From.String(), "to", e.To.String())
		}
	}
	if p.checks.pending == 0 {
		p.maybeComplete(context.Background())
	}
}

// formulaEdges maps every variable a formula names to the objects the
// variable was derived from.
func formulaEdges(target ident.ID, formulas []string, sources map[string][]ident.ID) ([]graph.Edge, error) {
	var edges []graph.Edge
	seen := ident.NewSet()
	for _, f := range formulas {
		names, err := engine.Tokens(f)
		if err != nil {
			return edges, err
		}
		for _, name := range names {
			for _, src := range sources[name] {
				if src == target || seen.Has(src) {
					continue
				}
				seen.Add(src)
				edges = append(edges, graph.Edge{From: src, To: target})
			}
		}
	}
	return edges, nil
}

// varSources returns a read-only snapshot shared by the checks launched
// until the next derived variable is added.
func (p *Pattern) varSources() map[string][]ident.ID {
	if p.sources == nil {
		p.sources = p.data.VarSources()
	}
	return p.sources
}

// addDerived stores a variable computed from geometry.
func (p *Pattern) addDerived(name string, kind container.VarKind, value float64, sources ...ident.ID) {
	p.data.AddVariable(container.Variable{Name: name, Kind: kind, Value: value, Sources: sources})
	p.sources = nil
}

// rewriteFormula stores the canonical text of a formula attribute when it
// differs from what the document holds, and returns the text now in effect.
// Rewriting is idempotent, so a second parse leaves the document untouched.
func (p *Pattern) rewriteFormula(e *doc.Element, attr, text string) string {
	if !e.HasAttr(attr) {
		return text
	}
	canon := engine.Canonical(text)
	if canon == text {
		return text
	}
	e.SetAttr(attr, canon)
	p.log.Debug("formula rewritten", "tag", e.Tag(), "attr", attr, "from", text, "to", canon)
	p.emit(notify.DocumentModified, e.Tag())
	return canon
}

// formula evaluates a required formula attribute. A failure is an
// Expression error attributed to e.
func (p *Pattern) formula(e *doc.Element, attr, def string) (float64, string, error) {
	text := e.OptString(attr, def)
	v, err := p.calc.Eval(p.data.Values(), text)
	if err != nil {
		if pe, ok := err.(*perr.Error); ok {
			pe.Tag = e.Tag()
			pe.ID = e.OptRefID(doc.AttrID)
		}
		return 0, text, err
	}
	return v, p.rewriteFormula(e, attr, text), nil
}

// lenientFormula evaluates a formula whose failure is not fatal. The text
// stays as written and the value is zero.
func (p *Pattern) lenientFormula(e *doc.Element, attr, def string) (float64, string) {
	text := e.OptString(attr, def)
	v, ok := p.calc.EvalFormula(p.data.Values(), text)
	if !ok {
		p.log.Debug("formula left as text", "tag", e.Tag(), "attr", attr, "formula", text)
		return 0, text
	}
	return v, p.rewriteFormula(e, attr, text)
}

// Expression is one formula attribute found in the document.
type Expression struct {
	ID      ident.ID `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Tag     string   `json:"tag"`
	Attr    string   `json:"attr"`
	Formula string   `json:"formula"`
}

// formulaAttrs lists the attributes holding formulas, per tag.
var formulaAttrs = map[string][]string{
	"point":      {"length", "angle", "width", "height"},
	"arc":        {"radius", "angle1", "angle2"},
	tagIncrement: {attrFormula},
	"detail":     {"width"},
}

// ListExpressions returns every formula attribute in the document, grouped
// by tag and in document order within a tag. Each tag is scanned on the
// worker pool.
func (p *Pattern) ListExpressions(ctx context.Context) ([]Expression, error) {
	tags := make([]string, 0, len(formulaAttrs))
	for tag := range formulaAttrs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return workpool.MapReduce(ctx, p.pool, tags,
		func(ctx context.Context, tag string) ([]Expression, error) {
			var out []Expression
			for _, e := range p.doc.ElementsByTagName(tag) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				for _, attr := range formulaAttrs[tag] {
					text, ok := e.Attr(attr)
					if !ok {
						continue
					}
					out = append(out, Expression{
						ID:      e.OptRefID(doc.AttrID),
						Name:    e.OptString(attrName, ""),
						Tag:     tag,
						Attr:    attr,
						Formula: text,
					})
				}
			}
			return out, nil
		},
		func(acc, part []Expression) []Expression { return append(acc, part...) },
		nil)
}
