package pattern

import (
	"context"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/piece"
)

// handleDetail assembles a piece. The record is registered only when every
// section parsed; a failed or interrupted assembly leaves the registry as it
// was.
func handleDetail(ctx context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	// Every parse starts from a fresh record so a section removed from the
	// document falls back to its default. upsert keeps the tool identity.
	rec, outcome, err := p.assembler.Assemble(ctx, e, piece.Record{})
	if err != nil {
		return err
	}
	if !outcome.Complete() {
		if err := ctx.Err(); err != nil {
			return err
		}
		return perr.New(perr.KindGeneric, "detail %s: %d sections did not finish", id, len(outcome.Cancelled))
	}

	for _, nid := range rec.Path.NodeIDs() {
		if _, err := p.data.Object(nid); err != nil {
			return err
		}
	}
	for _, pid := range rec.InternalPaths {
		if _, err := p.data.Path(pid); err != nil {
			return err
		}
	}
	for _, csa := range rec.CustomSA {
		if _, err := p.data.Path(csa.Path); err != nil {
			return err
		}
	}
	rec.Pins = p.liveTools(id, rec.Pins, ident.ToolPin)
	rec.PlaceLabels = p.liveTools(id, rec.PlaceLabels, ident.ToolPlaceLabel)

	_, rec.Width = p.lenientFormula(e, "width", rec.Width)

	p.data.AddPiece(rec)
	t := upsert(p, mode, &PieceTool{toolBase: p.base(id, ident.ToolPiece), Record: rec},
		func(existing *PieceTool) { existing.Record = rec })
	p.record(mode, t, graph.VertexPiece, rec.Dependencies()...)
	p.updatePieces = append(p.updatePieces, id)
	p.checkFormulas(mode, id, rec.Width)
	return nil
}

// liveTools drops references to pins or place labels that have no live tool
// of the expected kind. A place label skipped for a broken relation ends up
// here.
func (p *Pattern) liveTools(pieceID ident.ID, ids []ident.ID, kind ident.ToolKind) []ident.ID {
	out := ids[:0:0]
	for _, id := range ids {
		t, err := p.reg.Get(id)
		if err != nil || t.Kind() != kind {
			p.log.Debug("piece references a missing tool", "piece", pieceID.String(), "id", id.String(), "kind", kind.String())
			continue
		}
		out = append(out, id)
	}
	return out
}
