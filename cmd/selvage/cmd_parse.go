package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/pattern"
)

// pieceSummary is one refreshed piece.
type pieceSummary struct {
	ID     ident.ID   `json:"id"`
	Name   string     `json:"name"`
	Bounds kernel.Box `json:"bounds"`
	Area   float64    `json:"area"`
}

// parseSummary is what parse prints.
type parseSummary struct {
	Path      string         `json:"path"`
	Blocks    []string       `json:"blocks"`
	Tools     int            `json:"tools"`
	History   int            `json:"history"`
	Vertices  int            `json:"vertices"`
	Edges     int            `json:"edges"`
	Collected []ident.ID     `json:"collected"`
	Modified  bool           `json:"modified"`
	Pieces    []pieceSummary `json:"pieces"`
}

func summarize(p *pattern.Pattern) parseSummary {
	s := parseSummary{
		Path:      p.Document().Path(),
		Blocks:    p.Blocks().Names(),
		Tools:     p.Registry().Len(),
		History:   p.History().Len(),
		Vertices:  p.Graph().VertexCount(),
		Edges:     p.Graph().EdgeCount(),
		Collected: p.Collected(),
		Modified:  p.Document().Modified(),
		Pieces:    []pieceSummary{},
	}
	for _, pt := range p.Pieces() {
		s.Pieces = append(s.Pieces, pieceSummary{
			ID:     pt.ID(),
			Name:   pt.Record.Name,
			Bounds: pt.Bounds,
			Area:   pt.Area,
		})
	}
	return s
}

func writeSummary(w io.Writer, s parseSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", s.Path)
	fmt.Fprintf(tw, "blocks\t%v\n", s.Blocks)
	fmt.Fprintf(tw, "tools\t%d\n", s.Tools)
	fmt.Fprintf(tw, "history\t%d\n", s.History)
	fmt.Fprintf(tw, "graph\t%d vertices, %d edges\n", s.Vertices, s.Edges)
	fmt.Fprintf(tw, "collected\t%v\n", s.Collected)
	for _, pc := range s.Pieces {
		fmt.Fprintf(tw, "piece %s\t%s %.2fx%.2f area %.2f\n",
			pc.ID, pc.Name, pc.Bounds.Width(), pc.Bounds.Height(), pc.Area)
	}
	return tw.Flush()
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	cfg.Interactive = false
	if noGC {
		cfg.CollectGarbage = false
	}
	p, err := s.parse(cmd.Context(), args[0], cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	return writeSummary(cmd.OutOrStdout(), summarize(p), jsonOutput)
}
