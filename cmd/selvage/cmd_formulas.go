package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/selvage/pkg/pattern"
)

// formulaValue is a formula with the value it evaluates to after a parse.
type formulaValue struct {
	pattern.Expression
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

func evaluateFormulas(p *pattern.Pattern, exprs []pattern.Expression) []formulaValue {
	out := make([]formulaValue, 0, len(exprs))
	for _, e := range exprs {
		v, ok := p.EvalFormula(e.Formula)
		out = append(out, formulaValue{Expression: e, Value: v, OK: ok})
	}
	return out
}

func writeFormulas(w io.Writer, values []formulaValue, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range values {
		label := v.Tag + "." + v.Attr
		if v.Name != "" {
			label = v.Name + " " + label
		}
		result := "error"
		if v.OK {
			result = fmt.Sprintf("%g", v.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, label, v.Formula, result)
	}
	return tw.Flush()
}

func runFormulasCommand(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	cfg.Interactive = false
	cfg.CollectGarbage = false
	p, err := s.parse(cmd.Context(), args[0], cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	exprs, err := p.ListExpressions(cmd.Context())
	if err != nil {
		return err
	}
	return writeFormulas(cmd.OutOrStdout(), evaluateFormulas(p, exprs), jsonOutput)
}
