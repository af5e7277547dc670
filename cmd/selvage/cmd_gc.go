package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/selvage/pkg/config"
)

func runGCCommand(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	cfg.Interactive = false
	cfg.CollectGarbage = true
	cfg.GCPolicy = config.GCPolicy(gcPolicy)
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := s.parse(cmd.Context(), args[0], cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	collected := p.Collected()
	out := cmd.OutOrStdout()
	if len(collected) == 0 {
		fmt.Fprintln(out, "nothing to collect")
	} else {
		fmt.Fprintf(out, "collected %d: %v\n", len(collected), collected)
	}

	d := p.Document()
	if !writeBack || !d.Modified() {
		return nil
	}
	if err := d.Save(d.Path()); err != nil {
		return err
	}
	s.log.Info("document saved", "path", d.Path())
	return nil
}
