package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-analyzer/engine"
)

func newViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the available views and presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, d := range engine.Registry() {
				kind := ""
				if d.Ranked {
					kind = " (ranked)"
				}
				fmt.Fprintf(out, "%s%s\n", d.Name, kind)
			}
			presets := make([]string, 0, len(engine.Presets))
			for p := range engine.Presets {
				presets = append(presets, p)
			}
			sort.Strings(presets)
			for _, p := range presets {
				fmt.Fprintf(out, "preset %s: %s\n", p, strings.Join(engine.Presets[p], ", "))
			}
			return nil
		},
	}
}
