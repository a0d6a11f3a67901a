package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-analyzer/engine"
	"github.com/jalad-shrimali/cdr-analyzer/render"
	"github.com/jalad-shrimali/cdr-analyzer/source"
)

type analyzeOptions struct {
	out    string
	views  []string
	preset string
	topN   int
	caseNo string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze CSV/XLSX exports into an XLSX workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("preset") {
				a.cfg.Preset = opts.preset
				a.cfg.Views = nil
			}
			if len(opts.views) > 0 {
				a.cfg.Views = opts.views
			}
			if cmd.Flags().Changed("top") {
				a.cfg.TopN = opts.topN
			}
			if cmd.Flags().Changed("case") {
				a.cfg.Case = opts.caseNo
			}
			return runAnalyze(cmd, a, opts.out, args)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "cdr_report.xlsx", "Output workbook")
	cmd.Flags().StringSliceVar(&opts.views, "views", nil, "Views to build (comma separated)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "View preset (full, compact)")
	cmd.Flags().IntVar(&opts.topN, "top", 0, "Rows kept per ranked view, across all subscribers (0 keeps all)")
	cmd.Flags().StringVar(&opts.caseNo, "case", "", "Case or crime number stamped on Mapping rows")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, out string, files []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, closeCells, err := a.cfg.EngineOptions(a.log)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer closeCells()
	e, err := engine.New(opts)
	if err != nil {
		return withCode(exitUsage, err)
	}

	reader := source.NewReader(opts.Aliases)
	inputs := make([]source.Input, len(files))
	for i, f := range files {
		inputs[i] = reader.Path(f)
	}

	last := ""
	res, err := e.Analyze(ctx, inputs, engine.Hooks{OnProgress: func(f float64, stage string) {
		if stage != last {
			last = stage
			a.log.WithFields(logrus.Fields{"stage": stage, "progress": fmt.Sprintf("%.0f%%", f*100)}).Info("progress")
		}
	}})
	if err != nil {
		return withCode(exitInternal, err)
	}
	for _, f := range res.Diagnostics.Failed() {
		a.log.WithField("file", f.File).Warn(f.Fatal)
	}
	switch res.Status {
	case engine.StatusCancelled:
		return withCode(exitCancelled, errors.New("analysis cancelled"))
	case engine.StatusEmpty:
		return withCode(exitNoRecords, errors.Errorf("no valid records in %d files", len(files)))
	}

	w, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := render.Workbook(w, res.Views, res.Diagnostics); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d views, %d records, run %s\n",
		out, len(res.Views), res.Diagnostics.Kept(), res.Diagnostics.RunID)
	return nil
}
