package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/trampolinelab/acrokin/config"
	"github.com/trampolinelab/acrokin/data"
)

// Summary is the outcome of a Run. Trials holds the successful trials in config order.
type Summary struct {
	Subject      string
	PatchedModel *Output
	Trials       []TrialResult
	Failed       []string
}

// Run calibrates on the relax trial then processes every movement trial, at most
// cfg.ParallelTrials() at a time. A failing trial does not stop the others: the returned
// error combines every trial failure and the summary lists what succeeded.
func Run(ctx context.Context, cfg *config.Config, strict bool, logger golog.Logger) (*Summary, error) {
	if logger == nil {
		logger = golog.NewLogger("analysis")
	}
	session, err := NewSession(cfg, strict, logger)
	if err != nil {
		return nil, err
	}
	patched, err := session.Calibrate(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infow("reference pose measured", "subject", cfg.Subject, "segments", session.Tree().Len())

	results := make([]*TrialResult, len(cfg.Trials))
	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.ParallelTrials())
	for i, tc := range cfg.Trials {
		g.Go(func() error {
			res, err := session.ProcessTrial(gctx, tc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warnw("trial failed", "trial", tc.Name, "error", err)
				mu.Lock()
				errs = multierr.Append(errs, errors.Wrapf(err, "trial %q", tc.Name))
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Subject: cfg.Subject, PatchedModel: patched}
	for i, res := range results {
		if res == nil {
			summary.Failed = append(summary.Failed, cfg.Trials[i].Name)
			continue
		}
		summary.Trials = append(summary.Trials, *res)
	}
	return summary, errs
}

// String prints a table of every processed trial with its size, undefined samples and reconstruction quality.
func (s *Summary) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("subject %s", s.Subject))
	t.AppendHeader(table.Row{"Trial", "Frames", "DoF", "Undefined", "Kalman skipped", "Mean RMSD", "Files", "Size"})
	for _, res := range s.Trials {
		var size int64
		for _, out := range res.Outputs {
			size += out.Size
		}
		rmsd := "-"
		if res.MeanRMSD != 0 && !math.IsNaN(res.MeanRMSD) {
			rmsd = fmt.Sprintf("%.4f", res.MeanRMSD)
		}
		t.AppendRow(table.Row{
			res.Trial, res.Frames, res.DoF, res.Undefined, res.KalmanSkipped, rmsd, len(res.Outputs), data.FormatBytesI64(size),
		})
	}
	for _, name := range s.Failed {
		t.AppendRow(table.Row{name, "failed", "", "", "", "", "", ""})
	}
	if s.PatchedModel != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{s.PatchedModel.Path, "", "", "", "", "", 1, data.FormatBytesI64(s.PatchedModel.Size)})
	}
	return t.Render()
}
