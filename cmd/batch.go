package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/earthwork/internal/loader"
	"github.com/sells-group/earthwork/internal/report"
)

var batchFlags struct {
	jobs        string
	concurrency int
	output      string
	format      string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many volume calculations from a jobs file",
	Long: `Runs every job listed in a YAML or JSON jobs file concurrently and reports
one row per job in input order. A failed job does not stop the others; the
command exits non-zero when any job failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		jobs, err := loader.ReadJobs(batchFlags.jobs)
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(batchFlags.format)
		if err != nil {
			return err
		}

		results, err := processBatch(ctx, jobs, batchFlags.concurrency, jobRunner(cfg.Engine.Options()))
		if err != nil {
			return err
		}
		return writeBatchReport(cmd.OutOrStdout(), batchFlags.output, results, format)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFlags.jobs, "jobs", "", "jobs file (.yaml or .json)")
	batchCmd.Flags().IntVar(&batchFlags.concurrency, "concurrency", 4, "max jobs running at once")
	batchCmd.Flags().StringVar(&batchFlags.output, "output", "", "write the report to this file instead of stdout")
	batchCmd.Flags().StringVar(&batchFlags.format, "format", "table", "output format: table, json or yaml")
	_ = batchCmd.MarkFlagRequired("jobs")
	rootCmd.AddCommand(batchCmd)
}

// processBatch runs jobs concurrently and returns their outcomes in input
// order. Individual failures are recorded, not propagated.
func processBatch(ctx context.Context, jobs []loader.Job, concurrency int, run jobFunc) ([]report.JobResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]report.JobResult, len(jobs))
	var succeeded, failed atomic.Int64

	for i, job := range jobs {
		g.Go(func() error {
			log := zap.L().With(zap.String("job", job.Name))
			results[i].Name = job.Name

			res, err := run(gctx, job)
			if err != nil {
				failed.Add(1)
				results[i].Err = err
				log.Error("job failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			results[i].Result = res
			log.Info("job complete",
				zap.String("method", string(res.Method)),
				zap.Float64("cut", res.CutVolume),
				zap.Float64("fill", res.FillVolume),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

// writeBatchReport writes results to path (stdout when empty) and reports an
// error when any job failed.
func writeBatchReport(stdout io.Writer, path string, results []report.JobResult, format report.Format) error {
	out := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "batch: create %s", path)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	if err := report.WriteBatch(out, results, format); err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return eris.Errorf("batch: %d of %d jobs failed", failed, len(results))
	}
	return nil
}
