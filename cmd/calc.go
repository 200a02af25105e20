package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/earthwork/internal/loader"
	"github.com/sells-group/earthwork/internal/report"
)

var calcFlags struct {
	boundary string
	samples  string
	method   string
	original float64
	target   float64
	cellSize float64
	format   string
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate cut/fill volumes for one boundary",
	Long: `Calculates cut and fill volumes for a boundary read from GeoJSON or a shapefile.

Without --samples the uniform method applies --original and --target over the
whole area. With --samples (CSV or XLSX) the tin or grid method integrates the
per-sample height change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		job := loader.Job{
			Name:           "calc",
			Boundary:       calcFlags.boundary,
			Samples:        calcFlags.samples,
			Method:         calcFlags.method,
			CellSize:       calcFlags.cellSize,
			OriginalHeight: calcFlags.original,
			TargetHeight:   calcFlags.target,
		}
		return runCalc(ctx, cmd.OutOrStdout(), job, calcFlags.format, jobRunner(cfg.Engine.Options()))
	},
}

func init() {
	f := calcCmd.Flags()
	f.StringVar(&calcFlags.boundary, "boundary", "", "boundary file (.geojson, .json or .shp)")
	f.StringVar(&calcFlags.samples, "samples", "", "sample points file (.csv or .xlsx)")
	f.StringVar(&calcFlags.method, "method", "", "uniform, tin or grid (default tin with samples, uniform without)")
	f.Float64Var(&calcFlags.original, "original", 0, "original ground height for the uniform method")
	f.Float64Var(&calcFlags.target, "target", 0, "target ground height for the uniform method")
	f.Float64Var(&calcFlags.cellSize, "cell-size", 0, "grid cell size in meters (default from config)")
	f.StringVar(&calcFlags.format, "format", "table", "output format: table, json or yaml")
	_ = calcCmd.MarkFlagRequired("boundary")
	rootCmd.AddCommand(calcCmd)
}

// runCalc normalizes and runs a single job and writes its result.
func runCalc(ctx context.Context, out io.Writer, job loader.Job, format string, run jobFunc) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	if err := job.Normalize(); err != nil {
		return err
	}

	res, err := run(ctx, job)
	if err != nil {
		return err
	}
	return report.WriteResult(out, res, f)
}
