package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/loader"
	"github.com/sells-group/earthwork/internal/report"
)

var samplesFlags struct {
	boundary string
	gridSize float64
	original float64
	target   float64
	out      string
}

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Generate a lattice of sample points inside a boundary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runSamples(ctx, cmd.OutOrStdout(), samplesFlags.boundary, samplesFlags.gridSize,
			samplesFlags.original, samplesFlags.target, samplesFlags.out, cfg.Engine.Options())
	},
}

func init() {
	f := samplesCmd.Flags()
	f.StringVar(&samplesFlags.boundary, "boundary", "", "boundary file (.geojson, .json or .shp)")
	f.Float64Var(&samplesFlags.gridSize, "grid-size", 10, "lattice spacing in meters")
	f.Float64Var(&samplesFlags.original, "original", 0, "original height stamped on every point")
	f.Float64Var(&samplesFlags.target, "target", 0, "target height stamped on every point")
	f.StringVar(&samplesFlags.out, "out", "-", "output file (.csv or .xlsx), - for CSV on stdout")
	_ = samplesCmd.MarkFlagRequired("boundary")
	rootCmd.AddCommand(samplesCmd)
}

// runSamples generates the lattice and writes it to dest.
func runSamples(ctx context.Context, stdout io.Writer, boundaryPath string, gridSize, original, target float64, dest string, opts earthwork.Options) error {
	boundary, err := loader.ReadBoundaryFile(boundaryPath)
	if err != nil {
		return err
	}
	grid, err := earthwork.GenerateSamplePoints(ctx, boundary, gridSize, original, target, opts)
	if err != nil {
		return err
	}

	if err := writeSamples(stdout, dest, grid.Points); err != nil {
		return err
	}
	zap.L().Info("sample points generated",
		zap.String("boundary", boundaryPath),
		zap.Float64("grid_size", gridSize),
		zap.Int("count", grid.Count),
		zap.String("out", dest),
	)
	return nil
}

func writeSamples(stdout io.Writer, dest string, points []earthwork.SamplePoint) error {
	if dest == "" || dest == "-" {
		return report.WriteSamplesCSV(stdout, points)
	}

	switch strings.ToLower(filepath.Ext(dest)) {
	case ".xlsx":
		return report.WriteSamplesXLSX(dest, points)
	case ".csv":
		f, err := os.Create(dest)
		if err != nil {
			return eris.Wrapf(err, "samples: create %s", dest)
		}
		if err := report.WriteSamplesCSV(f, points); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrapf(f.Close(), "samples: close %s", dest)
	default:
		return eris.Errorf("samples: unsupported output %s (want .csv or .xlsx)", dest)
	}
}
