package main

import (
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/loader"
	"github.com/sells-group/earthwork/internal/report"
)

var errInvalidPolygon = eris.New("polygon is invalid")

var validateFlags struct {
	boundary string
	format   string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a boundary polygon and print its area",
	Long:  "Checks that a boundary is a usable simple polygon. Exits non-zero when it is not.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		return runValidate(cmd.OutOrStdout(), validateFlags.boundary, validateFlags.format, cfg.Engine.Options())
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.boundary, "boundary", "", "boundary file (.geojson, .json or .shp)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "table", "output format: table, json or yaml")
	_ = validateCmd.MarkFlagRequired("boundary")
	rootCmd.AddCommand(validateCmd)
}

// runValidate prints the validity of the boundary. An invalid polygon is
// reported and then returned as errInvalidPolygon.
func runValidate(out io.Writer, boundaryPath, format string, opts earthwork.Options) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	boundary, err := loader.ReadBoundaryFile(boundaryPath)
	if err != nil {
		return err
	}

	v, err := earthwork.ValidatePolygon(boundary, opts)
	if err != nil {
		var ie *earthwork.InputError
		if !errors.As(err, &ie) {
			return err
		}
		v = earthwork.Validation{Message: ie.Message}
	}
	if err := report.WriteValidation(out, v, f); err != nil {
		return err
	}
	if !v.IsValid {
		return errInvalidPolygon
	}
	return nil
}
