// Package report renders volume results and sample grids for people and files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// Unit labels attached to outputs.
const (
	VolumeUnit = "m³"
	AreaUnit   = "m²"
)

// Format selects an output rendering.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("report: unsupported format %q (want table, json or yaml)", s)
	}
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// Summary is the rounded, serializable view of a volume result.
type Summary struct {
	Method      string  `json:"method" yaml:"method"`
	Area        float64 `json:"area" yaml:"area"`
	CutVolume   float64 `json:"cut_volume" yaml:"cut_volume"`
	FillVolume  float64 `json:"fill_volume" yaml:"fill_volume"`
	NetVolume   float64 `json:"net_volume" yaml:"net_volume"`
	Unit        string  `json:"unit" yaml:"unit"`
	Triangles   int     `json:"triangles,omitempty" yaml:"triangles,omitempty"`
	CellSize    float64 `json:"cell_size,omitempty" yaml:"cell_size,omitempty"`
	CellCount   int     `json:"cell_count,omitempty" yaml:"cell_count,omitempty"`
	SampleCount int     `json:"sample_count,omitempty" yaml:"sample_count,omitempty"`
}

// Summarize rounds a result for output.
func Summarize(r *earthwork.VolumeResult) Summary {
	return Summary{
		Method:      string(r.Method),
		Area:        Round2(r.Area),
		CutVolume:   Round2(r.CutVolume),
		FillVolume:  Round2(r.FillVolume),
		NetVolume:   Round2(r.NetVolume),
		Unit:        VolumeUnit,
		Triangles:   len(r.Triangles),
		CellSize:    Round2(r.CellSize),
		CellCount:   r.CellCount,
		SampleCount: r.SampleCount,
	}
}

// WriteResult renders one result in the given format.
func WriteResult(out io.Writer, r *earthwork.VolumeResult, format Format) error {
	s := Summarize(r)
	switch format {
	case FormatJSON:
		return writeJSON(out, s)
	case FormatYAML:
		return writeYAML(out, s)
	default:
		return writeSummaryTable(out, s)
	}
}

func writeSummaryTable(out io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = p.Fprintf(w, "Method:\t%s\n", s.Method)
	_, _ = p.Fprintf(w, "Area:\t%.2f %s\n", s.Area, AreaUnit)
	_, _ = p.Fprintf(w, "Cut:\t%.2f %s\n", s.CutVolume, s.Unit)
	_, _ = p.Fprintf(w, "Fill:\t%.2f %s\n", s.FillVolume, s.Unit)
	_, _ = p.Fprintf(w, "Net:\t%.2f %s\n", s.NetVolume, s.Unit)
	if s.Triangles > 0 {
		_, _ = p.Fprintf(w, "Triangles:\t%d\n", s.Triangles)
	}
	if s.CellCount > 0 {
		_, _ = p.Fprintf(w, "Cells:\t%d x %.2f m\n", s.CellCount, s.CellSize)
	}
	if s.SampleCount > 0 {
		_, _ = p.Fprintf(w, "Samples:\t%d\n", s.SampleCount)
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

// ValidationSummary is the serializable view of a polygon check. Area and
// unit are present only for valid polygons.
type ValidationSummary struct {
	IsValid bool     `json:"is_valid" yaml:"is_valid"`
	Message string   `json:"message" yaml:"message"`
	Area    *float64 `json:"area,omitempty" yaml:"area,omitempty"`
	Unit    string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// SummarizeValidation rounds a validation for output.
func SummarizeValidation(v earthwork.Validation) ValidationSummary {
	s := ValidationSummary{IsValid: v.IsValid, Message: v.Message}
	if v.IsValid {
		area := Round2(v.Area)
		s.Area = &area
		s.Unit = AreaUnit
	}
	return s
}

// WriteValidation renders a polygon check in the given format.
func WriteValidation(out io.Writer, v earthwork.Validation, format Format) error {
	s := SummarizeValidation(v)
	switch format {
	case FormatJSON:
		return writeJSON(out, s)
	case FormatYAML:
		return writeYAML(out, s)
	}

	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	valid := "no"
	if s.IsValid {
		valid = "yes"
	}
	_, _ = fmt.Fprintf(w, "Valid:\t%s\n", valid)
	_, _ = fmt.Fprintf(w, "Message:\t%s\n", s.Message)
	if s.Area != nil {
		_, _ = p.Fprintf(w, "Area:\t%.2f %s\n", *s.Area, s.Unit)
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

// JobResult is the outcome of one batch job.
type JobResult struct {
	Name   string
	Result *earthwork.VolumeResult
	Err    error
}

// batchRow is the serializable form of a JobResult.
type batchRow struct {
	Name    string   `json:"name" yaml:"name"`
	Summary *Summary `json:"result,omitempty" yaml:"result,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteBatch renders batch results in input order.
func WriteBatch(out io.Writer, results []JobResult, format Format) error {
	rows := make([]batchRow, len(results))
	for i, jr := range results {
		rows[i] = batchRow{Name: jr.Name}
		if jr.Err != nil {
			rows[i].Error = jr.Err.Error()
			continue
		}
		if jr.Result != nil {
			s := Summarize(jr.Result)
			rows[i].Summary = &s
		}
	}

	switch format {
	case FormatJSON:
		return writeJSON(out, rows)
	case FormatYAML:
		return writeYAML(out, rows)
	}

	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "JOB\tMETHOD\tAREA_M2\tCUT_M3\tFILL_M3\tNET_M3\tERROR")
	_, _ = fmt.Fprintln(w, "---\t------\t-------\t------\t-------\t------\t-----")
	for _, r := range rows {
		if r.Summary == nil {
			_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%s\n", r.Name, r.Error)
			continue
		}
		s := r.Summary
		_, _ = p.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n", r.Name, s.Method, s.Area, s.CutVolume, s.FillVolume, s.NetVolume)
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close yaml encoder")
}
