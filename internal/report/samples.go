package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/earthwork/internal/earthwork"
)

var sampleHeader = []string{"longitude", "latitude", "original_height", "target_height"}

// WriteSamplesCSV writes sample points with a header row.
func WriteSamplesCSV(out io.Writer, samples []earthwork.SamplePoint) error {
	w := csv.NewWriter(out)
	if err := w.Write(sampleHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, s := range samples {
		record := []string{
			formatFloat(s.Longitude),
			formatFloat(s.Latitude),
			formatFloat(s.OriginalHeight),
			formatFloat(s.TargetHeight),
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// WriteSamplesXLSX saves sample points to a new workbook at path.
func WriteSamplesXLSX(path string, samples []earthwork.SamplePoint) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("samples")
	if err != nil {
		return eris.Wrap(err, "report: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, h := range sampleHeader {
		header.AddCell().SetString(h)
	}
	for _, s := range samples {
		row := sheet.AddRow()
		for _, v := range []float64{s.Longitude, s.Latitude, s.OriginalHeight, s.TargetHeight} {
			row.AddCell().SetString(formatFloat(v))
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
