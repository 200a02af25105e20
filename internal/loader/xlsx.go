package loader

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// ReadSamplesXLSX reads sample points from a workbook. sheetName selects the
// sheet; empty means the first one. The first non-blank row is the header.
func ReadSamplesXLSX(path, sheetName string) ([]earthwork.SamplePoint, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: xlsx: open %s", path)
	}

	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	var (
		cols    sampleColumns
		header  bool
		samples []earthwork.SamplePoint
	)
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		if !header {
			if cols, err = resolveColumns(cells); err != nil {
				return nil, eris.Wrapf(err, "loader: xlsx: sheet %q", sheet.Name)
			}
			header = true
			continue
		}
		s, err := cols.parse(cells, fmt.Sprintf("row %d", i+1))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: xlsx: sheet %q", sheet.Name)
		}
		samples = append(samples, s)
	}
	if !header {
		return nil, eris.Errorf("loader: xlsx: sheet %q has no header row", sheet.Name)
	}

	zap.L().Debug("loader: read xlsx samples", zap.String("sheet", sheet.Name), zap.Int("count", len(samples)))
	return samples, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("loader: xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("loader: xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
