package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // comment character (0 = none)
	TrimSpace bool
}

// Record is one CSV record and the input line it starts on. Line counts
// physical lines, so comments and quoted newlines are accounted for.
type Record struct {
	Line   int
	Fields []string
}

// StreamCSV reads CSV records and sends them to a channel, header included.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	rowCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "loader: csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "loader: csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			line, _ := reader.FieldPos(0)
			select {
			case rowCh <- Record{Line: line, Fields: record}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "loader: csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadSamplesCSV reads sample points from CSV with a header row naming the
// longitude, latitude, original_height and target_height columns. Blank lines
// are skipped.
func ReadSamplesCSV(ctx context.Context, r io.Reader) ([]earthwork.SamplePoint, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{TrimSpace: true, Comment: '#'})

	var (
		cols    sampleColumns
		header  bool
		samples []earthwork.SamplePoint
	)
	for rec := range rowCh {
		if blank(rec.Fields) {
			continue
		}
		if !header {
			c, err := resolveColumns(rec.Fields)
			if err != nil {
				return nil, err
			}
			cols, header = c, true
			continue
		}
		s, err := cols.parse(rec.Fields, fmt.Sprintf("line %d", rec.Line))
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if !header {
		return nil, eris.New("loader: csv has no header row")
	}

	zap.L().Debug("loader: read csv samples", zap.Int("count", len(samples)))
	return samples, nil
}

// ReadSamplesCSVFile opens path and reads sample points from it.
func ReadSamplesCSVFile(ctx context.Context, path string) ([]earthwork.SamplePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer func() { _ = f.Close() }()

	samples, err := ReadSamplesCSV(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}
	return samples, nil
}
