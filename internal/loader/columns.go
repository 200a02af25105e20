// Package loader reads boundaries (GeoJSON, ESRI shapefile), sample points
// (CSV, XLSX) and batch job files from disk.
package loader

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// columnAliases maps each sample field to the header names accepted for it.
var columnAliases = map[string][]string{
	"longitude":       {"longitude", "lon", "lng", "long", "x"},
	"latitude":        {"latitude", "lat", "y"},
	"original_height": {"original_height", "original", "orig_height", "existing_height", "z"},
	"target_height":   {"target_height", "target", "design_height"},
}

var sampleFields = []string{"longitude", "latitude", "original_height", "target_height"}

// sampleColumns holds the column index of each sample field.
type sampleColumns struct {
	lon, lat, original, target int
}

// resolveColumns locates sample fields in a header row. Matching ignores case
// and surrounding whitespace.
func resolveColumns(header []string) (sampleColumns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	found := make(map[string]int, len(sampleFields))
	var missing []string
	for _, field := range sampleFields {
		idx := -1
		for _, alias := range columnAliases[field] {
			if i, ok := index[alias]; ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			missing = append(missing, field)
			continue
		}
		found[field] = idx
	}
	if len(missing) > 0 {
		return sampleColumns{}, eris.Errorf("loader: missing sample columns: %s", strings.Join(missing, ", "))
	}

	return sampleColumns{
		lon:      found["longitude"],
		lat:      found["latitude"],
		original: found["original_height"],
		target:   found["target_height"],
	}, nil
}

// parse converts one data row. at locates the row in error messages.
func (c sampleColumns) parse(row []string, at string) (earthwork.SamplePoint, error) {
	get := func(idx int, field string) (float64, error) {
		if idx >= len(row) {
			return 0, eris.Errorf("loader: %s: missing %s", at, field)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return 0, eris.Wrapf(err, "loader: %s: invalid %s %q", at, field, row[idx])
		}
		return v, nil
	}

	var (
		s   earthwork.SamplePoint
		err error
	)
	if s.Longitude, err = get(c.lon, "longitude"); err != nil {
		return s, err
	}
	if s.Latitude, err = get(c.lat, "latitude"); err != nil {
		return s, err
	}
	if s.OriginalHeight, err = get(c.original, "original_height"); err != nil {
		return s, err
	}
	if s.TargetHeight, err = get(c.target, "target_height"); err != nil {
		return s, err
	}
	return s, nil
}

// blank reports whether every cell of a row is empty.
func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
