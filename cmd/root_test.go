package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earthwork/internal/config"
	"github.com/sells-group/earthwork/internal/earthwork"
)

const (
	fixtureLon  = 116.3974
	fixtureLat  = 39.9093
	fixtureSide = 0.001
)

// testConfig returns a Config with defaults populated for command tests.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                  8080,
			ReadHeaderTimeoutSecs: 5,
			RequestTimeoutSecs:    30,
			ShutdownTimeoutSecs:   5,
			MaxBodyBytes:          1 << 20,
			CORSOrigins:           []string{"*"},
		},
		Engine: config.EngineConfig{
			GridCellSize:       1,
			MaxGridCells:       4_000_000,
			MaxSamplePoints:    1_000_000,
			MaxPolygonVertices: 50_000,
			MaxConcurrent:      2,
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func squareCorners() [][2]float64 {
	return [][2]float64{
		{fixtureLon, fixtureLat},
		{fixtureLon + fixtureSide, fixtureLat},
		{fixtureLon + fixtureSide, fixtureLat + fixtureSide},
		{fixtureLon, fixtureLat + fixtureSide},
	}
}

// boundaryFixture writes the fixture square as a GeoJSON Feature.
func boundaryFixture(t *testing.T) string {
	t.Helper()
	corners := append(squareCorners(), squareCorners()[0])
	coords := make([]string, len(corners))
	for i, c := range corners {
		coords[i] = fmt.Sprintf("[%v,%v]", c[0], c[1])
	}
	doc := `{"type":"Feature","properties":{"name":"pad"},"geometry":{"type":"Polygon","coordinates":[[` +
		strings.Join(coords, ",") + `]]}}`
	return writeFixture(t, "pad.geojson", doc)
}

// samplesFixture writes the square's corners as samples raised from 0 to 1.
func samplesFixture(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("longitude,latitude,original_height,target_height\n")
	for _, c := range squareCorners() {
		fmt.Fprintf(&b, "%v,%v,0,1\n", c[0], c[1])
	}
	return writeFixture(t, "pad.csv", b.String())
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "calc", "samples", "validate", "batch"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "earthwork", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd      string
		flag     string
		defValue string
	}{
		{"serve", "port", "0"},
		{"calc", "format", "table"},
		{"calc", "cell-size", "0"},
		{"samples", "grid-size", "10"},
		{"samples", "out", "-"},
		{"validate", "boundary", ""},
		{"batch", "concurrency", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd+"/"+tt.flag, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			f := c.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "%s should have --%s", tt.cmd, tt.flag)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&earthwork.InputError{Op: "calculate", Message: "too few"}))
	assert.Equal(t, 1, exitCode(&earthwork.ComputationError{Op: "build tin", Message: "degenerate"}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
