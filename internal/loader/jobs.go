package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// Job is one calculation in a batch file. Relative paths are resolved against
// the directory of the batch file.
type Job struct {
	Name           string  `yaml:"name" json:"name"`
	Boundary       string  `yaml:"boundary" json:"boundary"`
	Samples        string  `yaml:"samples,omitempty" json:"samples,omitempty"`
	Method         string  `yaml:"method,omitempty" json:"method,omitempty"`
	CellSize       float64 `yaml:"cell_size,omitempty" json:"cell_size,omitempty"`
	OriginalHeight float64 `yaml:"original_height" json:"original_height"`
	TargetHeight   float64 `yaml:"target_height" json:"target_height"`
}

// JobFile is the top-level batch document.
type JobFile struct {
	Jobs []Job `yaml:"jobs" json:"jobs"`
}

// ReadJobs reads a YAML or JSON batch file (.json is JSON, anything else YAML).
// Jobs without a method default to "tin" when samples are given and "uniform"
// otherwise.
func ReadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read jobs %s", path)
	}

	var doc JobFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: parse jobs %s", path)
	}
	if len(doc.Jobs) == 0 {
		return nil, eris.Errorf("loader: jobs file %s lists no jobs", path)
	}

	dir := filepath.Dir(path)
	var problems []string
	for i := range doc.Jobs {
		j := &doc.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("job-%d", i+1)
		}
		if j.Boundary != "" {
			j.Boundary = resolve(dir, j.Boundary)
		}
		if j.Samples != "" {
			j.Samples = resolve(dir, j.Samples)
		}
		if err := j.Normalize(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, eris.Errorf("loader: invalid jobs in %s: %s", path, strings.Join(problems, "; "))
	}
	return doc.Jobs, nil
}

// Normalize fills the default method and checks that the job can run.
// Problems are reported as earthwork input errors.
func (j *Job) Normalize() error {
	if j.Boundary == "" {
		return j.invalid("boundary is required")
	}
	if j.Method == "" {
		j.Method = string(earthwork.MethodUniform)
		if j.Samples != "" {
			j.Method = string(earthwork.MethodTIN)
		}
	}
	j.Method = strings.ToLower(strings.TrimSpace(j.Method))
	switch earthwork.Method(j.Method) {
	case earthwork.MethodUniform:
	case earthwork.MethodTIN, earthwork.MethodGrid:
		if j.Samples == "" {
			return j.invalid(fmt.Sprintf("method %s needs samples", j.Method))
		}
	default:
		return j.invalid(fmt.Sprintf("unsupported method %q, expected uniform, tin or grid", j.Method))
	}
	return nil
}

func (j *Job) invalid(msg string) error {
	return &earthwork.InputError{Op: "job " + j.Name, Message: msg}
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
