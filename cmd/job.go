package main

import (
	"context"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/loader"
)

// jobFunc computes one job. Tests substitute it.
type jobFunc func(ctx context.Context, job loader.Job) (*earthwork.VolumeResult, error)

// jobRunner returns a jobFunc that loads files from disk and runs the engine
// with opts. The job must already be normalized.
func jobRunner(opts earthwork.Options) jobFunc {
	return func(ctx context.Context, job loader.Job) (*earthwork.VolumeResult, error) {
		boundary, err := loader.ReadBoundaryFile(job.Boundary)
		if err != nil {
			return nil, err
		}

		if earthwork.Method(job.Method) == earthwork.MethodUniform {
			return earthwork.CalculateUniform(boundary, job.OriginalHeight, job.TargetHeight, opts)
		}

		method, err := earthwork.ParseMethod(job.Method)
		if err != nil {
			return nil, err
		}
		samples, err := loader.ReadSamplesFile(ctx, job.Samples)
		if err != nil {
			return nil, err
		}
		return earthwork.CalculateSurface(ctx, boundary, samples, method, job.CellSize, opts)
	}
}
