package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/report"
)

// Cache key prefixes per endpoint.
const (
	endpointCalculateTIN = "calculate-tin"
	endpointTINGeoJSON   = "tin-geojson"
)

const geoJSONContentType = "application/geo+json"

// Handler serves the earthwork endpoints.
type Handler struct {
	opts    earthwork.Options
	pool    *ComputePool
	cache   *ResultCache
	schemas *schemaSet
	version string
}

// NewHandler creates a Handler. A nil cache disables response caching.
func NewHandler(opts earthwork.Options, pool *ComputePool, cache *ResultCache, version string) (*Handler, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewComputePool(1)
	}
	return &Handler{
		opts:    opts,
		pool:    pool,
		cache:   cache,
		schemas: schemas,
		version: version,
	}, nil
}

// decode reads the body, validates it against schema and unmarshals it into v.
func decode(r *http.Request, schema *gojsonschema.Schema, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{
				status:  http.StatusRequestEntityTooLarge,
				code:    CodeBodyTooLarge,
				message: "request body exceeds limit",
			}
		}
		return badRequest(CodeBadRequest, "cannot read request body")
	}
	if err := check(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest(CodeBadRequest, "malformed JSON body: "+err.Error())
	}
	return nil
}

// Calculate handles POST /calculate: uniform cut/fill over the polygon.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decode(r, h.schemas.calculate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var res *earthwork.VolumeResult
	err := h.pool.Do(r.Context(), func(context.Context) error {
		start := time.Now()
		var cerr error
		res, cerr = earthwork.CalculateUniform(boundary(req.PolygonCoordinates), req.OriginalHeight, req.TargetHeight, h.opts)
		observeCalculation(earthwork.MethodUniform, start, cerr)
		return cerr
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculateResponse(res))
}

// CalculateTIN handles POST /calculate-tin: TIN or grid volumes from samples.
func (h *Handler) CalculateTIN(w http.ResponseWriter, r *http.Request) {
	h.serveSurface(w, r, endpointCalculateTIN, "application/json", func(res *earthwork.VolumeResult, _ *SurfaceRequest) (any, error) {
		return newSurfaceResponse(res), nil
	})
}

// TINGeoJSON handles POST /tin-geojson: the retained triangles as features.
func (h *Handler) TINGeoJSON(w http.ResponseWriter, r *http.Request) {
	h.serveSurface(w, r, endpointTINGeoJSON, geoJSONContentType, func(res *earthwork.VolumeResult, req *SurfaceRequest) (any, error) {
		return trianglesFeatureCollection(req.SamplePoints, res.Triangles)
	})
}

// serveSurface decodes a surface request, answers from the cache when it can,
// and otherwise runs the calculation in the compute pool and renders it.
func (h *Handler) serveSurface(w http.ResponseWriter, r *http.Request, endpoint, contentType string, render func(*earthwork.VolumeResult, *SurfaceRequest) (any, error)) {
	var req SurfaceRequest
	if err := decode(r, h.schemas.surface, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.normalize()

	var key string
	if h.cache != nil {
		canonical, err := json.Marshal(&req)
		if err != nil {
			writeError(w, r, eris.Wrap(err, "api: canonicalize request"))
			return
		}
		key = cacheKey(endpoint, canonical)
		if body := h.cache.Get(key); body != nil {
			cacheLookups.WithLabelValues(endpoint, "hit").Inc()
			writeBody(w, http.StatusOK, contentType, "hit", body)
			return
		}
		cacheLookups.WithLabelValues(endpoint, "miss").Inc()
	}

	method, err := earthwork.ParseMethod(req.CalculationMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *earthwork.VolumeResult
	err = h.pool.Do(r.Context(), func(ctx context.Context) error {
		start := time.Now()
		var cerr error
		res, cerr = earthwork.CalculateSurface(ctx, boundary(req.PolygonCoordinates), req.SamplePoints, method, req.CellSize, h.opts)
		observeCalculation(method, start, cerr)
		return cerr
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if method == earthwork.MethodTIN {
		trianglesRetained.Observe(float64(len(res.Triangles)))
	}

	out, err := render(res, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(out)
	if err != nil {
		writeError(w, r, eris.Wrap(err, "api: encode response"))
		return
	}

	cacheStatus := ""
	if h.cache != nil {
		h.cache.Put(key, body)
		cacheStatus = "miss"
	}
	writeBody(w, http.StatusOK, contentType, cacheStatus, body)
}

// GenerateSamplePoints handles POST /generate-sample-points.
func (h *Handler) GenerateSamplePoints(w http.ResponseWriter, r *http.Request) {
	var req SamplesRequest
	if err := decode(r, h.schemas.samples, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var grid *earthwork.SampleGrid
	err := h.pool.Do(r.Context(), func(ctx context.Context) error {
		var gerr error
		grid, gerr = earthwork.GenerateSamplePoints(ctx, boundary(req.PolygonCoordinates), req.gridSize(), req.OriginalHeight, req.TargetHeight, h.opts)
		return gerr
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if grid.Points == nil {
		grid.Points = []earthwork.SamplePoint{}
	}
	writeJSON(w, http.StatusOK, grid)
}

// ValidatePolygon handles POST /validate-polygon. Invalid polygons and bad
// coordinates are reported in the body with status 200.
func (h *Handler) ValidatePolygon(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decode(r, h.schemas.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var v earthwork.Validation
	err := h.pool.Do(r.Context(), func(context.Context) error {
		var verr error
		v, verr = earthwork.ValidatePolygon(boundary(req.PolygonCoordinates), h.opts)
		return verr
	})
	if err != nil {
		var ie *earthwork.InputError
		if !errors.As(err, &ie) {
			writeError(w, r, err)
			return
		}
		v = earthwork.Validation{Message: ie.Message}
	}
	writeJSON(w, http.StatusOK, report.SummarizeValidation(v))
}

// CacheStats handles GET /cache-stats.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// Welcome handles GET /.
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WelcomeResponse{
		Message: "Welcome to the earthwork volume API",
		Version: h.version,
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func observeCalculation(method earthwork.Method, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case earthwork.IsInputError(err):
		outcome = "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	calculationsTotal.WithLabelValues(string(method), outcome).Inc()
	calculationDuration.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		http.Error(w, `{"status":500,"code":"internal_error","message":"cannot encode response"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, "application/json", "", body)
}

func writeBody(w http.ResponseWriter, status int, contentType, cacheStatus string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if cacheStatus != "" {
		w.Header().Set("X-Cache", cacheStatus)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
