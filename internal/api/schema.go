package api

import (
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

// Request schemas check structure and types only. Semantic limits such as the
// minimum vertex count are left to the engine so they surface as input errors.
const (
	coordinateSchema = `{
		"type": "object",
		"required": ["longitude", "latitude"],
		"properties": {
			"longitude": {"type": "number"},
			"latitude": {"type": "number"},
			"height": {"type": "number"}
		}
	}`

	samplePointSchema = `{
		"type": "object",
		"required": ["longitude", "latitude", "original_height", "target_height"],
		"properties": {
			"longitude": {"type": "number"},
			"latitude": {"type": "number"},
			"original_height": {"type": "number"},
			"target_height": {"type": "number"}
		}
	}`

	polygonSchema = `{"type": "array", "items": ` + coordinateSchema + `}`

	calculateSchema = `{
		"type": "object",
		"required": ["polygon_coordinates", "original_height", "target_height"],
		"properties": {
			"polygon_coordinates": ` + polygonSchema + `,
			"original_height": {"type": "number"},
			"target_height": {"type": "number"}
		}
	}`

	surfaceSchema = `{
		"type": "object",
		"required": ["polygon_coordinates", "sample_points"],
		"properties": {
			"polygon_coordinates": ` + polygonSchema + `,
			"sample_points": {"type": "array", "items": ` + samplePointSchema + `},
			"calculation_method": {"type": "string"},
			"cell_size": {"type": "number"}
		}
	}`

	samplesSchema = `{
		"type": "object",
		"required": ["polygon_coordinates"],
		"properties": {
			"polygon_coordinates": ` + polygonSchema + `,
			"grid_size": {"type": "number"},
			"original_height": {"type": "number"},
			"target_height": {"type": "number"}
		}
	}`

	validateSchema = `{
		"oneOf": [
			` + polygonSchema + `,
			{
				"type": "object",
				"required": ["polygon_coordinates"],
				"properties": {"polygon_coordinates": ` + polygonSchema + `}
			}
		]
	}`
)

// schemaSet holds the compiled request schemas.
type schemaSet struct {
	calculate *gojsonschema.Schema
	surface   *gojsonschema.Schema
	samples   *gojsonschema.Schema
	validate  *gojsonschema.Schema
}

func compileSchemas() (*schemaSet, error) {
	var s schemaSet
	for _, c := range []struct {
		name string
		src  string
		dst  **gojsonschema.Schema
	}{
		{"calculate", calculateSchema, &s.calculate},
		{"surface", surfaceSchema, &s.surface},
		{"samples", samplesSchema, &s.samples},
		{"validate", validateSchema, &s.validate},
	} {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.src))
		if err != nil {
			return nil, eris.Wrapf(err, "api: compile %s schema", c.name)
		}
		*c.dst = compiled
	}
	return &s, nil
}

// check validates a raw body. Unparseable JSON is a bad request; a schema
// mismatch is unprocessable and lists every violation.
func check(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return badRequest(CodeBadRequest, "malformed JSON body: "+err.Error())
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &requestError{
		status:  http.StatusUnprocessableEntity,
		code:    CodeSchemaViolation,
		message: "request does not match schema: " + strings.Join(violations, "; "),
	}
}
