package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/getkin/kin-openapi/openapi3"
)

// Request body schemas, checked by Bind before decoding

var CreateProjectSchema = openapi3.NewObjectSchema().
	WithProperty("name", nonEmptyString()).
	WithProperty("description", openapi3.NewStringSchema()).
	WithRequired([]string{"name"})

var UpdateProjectSchema = openapi3.NewObjectSchema().
	WithProperty("name", nonEmptyString()).
	WithProperty("description", openapi3.NewStringSchema())

var CreateItemSchema = openapi3.NewObjectSchema().
	WithProperty("parent_id", openapi3.NewStringSchema()).
	WithProperty("type", itemType()).
	WithProperty("name", nonEmptyString()).
	WithProperty("url", openapi3.NewStringSchema()).
	WithProperty("is_open", openapi3.NewBoolSchema()).
	WithRequired([]string{"type", "name"})

var UpdateItemSchema = openapi3.NewObjectSchema().
	WithProperty("name", nonEmptyString()).
	WithProperty("url", openapi3.NewStringSchema()).
	WithProperty("is_open", openapi3.NewBoolSchema()).
	WithProperty("parent_id", openapi3.NewStringSchema()).
	WithProperty("position", openapi3.NewIntegerSchema().WithMin(0))

var MoveItemSchema = openapi3.NewObjectSchema().
	WithProperty("over_id", nonEmptyString()).
	WithRequired([]string{"over_id"})

var CreateMarkerSchema = openapi3.NewObjectSchema().
	WithProperty("x", percent()).
	WithProperty("y", percent()).
	WithProperty("label", openapi3.NewStringSchema()).
	WithProperty("content", openapi3.NewStringSchema()).
	WithProperty("color", openapi3.NewStringSchema()).
	WithRequired([]string{"x", "y"})

var UpdateMarkerSchema = openapi3.NewObjectSchema().
	WithProperty("x", percent()).
	WithProperty("y", percent()).
	WithProperty("label", openapi3.NewStringSchema()).
	WithProperty("content", openapi3.NewStringSchema()).
	WithProperty("color", openapi3.NewStringSchema()).
	WithProperty("status", openapi3.NewStringSchema().WithEnum(types.MarkerStatusOpen, types.MarkerStatusResolved))

var CommentSchema = openapi3.NewObjectSchema().
	WithProperty("content", nonEmptyString()).
	WithRequired([]string{"content"})

var FlowNodeSchema = openapi3.NewObjectSchema().
	WithProperty("id", openapi3.NewStringSchema()).
	WithProperty("type", openapi3.NewStringSchema()).
	WithProperty("label", openapi3.NewStringSchema()).
	WithProperty("x", openapi3.NewFloat64Schema()).
	WithProperty("y", openapi3.NewFloat64Schema()).
	WithProperty("item_id", openapi3.NewStringSchema()).
	WithProperty("data", opaqueJSON())

var FlowEdgeSchema = openapi3.NewObjectSchema().
	WithProperty("id", openapi3.NewStringSchema()).
	WithProperty("source", nonEmptyString()).
	WithProperty("target", nonEmptyString()).
	WithProperty("label", openapi3.NewStringSchema()).
	WithProperty("data", opaqueJSON()).
	WithRequired([]string{"source", "target"})

// SaveFlowSchema requires both lists; send [] to clear them
var SaveFlowSchema = openapi3.NewObjectSchema().
	WithProperty("nodes", openapi3.NewArraySchema().WithItems(FlowNodeSchema)).
	WithProperty("edges", openapi3.NewArraySchema().WithItems(FlowEdgeSchema)).
	WithRequired([]string{"nodes", "edges"})

// opaqueJSON accepts any JSON value, null included
func opaqueJSON() *openapi3.Schema {
	return &openapi3.Schema{}
}

func nonEmptyString() *openapi3.Schema {
	return openapi3.NewStringSchema().WithMinLength(1)
}

func percent() *openapi3.Schema {
	return openapi3.NewFloat64Schema().WithMin(0).WithMax(100)
}

func itemType() *openapi3.Schema {
	values := make([]any, len(types.ItemTypes))
	for i, t := range types.ItemTypes {
		values[i] = t
	}
	return openapi3.NewStringSchema().WithEnum(values...)
}

// Bind validates a JSON body against schema and decodes it into dst.
// Malformed JSON and schema violations are reported as types.ErrInvalid.
func Bind(body []byte, schema *openapi3.Schema, dst any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("malformed JSON body: %v: %w", err, types.ErrInvalid)
	}
	if err := schema.VisitJSON(doc, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("%s: %w", describe(err), types.ErrInvalid)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, types.ErrInvalid)
	}
	return nil
}

// describe flattens kin-openapi errors into "field: reason" text
func describe(err error) string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		msg := describe(multi[0])
		if len(multi) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(multi)-1)
		}
		return msg
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if path := se.JSONPointer(); len(path) > 0 {
			return fmt.Sprintf("%s: %s", joinPointer(path), se.Reason)
		}
		return se.Reason
	}
	return err.Error()
}

func joinPointer(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

// Document describes the request schemas as an OpenAPI document
func Document(version string) *openapi3.T {
	schemas := openapi3.Schemas{}
	for name, s := range map[string]*openapi3.Schema{
		"CreateProject": CreateProjectSchema,
		"UpdateProject": UpdateProjectSchema,
		"CreateItem":    CreateItemSchema,
		"UpdateItem":    UpdateItemSchema,
		"MoveItem":      MoveItemSchema,
		"CreateMarker":  CreateMarkerSchema,
		"UpdateMarker":  UpdateMarkerSchema,
		"Comment":       CommentSchema,
		"FlowNode":      FlowNodeSchema,
		"FlowEdge":      FlowEdgeSchema,
		"SaveFlow":      SaveFlowSchema,
		"Seed":          SeedSchema,
	} {
		schemas[name] = openapi3.NewSchemaRef("", s)
	}
	return &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: "Sitemap API", Version: version},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: schemas},
	}
}

var SeedSchema = openapi3.NewObjectSchema().
	WithProperty("seed", openapi3.NewInt64Schema()).
	WithProperty("project_name", nonEmptyString()).
	WithProperty("max_depth", openapi3.NewIntegerSchema().WithMin(1).WithMax(8)).
	WithProperty("with_artifacts", openapi3.NewBoolSchema())
