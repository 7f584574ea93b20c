package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// FunctionTool adapts a typed Go function to econflux.Tool. The input
// schema is reflected from P and every call is validated against it before
// the parameters are decoded.
type FunctionTool[P, R any] struct {
	name        string
	description string
	schema      map[string]interface{}
	validator   *gojsonschema.Schema
	handler     func(ctx context.Context, params P) (R, error)
}

var _ econflux.Tool = (*FunctionTool[struct{}, struct{}])(nil)

// NewFunctionTool creates a tool whose schema is generated from the
// `json` and `jsonschema` struct tags of P.
func NewFunctionTool[P, R any](name, description string, handler func(ctx context.Context, params P) (R, error)) (*FunctionTool[P, R], error) {
	schema, err := ReflectSchema[P]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	validator, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("tool %s: failed to compile input schema: %w", name, err)
	}

	return &FunctionTool[P, R]{
		name:        name,
		description: description,
		schema:      schema,
		validator:   validator,
		handler:     handler,
	}, nil
}

// MustFunctionTool is like NewFunctionTool but panics on error. It is meant
// for package-level tool definitions whose parameter types are fixed.
func MustFunctionTool[P, R any](name, description string, handler func(ctx context.Context, params P) (R, error)) *FunctionTool[P, R] {
	tool, err := NewFunctionTool(name, description, handler)
	if err != nil {
		panic(err)
	}
	return tool
}

// ReflectSchema builds a self-contained JSON schema object for P. A struct
// without fields yields an empty object schema.
func ReflectSchema[P any]() (map[string]interface{}, error) {
	if t := reflect.TypeOf((*P)(nil)).Elem(); t.Kind() == reflect.Struct && t.NumField() == 0 {
		return map[string]interface{}{
			"type":                 "object",
			"properties":           map[string]interface{}{},
			"additionalProperties": false,
		}, nil
	}

	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	var zero P
	schema := reflector.Reflect(&zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}

	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]interface{}{}
	}
	return out, nil
}

// Name implements econflux.Tool.
func (f *FunctionTool[P, R]) Name() string { return f.name }

// Description implements econflux.Tool.
func (f *FunctionTool[P, R]) Description() string { return f.description }

// InputSchema implements econflux.Tool.
func (f *FunctionTool[P, R]) InputSchema() map[string]interface{} { return f.schema }

// Execute validates params, decodes them into P and calls the handler.
func (f *FunctionTool[P, R]) Execute(ctx context.Context, params map[string]interface{}) (*econflux.ToolResult, error) {
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := f.validator.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, econflux.NewValidationError("", fmt.Sprintf("failed to validate parameters: %v", err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, econflux.NewValidationError("", strings.Join(msgs, "; "))
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, econflux.NewValidationError("", fmt.Sprintf("failed to encode parameters: %v", err))
	}
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, econflux.NewValidationError("", fmt.Sprintf("failed to parse parameters: %v", err))
	}

	out, err := f.handler(ctx, p)
	if err != nil {
		return nil, err
	}
	return econflux.NewToolResult(out), nil
}
