package validate

import (
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MalithGihan/flowviz-service/pkg/types"
)

const schemaURL = "file://schema/graph.schema.json"

//go:embed schema/graph.schema.json
var graphSchema string

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error

	structs = newStructValidator()
)

func load() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(graphSchema)); err != nil {
		loadErr = err
		return
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		loadErr = err
		return
	}
	schema = s
}

// Document validates a decoded JSON graph document (maps, slices, json.Number) against
// the embedded graph schema.
func Document(doc any) error {
	once.Do(load)
	if loadErr != nil {
		return fmt.Errorf("loading graph schema: %w", loadErr)
	}
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Msg: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{Field: pointerToField(ve.InstanceLocation), Msg: ve.Message}
}

// Params checks label mode and power range.
func Params(p types.DisplayParameters) error {
	err := structs.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Field() {
		case "powerPercent":
			return Errorf(fe.Field(), "must be within [0,100], got %v", fe.Value())
		case "labelMode":
			return Errorf(fe.Field(), "must be %q or %q, got %q", types.LabelEvents, types.LabelTime, fe.Value())
		}
		return Errorf(fe.Field(), "failed %q check", fe.Tag())
	}
	return &ValidationError{Msg: err.Error()}
}

// Struct runs validator tags on any struct, reporting fields by their json names.
func Struct(v any) error {
	err := structs.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return Errorf(fe.Namespace(), "failed %q check (value %v)", fe.Tag(), fe.Value())
	}
	return err
}

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// "/edges/0/from" -> "edges.0.from"
func pointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
