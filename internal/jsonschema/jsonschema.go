package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema needed to describe tool arguments and
// outputs to a language model.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	// AdditionalProperties is either a *Schema or a bool.
	AdditionalProperties any   `json:"additionalProperties,omitempty"`
	Enum                 []any `json:"enum,omitempty"`
}

// Generate builds a schema for T. Struct fields are named after their json tag
// and are required unless they are pointers or tagged omitempty, or unless the
// jsonschema tag says "required" explicitly.
func Generate[T any]() (*Schema, error) {
	return generate(reflect.TypeOf((*T)(nil)).Elem(), make(map[reflect.Type]bool))
}

// MustGenerate is like [Generate] but panics on malformed jsonschema tags.
// It is intended for package-level tool definitions whose tags are constant.
func MustGenerate[T any]() *Schema {
	schema, err := Generate[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

func generate(t reflect.Type, inProgress map[reflect.Type]bool) (*Schema, error) {
	switch t.Kind() {
	case reflect.Ptr:
		return generate(t.Elem(), inProgress)
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Slice, reflect.Array:
		items, err := generate(t.Elem(), inProgress)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		values, err := generate(t.Elem(), inProgress)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Struct:
		if inProgress[t] {
			return nil, fmt.Errorf("recursive type %v is not supported", t)
		}
		inProgress[t] = true
		defer delete(inProgress, t)
		return generateStruct(t, inProgress)
	default:
		return &Schema{Type: "object"}, nil
	}
}

func generateStruct(t reflect.Type, inProgress map[reflect.Type]bool) (*Schema, error) {
	schema := &Schema{Type: "object", Properties: map[string]*Schema{}}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldSchema, err := generate(field.Type, inProgress)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		requiredByTag, err := applyTag(field.Type, field.Tag.Get("jsonschema"), fieldSchema)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		schema.Properties[name] = fieldSchema
		if requiredByTag || (field.Type.Kind() != reflect.Ptr && !omitEmpty) {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema, nil
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = field.Name
	if tag == "" {
		return name, false, false
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// applyTag parses a jsonschema struct tag and applies it to schema.
// Supported entries, comma separated:
//
//	description=text
//	enum=value (repeatable; converted to the field's kind)
//	required
//
// Descriptions therefore cannot contain commas.
func applyTag(fieldType reflect.Type, tag string, schema *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}

	required := false
	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		switch {
		case !hasValue && key == "required":
			required = true
		case hasValue && key == "description":
			schema.Description = value
		case hasValue && key == "enum":
			enumValue, err := convertEnum(fieldType, value)
			if err != nil {
				return false, err
			}
			schema.Enum = append(schema.Enum, enumValue)
		}
	}

	return required, nil
}

func convertEnum(fieldType reflect.Type, value string) (any, error) {
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}

	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as integer: %w", value, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as number: %w", value, err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as bool: %w", value, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("enum tag unsupported for field type %v", fieldType)
	}
}

// JSON returns the compact JSON encoding of the schema.
func (s *Schema) JSON() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return data, nil
}

// String returns the JSON representation of the schema.
func (s *Schema) String() string {
	data, err := s.JSON()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}
