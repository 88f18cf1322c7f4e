package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses content into a value of type T.
//
// Primitive kinds (string, bool, integers, floats) are converted directly and
// also accepted when wrapped in a {"type": ..., "value": ...} envelope. Every
// other kind is decoded as JSON; when that fails the content is repaired with
// jsonrepair and decoded again, and as a last resort schema-style envelopes are
// unwrapped throughout the document.
//
//	type Args struct {
//	    Operation string  `json:"operation"`
//	    A         float64 `json:"a"`
//	}
//
//	args, err := ParseStringAs[Args](`{operation: 'add', a: 2,}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		if strings.HasPrefix(content, "{") {
			if unwrapped, err := tryUnwrapPrimitive(content); err == nil {
				target.SetString(unwrapped)
				return result, nil
			}
		}
		target.SetString(content)
		return result, nil

	case reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		err := setPrimitive(target, strings.TrimSpace(content))
		if err != nil {
			unwrapped, unwrapErr := tryUnwrapPrimitive(content)
			if unwrapErr != nil {
				return result, fmt.Errorf("failed to parse content as %s: %w", target.Kind(), err)
			}
			if err := setPrimitive(target, unwrapped); err != nil {
				return result, fmt.Errorf("failed to parse content as %s: %w", target.Kind(), err)
			}
		}
		return result, nil

	default:
		err := json.Unmarshal([]byte(content), &result)
		if err == nil {
			return result, nil
		}

		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
		}

		// A failed Unmarshal may have partially filled result.
		result = *new(T)
		err = json.Unmarshal([]byte(repaired), &result)
		if err == nil {
			return result, nil
		}

		if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
			result = *new(T)
			if err := json.Unmarshal([]byte(unwrapped), &result); err == nil {
				return result, nil
			}
		}

		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (repaired: %s)", result, err, repaired)
	}
}

func setPrimitive(target reflect.Value, content string) error {
	switch target.Kind() {
	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return err
		}
		target.SetBool(val)
	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetFloat(val)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetInt(val)
	default:
		val, err := strconv.ParseUint(content, 10, target.Type().Bits())
		if err != nil {
			return err
		}
		target.SetUint(val)
	}
	return nil
}

var errNotWrapped = errors.New("not a schema-wrapped value")

// tryUnwrapPrimitive returns the string form of the value held by a
// {"type": ..., "value": ...} envelope.
func tryUnwrapPrimitive(content string) (string, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	value, ok := schemaWrapped(data)
	if !ok {
		return "", errNotWrapped
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprint(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaValues replaces every schema-style envelope in the document
// with the value it wraps. Models sometimes echo the parameter schema back
// with the data inside it:
//
//	{"a": {"type": "number", "value": 2}}  ->  {"a": 2}
func unwrapSchemaValues(content string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	encoded, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if value, ok := schemaWrapped(v); ok {
			return recursiveUnwrap(value)
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}

// schemaWrapped reports whether m has exactly the keys "type" and "value".
func schemaWrapped(m map[string]any) (any, bool) {
	if len(m) != 2 {
		return nil, false
	}
	if _, hasType := m["type"]; !hasType {
		return nil, false
	}
	value, hasValue := m["value"]
	return value, hasValue
}
