package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Type is a JSON value type understood by the schema descriptors
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema describes the expected shape of a structured generation result.
// Only field names and types are carried; the description sent to the
// model has no titles or prose.
type Schema struct {
	Type   Type
	Fields []Field
	Items  *Schema
}

// Field is a named property of an object schema. When Unless names a
// sibling that holds a non-empty value the field is not checked at all.
type Field struct {
	Name     string
	Schema   Schema
	Required bool
	Unless   string
}

var (
	String  = Schema{Type: TypeString}
	Number  = Schema{Type: TypeNumber}
	Integer = Schema{Type: TypeInteger}
	Boolean = Schema{Type: TypeBoolean}
)

// Object builds an object schema from fields
func Object(fields ...Field) Schema {
	return Schema{Type: TypeObject, Fields: fields}
}

// ArrayOf builds an array schema with the given item schema
func ArrayOf(items Schema) Schema {
	return Schema{Type: TypeArray, Items: &items}
}

func Required(name string, s Schema) Field {
	return Field{Name: name, Schema: s, Required: true}
}

func Optional(name string, s Schema) Field {
	return Field{Name: name, Schema: s}
}

// UnlessSet skips the field when sibling carries a value, e.g. a result
// payload that only matters when no error was reported.
func (f Field) UnlessSet(sibling string) Field {
	f.Unless = sibling
	return f
}

// Describe renders the schema as compact JSON Schema text
func (s Schema) Describe() string {
	out, err := json.Marshal(s.jsonSchema())
	if err != nil {
		// the descriptor tree only holds strings, maps and slices
		return fmt.Sprintf(`{"type":%q}`, s.Type)
	}
	return string(out)
}

func (s Schema) jsonSchema() map[string]any {
	node := map[string]any{"type": string(s.Type)}
	switch s.Type {
	case TypeArray:
		if s.Items != nil {
			node["items"] = s.Items.jsonSchema()
		}
	case TypeObject:
		props := make(map[string]any, len(s.Fields))
		var required []string
		for _, f := range s.Fields {
			props[f.Name] = f.Schema.jsonSchema()
			if f.Required {
				required = append(required, f.Name)
			}
		}
		node["properties"] = props
		if len(required) > 0 {
			node["required"] = required
		}
	}
	return node
}

// Validate checks a decoded JSON document against the schema and returns
// one message per violation. Paths are rooted at "$".
func (s Schema) Validate(doc any) []string {
	var errs []string
	s.validate("$", doc, &errs)
	return errs
}

func (s Schema) validate(path string, v any, errs *[]string) {
	if v == nil {
		*errs = append(*errs, fmt.Sprintf("%s: expected %s, got null", path, s.Type))
		return
	}

	switch s.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
		}
	case TypeInteger:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
			return
		}
		if s.Items == nil {
			return
		}
		for idx, item := range items {
			s.Items.validate(fmt.Sprintf("%s[%d]", path, idx), item, errs)
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			*errs = append(*errs, typeMismatch(path, s.Type, v))
			return
		}
		for _, f := range s.Fields {
			if f.Unless != "" && isSet(obj[f.Unless]) {
				continue
			}
			fieldPath := path + "." + f.Name
			val, present := obj[f.Name]
			if !present || val == nil {
				if f.Required {
					*errs = append(*errs, fmt.Sprintf("%s: required field missing", fieldPath))
				}
				continue
			}
			f.Schema.validate(fieldPath, val, errs)
		}
	}
}

func typeMismatch(path string, want Type, v any) string {
	return fmt.Sprintf("%s: expected %s, got %s", path, want, jsonTypeOf(v))
}

func jsonTypeOf(v any) string {
	switch n := v.(type) {
	case string:
		return "string"
	case float64:
		if n == math.Trunc(n) {
			return "integer"
		}
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func isSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}
