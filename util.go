package swarm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// DebugPrint prints timestamped debug output when debug is enabled.
func DebugPrint(debug bool, args ...interface{}) {
	if !debug {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprint(args...)
	fmt.Printf("\033[97m[\033[90m%s\033[97m]\033[90m %s\033[0m\n", timestamp, message)
}

// FunctionToJSON converts an agent function into the provider-neutral
// tool-schema map sent with chat requests.
func FunctionToJSON(f AgentFunction) map[string]interface{} {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, param := range f.Parameters() {
		paramType := param.Type
		paramName := param.Name

		if paramType != nil && paramType.Kind() == reflect.Struct {
			structProperties := make(map[string]interface{})
			for j := 0; j < paramType.NumField(); j++ {
				field := paramType.Field(j)
				structProperties[field.Name] = map[string]interface{}{
					"type": getJSONType(field.Type),
				}
			}
			properties[paramName] = map[string]interface{}{
				"type":       "object",
				"properties": structProperties,
			}
		} else {
			properties[paramName] = map[string]interface{}{
				"type":        getJSONType(paramType),
				"description": param.Description,
			}
		}
		if param.Required {
			required = append(required, paramName)
		}
	}

	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        f.Name(),
			"description": f.Description(),
			"parameters": map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// MergeFields merges source into target, descending into nested maps so
// sibling keys survive.
func MergeFields(target, source map[string]interface{}) {
	for key, value := range source {
		if targetValue, exists := target[key]; exists {
			if mapValue, ok := value.(map[string]interface{}); ok {
				if targetMap, ok := targetValue.(map[string]interface{}); ok {
					MergeFields(targetMap, mapValue)
					continue
				}
			}
		}
		target[key] = value
	}
}

// getJSONType maps a Go type to its JSON schema type name. Unknown and nil
// types fall back to "string".
func getJSONType(t reflect.Type) string {
	if t == nil {
		return "string"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Interface:
		return "object"
	default:
		return "string"
	}
}

// ToMap round-trips a value through JSON into a generic map.
func ToMap(v interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	return data, nil
}

// ToStruct round-trips a generic map through JSON into v, which must be a
// pointer.
func ToStruct(m map[string]interface{}, v interface{}) error {
	bytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		return fmt.Errorf("unmarshal failed: %w", err)
	}
	return nil
}
