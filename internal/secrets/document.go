package secrets

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar is one environment assignment derived from a secrets entry.
type EnvVar struct {
	// Key is the original document key.
	Key   string
	Name  string
	Value string
}

// ParseDocument decodes decrypted plaintext into a Mapping. Empty input and
// a null document yield an empty Mapping. Any other non-mapping document is
// a *ParseError.
func ParseDocument(data []byte) (Mapping, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc == nil {
		return Mapping{}, nil
	}

	// Falsy non-null documents ([], '', false) are rejected on purpose rather
	// than treated as empty.
	m, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, &ParseError{Err: fmt.Errorf("top-level document is %s, not a mapping", describe(doc))}
	}
	return Mapping(m), nil
}

// normalize turns map[any]any (produced for non-string keys) into
// map[string]any all the way down.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[FormatValue(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

func describe(v any) string {
	switch v.(type) {
	case []any:
		return "a sequence"
	default:
		return fmt.Sprintf("a scalar (%T)", v)
	}
}

// FormatValue renders a secrets value as environment text. Strings pass
// through, null becomes empty, other scalars use their Go formatting and
// nested mappings or sequences are encoded as compact JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// EnvName maps a document key to its environment variable name.
func EnvName(key string) string {
	return strings.ToUpper(key)
}

// ToEnv converts a Mapping into environment assignments sorted by key.
// Keys that collide after upper-casing are all returned; applied in order,
// the last one wins.
func ToEnv(m Mapping) []EnvVar {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]EnvVar, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, EnvVar{
			Key:   k,
			Name:  EnvName(k),
			Value: FormatValue(m[k]),
		})
	}
	return vars
}
