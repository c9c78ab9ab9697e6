package olx

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawCategory is one upstream category payload, kept schemaless because the
// OLX API has shipped several key spellings over time (id vs externalID,
// parent_id vs parentID). The full payload is retained as category metadata
// for forward compatibility.
type RawCategory map[string]interface{}

// RawField is one upstream flat-field entry. Only entries carrying an
// "attribute" key are field definitions.
type RawField map[string]interface{}

// RawChoice is one upstream option entry for a selectable field.
type RawChoice map[string]interface{}

// RawFieldGroup is the per-category block of the categoryFields response.
type RawFieldGroup struct {
	FlatFields map[string]RawField
}

// Choices extracts the option list of a field, if any.
func (f RawField) Choices() []RawChoice {
	raw, ok := f["choices"].([]interface{})
	if !ok {
		return nil
	}
	choices := make([]RawChoice, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			choices = append(choices, RawChoice(m))
		}
	}
	return choices
}

// GetString returns the first present key coerced to string. Numeric ids
// arrive as JSON numbers and are formatted without a decimal point.
func GetString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			if val == float64(int64(val)) {
				return strconv.FormatInt(int64(val), 10)
			}
			return strconv.FormatFloat(val, 'f', -1, 64)
		case json.Number:
			return val.String()
		case bool:
			return strconv.FormatBool(val)
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}

// GetInt returns the first present key coerced to int, or fallback.
func GetInt(m map[string]interface{}, fallback int, keys ...string) int {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return int(val)
		case int:
			return val
		case json.Number:
			if n, err := val.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
	}
	return fallback
}

// GetBool returns the first present key coerced to bool, or fallback.
func GetBool(m map[string]interface{}, fallback bool, keys ...string) bool {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return val == "true" || val == "1"
		case float64:
			return val != 0
		}
	}
	return fallback
}

// GetFloat returns the first present key coerced to float64, if any.
func GetFloat(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return val, true
		case int:
			return float64(val), true
		case json.Number:
			if f, err := val.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
