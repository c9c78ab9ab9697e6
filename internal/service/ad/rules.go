// internal/service/ad/rules.go
package ad

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	domain "sooq-service/internal/domain/ad"
	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"
)

// FieldLister loads a category's schema, options included.
type FieldLister interface {
	ListByCategory(ctx context.Context, categoryID int64) ([]taxonomy.CategoryField, error)
}

// ValueChecker reports whether an ad already holds a value for a field.
type ValueChecker interface {
	ExistsForField(ctx context.Context, adID, fieldID int64) (bool, error)
}

// RuleSet is the validation rule derived for one canonical field key.
type RuleSet struct {
	Field     *taxonomy.CategoryField
	Required  bool
	Type      taxonomy.FieldType
	OptionIDs map[int64]struct{}
	MinItems  int
	Min       *float64
	Max       *float64
	Custom    []string

	// Element carries the per-element rule for checkbox fields; errors for
	// elements are keyed with a dotted path (key.0, key.1, ...).
	Element *RuleSet
}

// RuleDeriver builds request-time validation rule sets from whatever
// category the payload references.
type RuleDeriver struct {
	fields FieldLister
	values ValueChecker
}

func NewRuleDeriver(fields FieldLister, values ValueChecker) *RuleDeriver {
	return &RuleDeriver{fields: fields, values: values}
}

// DeriveRules produces the rule set per canonical field key for a category.
// When existingAdID is non-nil the pass is an update: a required field the
// ad already holds a value for is not required again.
func (d *RuleDeriver) DeriveRules(ctx context.Context, categoryID int64, existingAdID *int64) (map[string]*RuleSet, error) {
	fields, err := d.fields.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category schema: %w", err)
	}

	rules := make(map[string]*RuleSet, len(fields))
	for i := range fields {
		field := &fields[i]

		required := field.IsRequired
		if required && existingAdID != nil {
			exists, err := d.values.ExistsForField(ctx, *existingAdID, field.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check existing field value: %w", err)
			}
			if exists {
				required = false
			}
		}

		rs := &RuleSet{
			Field:    field,
			Required: required,
			Type:     field.FieldType,
		}

		if field.FieldType.HasOptions() {
			rs.OptionIDs = make(map[int64]struct{}, len(field.Options))
			for _, option := range field.Options {
				rs.OptionIDs[option.ID] = struct{}{}
			}
		}

		if field.FieldType == taxonomy.FieldCheckbox {
			if required {
				rs.MinItems = 1
			}
			rs.Element = &RuleSet{Field: field, Type: field.FieldType, OptionIDs: rs.OptionIDs}
		}

		if field.ValidationRules.Valid {
			applyCustomRules(rs, field.ValidationRules.String)
		}

		rules[field.CanonicalKey()] = rs
	}

	return rules, nil
}

// applyCustomRules appends the stored constraint tokens verbatim and lifts
// min/max tokens into enforced bounds.
func applyCustomRules(rs *RuleSet, ruleString string) {
	for _, token := range strings.Split(ruleString, "|") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		rs.Custom = append(rs.Custom, token)

		switch {
		case strings.HasPrefix(token, "min:"):
			if f, err := strconv.ParseFloat(token[len("min:"):], 64); err == nil {
				rs.Min = &f
			}
		case strings.HasPrefix(token, "max:"):
			if f, err := strconv.ParseFloat(token[len("max:"):], 64); err == nil {
				rs.Max = &f
			}
		}
	}
}

// ValidateFields checks a submitted fields payload against derived rules
// and collects failures into ve, keyed by canonical field key. Keys in the
// payload that match no rule are not an error; the caller logs them.
func ValidateFields(payload map[string]interface{}, rules map[string]*RuleSet, ve *xerrors.ValidationError) {
	for key, rs := range rules {
		raw, present := payload[key]
		raw = normalizeEmpty(raw)

		if !present || raw == nil {
			if rs.Required {
				ve.Add(key, fmt.Sprintf("The %s field is required.", rs.Field.Label))
			}
			continue
		}

		validateValue(key, raw, rs, ve)
	}
}

// normalizeEmpty maps empty or whitespace-only strings to nil so "" never
// reaches a numeric or date column.
func normalizeEmpty(raw interface{}) interface{} {
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return raw
}

func validateValue(key string, raw interface{}, rs *RuleSet, ve *xerrors.ValidationError) {
	switch rs.Type {
	case taxonomy.FieldText, taxonomy.FieldTextarea:
		s, ok := raw.(string)
		if !ok {
			ve.Add(key, "Must be a string.")
			return
		}
		checkLengthBounds(key, s, rs, ve)

	case taxonomy.FieldNumber, taxonomy.FieldDecimal:
		f, ok := asNumber(raw)
		if !ok {
			ve.Add(key, "Must be a valid number.")
			return
		}
		checkNumericBounds(key, f, rs, ve)

	case taxonomy.FieldEmail:
		s, ok := raw.(string)
		if !ok {
			ve.Add(key, "Must be a valid email address.")
			return
		}
		if _, err := mail.ParseAddress(s); err != nil {
			ve.Add(key, "Must be a valid email address.")
			return
		}
		checkLengthBounds(key, s, rs, ve)

	case taxonomy.FieldURL:
		s, ok := raw.(string)
		if !ok {
			ve.Add(key, "Must be a valid URL.")
			return
		}
		u, err := url.Parse(s)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			ve.Add(key, "Must be a valid URL.")
			return
		}
		checkLengthBounds(key, s, rs, ve)

	case taxonomy.FieldDate:
		s, ok := raw.(string)
		if !ok {
			ve.Add(key, "Must be a valid date.")
			return
		}
		if _, err := domain.DateValue(s); err != nil {
			ve.Add(key, "Must be a valid date.")
		}

	case taxonomy.FieldBoolean:
		switch raw.(type) {
		case bool:
		case float64, int, int64:
		case string:
			s := raw.(string)
			if !strings.EqualFold(s, "true") && !strings.EqualFold(s, "false") && s != "0" && s != "1" {
				ve.Add(key, "Must be a boolean.")
			}
		default:
			ve.Add(key, "Must be a boolean.")
		}

	case taxonomy.FieldSelect, taxonomy.FieldRadio:
		id, ok := asOptionID(raw)
		if !ok {
			ve.Add(key, "Must be a valid option id.")
			return
		}
		if _, exists := rs.OptionIDs[id]; !exists {
			ve.Add(key, "The selected option is invalid.")
		}

	case taxonomy.FieldCheckbox:
		items, ok := raw.([]interface{})
		if !ok {
			ve.Add(key, "Must be a list of options.")
			return
		}
		if len(items) < rs.MinItems {
			ve.Add(key, fmt.Sprintf("Must have at least %d item(s).", rs.MinItems))
		}
		for i, item := range items {
			elementKey := fmt.Sprintf("%s.%d", key, i)
			id, ok := asOptionID(item)
			if !ok {
				ve.Add(elementKey, "Must be a valid option id.")
				continue
			}
			if _, exists := rs.Element.OptionIDs[id]; !exists {
				ve.Add(elementKey, "The selected option is invalid.")
			}
		}
	}
}

func checkLengthBounds(key, s string, rs *RuleSet, ve *xerrors.ValidationError) {
	length := float64(len([]rune(s)))
	if rs.Min != nil && length < *rs.Min {
		ve.Add(key, fmt.Sprintf("Must be at least %s characters.", trimFloat(*rs.Min)))
	}
	if rs.Max != nil && length > *rs.Max {
		ve.Add(key, fmt.Sprintf("Must not exceed %s characters.", trimFloat(*rs.Max)))
	}
}

func checkNumericBounds(key string, f float64, rs *RuleSet, ve *xerrors.ValidationError) {
	if rs.Min != nil && f < *rs.Min {
		ve.Add(key, fmt.Sprintf("Must be at least %s.", trimFloat(*rs.Min)))
	}
	if rs.Max != nil && f > *rs.Max {
		ve.Add(key, fmt.Sprintf("Must not exceed %s.", trimFloat(*rs.Max)))
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func asNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func asOptionID(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}
