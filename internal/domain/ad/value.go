package ad

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"
)

// ValueKind tags the payload carried by a FieldValue.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindDecimal
	KindDate
	KindBoolean
	KindMulti
	KindOption
)

// FieldValue is a tagged variant holding exactly one typed payload. The
// constructors are the only way to build one, which keeps the
// one-populated-column invariant enforceable in a single place instead of
// by convention at every call site.
type FieldValue struct {
	kind     ValueKind
	text     string
	number   int64
	decimal  float64
	date     time.Time
	boolean  bool
	multi    []int64
	optionID int64
}

func TextValue(s string) FieldValue {
	return FieldValue{kind: KindText, text: s}
}

func NumberValue(n int64) FieldValue {
	return FieldValue{kind: KindNumber, number: n}
}

func DecimalValue(f float64) FieldValue {
	return FieldValue{kind: KindDecimal, decimal: f}
}

// DateValue parses s and canonicalizes it to a date-only value. Accepted
// input layouts cover what clients actually send.
func DateValue(s string) (FieldValue, error) {
	layouts := []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return FieldValue{kind: KindDate, date: day}, nil
		}
	}
	return FieldValue{}, fmt.Errorf("invalid date %q: %w", s, xerrors.ErrInvalidInput)
}

func BooleanValue(b bool) FieldValue {
	return FieldValue{kind: KindBoolean, boolean: b}
}

func MultiValue(ids []int64) FieldValue {
	if ids == nil {
		ids = []int64{}
	}
	return FieldValue{kind: KindMulti, multi: ids}
}

func OptionValue(optionID int64) FieldValue {
	return FieldValue{kind: KindOption, optionID: optionID}
}

func (v FieldValue) Kind() ValueKind { return v.kind }

// DateString returns the canonical YYYY-MM-DD form of a date value.
func (v FieldValue) DateString() string {
	return v.date.Format("2006-01-02")
}

// CoerceValue converts a raw submitted payload value into the FieldValue
// variant matching the field type. raw must be non-nil; empty-string
// normalization and explicit-null handling happen before dispatch.
func CoerceValue(fieldType taxonomy.FieldType, raw interface{}) (FieldValue, error) {
	switch fieldType {
	case taxonomy.FieldText, taxonomy.FieldTextarea, taxonomy.FieldEmail, taxonomy.FieldURL:
		return TextValue(toString(raw)), nil

	case taxonomy.FieldNumber:
		n, err := toInt64(raw)
		if err != nil {
			return FieldValue{}, err
		}
		return NumberValue(n), nil

	case taxonomy.FieldDecimal:
		f, err := toFloat64(raw)
		if err != nil {
			return FieldValue{}, err
		}
		return DecimalValue(f), nil

	case taxonomy.FieldDate:
		return DateValue(toString(raw))

	case taxonomy.FieldBoolean:
		return BooleanValue(toBool(raw)), nil

	case taxonomy.FieldCheckbox:
		ids, err := toInt64Slice(raw)
		if err != nil {
			return FieldValue{}, err
		}
		return MultiValue(ids), nil

	case taxonomy.FieldSelect, taxonomy.FieldRadio:
		id, err := toInt64(raw)
		if err != nil {
			return FieldValue{}, err
		}
		return OptionValue(id), nil
	}

	return FieldValue{}, fmt.Errorf("unhandled field type %q: %w", fieldType, xerrors.ErrInvalidInput)
}

// SetValue stores raw into the typed column matching the owning field's
// declared type, clearing every other column first. The field definition
// must be loaded; calling SetValue without it is a precondition violation.
func (fv *AdFieldValue) SetValue(raw interface{}) error {
	if fv.Field == nil {
		return xerrors.ErrFieldNotLoaded
	}

	value, err := CoerceValue(fv.Field.FieldType, raw)
	if err != nil {
		return err
	}

	fv.apply(value)
	return nil
}

// apply maps the variant onto the storage columns. All columns are cleared
// first so exactly one ends up populated.
func (fv *AdFieldValue) apply(v FieldValue) {
	fv.ValueText = sql.NullString{}
	fv.ValueInteger = sql.NullInt64{}
	fv.ValueDecimal = sql.NullFloat64{}
	fv.ValueDate = sql.NullTime{}
	fv.ValueBoolean = sql.NullBool{}
	fv.ValueJSON = nil
	fv.CategoryFieldOptionID = sql.NullInt64{}

	switch v.kind {
	case KindText:
		fv.ValueText = sql.NullString{String: v.text, Valid: true}
	case KindNumber:
		fv.ValueInteger = sql.NullInt64{Int64: v.number, Valid: true}
	case KindDecimal:
		fv.ValueDecimal = sql.NullFloat64{Float64: v.decimal, Valid: true}
	case KindDate:
		fv.ValueDate = sql.NullTime{Time: v.date, Valid: true}
	case KindBoolean:
		fv.ValueBoolean = sql.NullBool{Bool: v.boolean, Valid: true}
	case KindMulti:
		fv.ValueJSON = v.multi
	case KindOption:
		fv.CategoryFieldOptionID = sql.NullInt64{Int64: v.optionID, Valid: true}
	}
}

// SelectedOptionValue is the structured output for a resolved select/radio
// value.
type SelectedOptionValue struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Value reconstructs the typed output from the populated storage column,
// dispatching on the owning field's type. Select/radio values resolve to a
// {id, value, label} triple when the option is loaded, otherwise the bare
// option id.
func (fv *AdFieldValue) Value() (interface{}, error) {
	if fv.Field == nil {
		return nil, xerrors.ErrFieldNotLoaded
	}

	switch fv.Field.FieldType {
	case taxonomy.FieldText, taxonomy.FieldTextarea, taxonomy.FieldEmail, taxonomy.FieldURL:
		if !fv.ValueText.Valid {
			return nil, nil
		}
		return fv.ValueText.String, nil

	case taxonomy.FieldNumber:
		if !fv.ValueInteger.Valid {
			return nil, nil
		}
		return fv.ValueInteger.Int64, nil

	case taxonomy.FieldDecimal:
		if !fv.ValueDecimal.Valid {
			return nil, nil
		}
		return fv.ValueDecimal.Float64, nil

	case taxonomy.FieldDate:
		if !fv.ValueDate.Valid {
			return nil, nil
		}
		return fv.ValueDate.Time.Format("2006-01-02"), nil

	case taxonomy.FieldBoolean:
		if !fv.ValueBoolean.Valid {
			return nil, nil
		}
		return fv.ValueBoolean.Bool, nil

	case taxonomy.FieldCheckbox:
		if fv.ValueJSON == nil {
			return []int64{}, nil
		}
		return fv.ValueJSON, nil

	case taxonomy.FieldSelect, taxonomy.FieldRadio:
		if !fv.CategoryFieldOptionID.Valid {
			return nil, nil
		}
		if fv.SelectedOption != nil {
			return SelectedOptionValue{
				ID:    fv.SelectedOption.ID,
				Value: fv.SelectedOption.Value,
				Label: fv.SelectedOption.Label,
			}, nil
		}
		return fv.CategoryFieldOptionID.Int64, nil
	}

	return nil, fmt.Errorf("unhandled field type %q: %w", fv.Field.FieldType, xerrors.ErrInternal)
}

// PopulatedColumns counts how many typed storage slots are non-null. Always
// 0 or 1 for a well-formed row.
func (fv *AdFieldValue) PopulatedColumns() int {
	count := 0
	if fv.ValueText.Valid {
		count++
	}
	if fv.ValueInteger.Valid {
		count++
	}
	if fv.ValueDecimal.Valid {
		count++
	}
	if fv.ValueDate.Valid {
		count++
	}
	if fv.ValueBoolean.Valid {
		count++
	}
	if fv.ValueJSON != nil {
		count++
	}
	if fv.CategoryFieldOptionID.Valid {
		count++
	}
	return count
}

// ---- raw payload coercions ----

func toString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", raw)
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		// truncating conversion, matching the storage column
		return int64(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int64(f), nil
		}
	}
	return 0, fmt.Errorf("value %v is not an integer: %w", raw, xerrors.ErrInvalidInput)
}

func toFloat64(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("value %v is not numeric: %w", raw, xerrors.ErrInvalidInput)
}

func toBool(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

func toInt64Slice(raw interface{}) ([]int64, error) {
	switch v := raw.(type) {
	case nil:
		return []int64{}, nil
	case []int64:
		return v, nil
	case []interface{}:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			n, err := toInt64(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}

	// scalar wrapped in a singleton array
	n, err := toInt64(raw)
	if err != nil {
		return nil, err
	}
	return []int64{n}, nil
}
