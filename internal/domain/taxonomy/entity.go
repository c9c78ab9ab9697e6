package taxonomy

import (
	"database/sql"
	"strconv"
	"time"
)

// FieldType is the closed set of internal field types a category field can
// declare. Upstream type strings are normalized into this set by the
// field-type mapper; anything unrecognized becomes FieldText.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDecimal  FieldType = "decimal"
	FieldDate     FieldType = "date"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldBoolean  FieldType = "boolean"
)

// AllFieldTypes lists every valid FieldType.
var AllFieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldDecimal, FieldDate,
	FieldEmail, FieldURL, FieldSelect, FieldRadio, FieldCheckbox, FieldBoolean,
}

func (t FieldType) IsValid() bool {
	for _, v := range AllFieldTypes {
		if t == v {
			return true
		}
	}
	return false
}

// HasOptions reports whether values of this type reference selectable options.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

// IsMultiple reports whether the type accepts a list of values.
func (t FieldType) IsMultiple() bool {
	return t == FieldCheckbox
}

// Category is one node of the upstream taxonomy tree. external_id is unique
// per sync source; ParentID points at another local Category or is null for
// roots.
type Category struct {
	ID          int64                  `json:"id"`
	ExternalID  string                 `json:"external_id"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Description sql.NullString         `json:"description"`
	ParentID    sql.NullInt64          `json:"parent_id"`
	Order       int                    `json:"order"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`

	Fields []CategoryField `json:"fields,omitempty"`
}

// CategoryField is one schema slot on a category, upserted by
// (category_id, external_id) on every sync.
type CategoryField struct {
	ID              int64                  `json:"id"`
	CategoryID      int64                  `json:"category_id"`
	ExternalID      string                 `json:"external_id"`
	Name            string                 `json:"name"`
	Label           string                 `json:"label"`
	FieldType       FieldType              `json:"field_type"`
	IsRequired      bool                   `json:"is_required"`
	IsSearchable    bool                   `json:"is_searchable"`
	Order           int                    `json:"order"`
	ValidationRules sql.NullString         `json:"validation_rules"`
	Placeholder     sql.NullString         `json:"placeholder"`
	HelpText        sql.NullString         `json:"help_text"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`

	Options []CategoryFieldOption `json:"options,omitempty"`
}

// CanonicalKey is the single string that addresses this field in both
// derived validation rules and submitted payloads: external id if present,
// else name, else the numeric id. Rule derivation and value persistence
// must both go through this function.
func (f *CategoryField) CanonicalKey() string {
	if f.ExternalID != "" {
		return f.ExternalID
	}
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatInt(f.ID, 10)
}

// CategoryFieldOption is one selectable choice for select/radio/checkbox
// fields. Options absent from the latest sync payload are pruned.
type CategoryFieldOption struct {
	ID              int64                  `json:"id"`
	CategoryFieldID int64                  `json:"category_field_id"`
	ExternalID      string                 `json:"external_id"`
	Value           string                 `json:"value"`
	Label           string                 `json:"label"`
	Order           int                    `json:"order"`
	IsDefault       bool                   `json:"is_default"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
