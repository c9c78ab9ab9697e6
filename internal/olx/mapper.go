package olx

import (
	"strings"

	"sooq-service/internal/domain/taxonomy"
)

// MapFieldType normalizes an upstream field-type string into the internal
// FieldType set. Case-insensitive and total: anything unrecognized maps to
// text rather than failing.
func MapFieldType(rawType string) taxonomy.FieldType {
	switch strings.ToLower(rawType) {
	case "input", "string", "text":
		return taxonomy.FieldText
	case "textarea":
		return taxonomy.FieldTextarea
	case "integer", "number":
		return taxonomy.FieldNumber
	case "decimal", "float", "price":
		return taxonomy.FieldDecimal
	case "select", "dropdown":
		return taxonomy.FieldSelect
	case "radio":
		return taxonomy.FieldRadio
	case "checkbox", "multiselect":
		return taxonomy.FieldCheckbox
	case "date":
		return taxonomy.FieldDate
	case "email":
		return taxonomy.FieldEmail
	case "url":
		return taxonomy.FieldURL
	case "boolean", "bool", "switch":
		return taxonomy.FieldBoolean
	default:
		return taxonomy.FieldText
	}
}
