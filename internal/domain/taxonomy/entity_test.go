package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKeyPrefersExternalID(t *testing.T) {
	f := &CategoryField{ID: 7, ExternalID: "engine_size", Name: "engine"}
	assert.Equal(t, "engine_size", f.CanonicalKey())
}

func TestCanonicalKeyFallsBackToName(t *testing.T) {
	f := &CategoryField{ID: 7, Name: "engine"}
	assert.Equal(t, "engine", f.CanonicalKey())
}

func TestCanonicalKeyFallsBackToID(t *testing.T) {
	f := &CategoryField{ID: 7}
	assert.Equal(t, "7", f.CanonicalKey())
}

func TestFieldTypeHasOptions(t *testing.T) {
	assert.True(t, FieldSelect.HasOptions())
	assert.True(t, FieldRadio.HasOptions())
	assert.True(t, FieldCheckbox.HasOptions())
	assert.False(t, FieldText.HasOptions())
	assert.False(t, FieldBoolean.HasOptions())
}

func TestFieldTypeIsMultiple(t *testing.T) {
	assert.True(t, FieldCheckbox.IsMultiple())
	assert.False(t, FieldSelect.IsMultiple())
}

func TestFieldTypeIsValid(t *testing.T) {
	for _, ft := range AllFieldTypes {
		assert.True(t, ft.IsValid(), "%s", ft)
	}
	assert.False(t, FieldType("hologram").IsValid())
}
