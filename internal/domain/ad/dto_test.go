package ad

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAdRequestFieldsProvided(t *testing.T) {
	var withFields UpdateAdRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title": "x", "fields": {}}`), &withFields))
	assert.True(t, withFields.FieldsProvided)

	var withNullField UpdateAdRequest
	require.NoError(t, json.Unmarshal([]byte(`{"fields": {"color": null}}`), &withNullField))
	assert.True(t, withNullField.FieldsProvided)
	raw, present := withNullField.Fields["color"]
	assert.True(t, present)
	assert.Nil(t, raw)

	var withoutFields UpdateAdRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title": "x"}`), &withoutFields))
	assert.False(t, withoutFields.FieldsProvided)
}

func TestAdStatusIsValid(t *testing.T) {
	assert.True(t, StatusDraft.IsValid())
	assert.True(t, StatusActive.IsValid())
	assert.True(t, StatusSold.IsValid())
	assert.True(t, StatusExpired.IsValid())
	assert.False(t, AdStatus("vaporized").IsValid())
}
