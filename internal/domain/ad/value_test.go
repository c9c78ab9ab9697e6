package ad

import (
	"testing"

	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldOfType(ft taxonomy.FieldType) *taxonomy.CategoryField {
	return &taxonomy.CategoryField{ID: 1, FieldType: ft, Name: "f", Label: "F"}
}

func TestSetValueRequiresLoadedField(t *testing.T) {
	fv := &AdFieldValue{}
	err := fv.SetValue("hello")
	assert.ErrorIs(t, err, xerrors.ErrFieldNotLoaded)
}

func TestSetValueText(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldText)}
	require.NoError(t, fv.SetValue("Toyota Corolla"))

	assert.Equal(t, 1, fv.PopulatedColumns())
	assert.True(t, fv.ValueText.Valid)

	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, "Toyota Corolla", out)
}

func TestSetValueNumberTruncatesFloats(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldNumber)}
	require.NoError(t, fv.SetValue(float64(2015.9)))

	assert.Equal(t, 1, fv.PopulatedColumns())
	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(2015), out)
}

func TestSetValueNumberFromString(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldNumber)}
	require.NoError(t, fv.SetValue("120000"))

	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(120000), out)
}

func TestSetValueDecimal(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldDecimal)}
	require.NoError(t, fv.SetValue("1.6"))

	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, 1.6, out)
}

func TestSetValueDateCanonicalizes(t *testing.T) {
	for _, input := range []string{
		"2024-03-15",
		"2024-03-15T10:30:00Z",
		"2024-03-15 10:30:00",
		"15/03/2024",
	} {
		fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldDate)}
		require.NoError(t, fv.SetValue(input), "input %q", input)

		out, err := fv.Value()
		require.NoError(t, err)
		assert.Equal(t, "2024-03-15", out, "input %q", input)
	}
}

func TestSetValueDateRejectsGarbage(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldDate)}
	assert.Error(t, fv.SetValue("not-a-date"))
}

func TestSetValueBooleanTruthyStrings(t *testing.T) {
	cases := map[interface{}]bool{
		true:    true,
		"true":  true,
		"1":     true,
		"yes":   true,
		"false": false,
		"0":     false,
		"no":    false,
	}
	for input, expected := range cases {
		fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldBoolean)}
		require.NoError(t, fv.SetValue(input))

		out, err := fv.Value()
		require.NoError(t, err)
		assert.Equal(t, expected, out, "input %v", input)
	}
}

func TestSetValueCheckbox(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldCheckbox)}
	require.NoError(t, fv.SetValue([]interface{}{float64(3), "5", float64(8)}))

	assert.Equal(t, 1, fv.PopulatedColumns())
	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 8}, out)
}

func TestSetValueCheckboxScalarBecomesSingleton(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldCheckbox)}
	require.NoError(t, fv.SetValue(float64(4)))

	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, out)
}

func TestCheckboxValueNeverNil(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldCheckbox)}

	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, []int64{}, out)
}

func TestSetValueSelectStoresOptionRef(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldSelect)}
	require.NoError(t, fv.SetValue(float64(42)))

	assert.Equal(t, 1, fv.PopulatedColumns())
	assert.True(t, fv.CategoryFieldOptionID.Valid)
	assert.EqualValues(t, 42, fv.CategoryFieldOptionID.Int64)
}

func TestSelectValueResolvesLoadedOption(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldSelect)}
	require.NoError(t, fv.SetValue(float64(42)))

	// without the joined option, output is the bare id
	out, err := fv.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(42), out)

	fv.SelectedOption = &taxonomy.CategoryFieldOption{ID: 42, Value: "toyota", Label: "Toyota"}
	out, err = fv.Value()
	require.NoError(t, err)
	assert.Equal(t, SelectedOptionValue{ID: 42, Value: "toyota", Label: "Toyota"}, out)
}

func TestSetValueReplacingTypeClearsPreviousColumn(t *testing.T) {
	fv := &AdFieldValue{Field: fieldOfType(taxonomy.FieldText)}
	require.NoError(t, fv.SetValue("first"))

	fv.Field = fieldOfType(taxonomy.FieldNumber)
	require.NoError(t, fv.SetValue(float64(9)))

	assert.Equal(t, 1, fv.PopulatedColumns())
	assert.False(t, fv.ValueText.Valid)
	assert.True(t, fv.ValueInteger.Valid)
}

func TestCoerceValueRejectsNonNumeric(t *testing.T) {
	_, err := CoerceValue(taxonomy.FieldNumber, "abc")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = CoerceValue(taxonomy.FieldDecimal, "abc")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
