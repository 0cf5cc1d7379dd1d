package odm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/fixtures"
)

func Test_Document_ZeroValueIsAUsableNewDocument(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}

	// assert
	assert.True(t, reader.IsNew())
	assert.False(t, reader.IsPersisted())
	assert.False(t, reader.IsRemoved())
	assert.Equal(t, odm.StateNew, reader.State())
	assert.Empty(t, reader.Identity())
	assert.Empty(t, reader.Fields())
}

func Test_Document_Get_ReadsUnsetPathsAsNull(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}

	// assert
	assert.True(t, reader.Get("name").IsNull())
	assert.True(t, reader.Get("address.city").IsNull())
}

func Test_Document_SetAndGet_WithNestedPaths(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}

	// act
	reader.Set("name", odm.StringValue("Ann"))
	reader.Set("address.city", odm.StringValue("Berlin"))
	reader.Set("address.zip", odm.StringValue("10115"))

	// assert
	assert.Equal(t, "Ann", reader.Get("name").String())
	assert.Equal(t, "Berlin", reader.Get("address.city").String())
	assert.Equal(t, "10115", reader.Get("address.zip").String())
	assert.Equal(t, odm.KindMapping, reader.Get("address").Kind())
}

func Test_Document_Set_KeepsFieldOrder(t *testing.T) {
	// arrange
	note := &fixtures.Note{}

	// act
	note.Set("third", odm.NumberValue(3))
	note.Set("first", odm.NumberValue(1))
	note.Set("third", odm.NumberValue(30))

	// assert
	fields := note.Fields()
	assert.Equal(t, "third", fields[0].Key)
	assert.Equal(t, float64(30), fields[0].Value.Number())
	assert.Equal(t, "first", fields[1].Key)
}

func Test_Document_Errors_IsEmptyBeforeAnyValidation(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}

	// assert
	assert.True(t, reader.Errors().IsEmpty())
}

func Test_IsValid_RecordsAllFailuresOfOnePass(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}

	// act
	valid := odm.IsValid(reader)

	// assert
	assert.False(t, valid)
	assert.Equal(t, []string{
		"name can't be empty",
		"email can't be empty",
	}, reader.Errors().FullMessages())
}

func Test_IsValid_ReplacesTheCollectorOnEveryPass(t *testing.T) {
	// arrange
	reader := &fixtures.Reader{}
	odm.IsValid(reader)

	// act
	reader.Set("name", odm.StringValue("Ann"))
	reader.Set("email", odm.StringValue("ann@example.com"))
	valid := odm.IsValid(reader)

	// assert
	assert.True(t, valid)
	assert.True(t, reader.Errors().IsEmpty())
}

func Test_IsValid_DocumentsWithoutValidationRulesAreAlwaysValid(t *testing.T) {
	// arrange
	note := &fixtures.Note{}

	// assert
	assert.True(t, odm.IsValid(note))
}

func Test_IsValid_PartiallyInvalidDocument_RecordsOnlyTheFailingChecks(t *testing.T) {
	// arrange
	reader := fixtures.NewReader("Ann", "not-an-address")

	// act
	valid := odm.IsValid(reader)

	// assert
	assert.False(t, valid)
	assert.Equal(t, []string{"email is not a valid address"}, reader.Errors().FullMessages())
}
