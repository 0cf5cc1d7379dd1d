package odm_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

func Test_Expectation_Present_FailsOnBlankValues(t *testing.T) {
	blankValues := map[string]odm.Value{
		"null":          odm.NullValue(),
		"empty string":  odm.StringValue(""),
		"empty list":    odm.ListValue(),
		"empty mapping": odm.MappingValue(),
	}

	for name, value := range blankValues {
		t.Run(name, func(t *testing.T) {
			// arrange
			collector := odm.NewErrorCollector()
			expect := odm.NewExpectation(collector)

			// act
			expect.Present("field", value, "can't be empty")

			// assert
			assert.Equal(t, []string{"field can't be empty"}, collector.FullMessages())
		})
	}
}

func Test_Expectation_Present_PassesOnFilledValues(t *testing.T) {
	filledValues := map[string]odm.Value{
		"string":  odm.StringValue("x"),
		"number":  odm.NumberValue(0),
		"false":   odm.BoolValue(false),
		"list":    odm.ListValue(odm.NumberValue(1)),
		"mapping": odm.MappingValue(odm.F("k", odm.NullValue())),
	}

	for name, value := range filledValues {
		t.Run(name, func(t *testing.T) {
			// arrange
			collector := odm.NewErrorCollector()
			expect := odm.NewExpectation(collector)

			// act
			expect.Present("field", value, "can't be empty")

			// assert
			assert.True(t, collector.IsEmpty())
		})
	}
}

func Test_Expectation_Absent_IsTheInverseOfPresent(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Absent("draft", odm.NullValue(), "must be blank")
	expect.Absent("draft", odm.StringValue("x"), "must be blank")

	// assert
	assert.Equal(t, []string{"draft must be blank"}, collector.FullMessages())
}

func Test_Expectation_True_RequiresExactlyBooleanTrue(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.True("accepted", odm.BoolValue(true), "must be accepted")
	expect.True("confirmed", odm.BoolValue(false), "must be confirmed")
	expect.True("active", odm.StringValue("true"), "must be active")
	expect.True("enabled", odm.NullValue(), "must be enabled")

	// assert
	assert.Equal(t, []string{
		"confirmed must be confirmed",
		"active must be active",
		"enabled must be enabled",
	}, collector.FullMessages())
}

func Test_Expectation_False_RequiresExactlyBooleanFalse(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.False("blocked", odm.BoolValue(false), "must not be blocked")
	expect.False("deleted", odm.BoolValue(true), "must not be deleted")
	expect.False("hidden", odm.NumberValue(0), "must not be hidden")

	// assert
	assert.Equal(t, []string{
		"deleted must not be deleted",
		"hidden must not be hidden",
	}, collector.FullMessages())
}

func Test_Expectation_Numeric_AcceptsNumbersAndNumericStrings(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Numeric("age", odm.NumberValue(42), "is not a number")
	expect.Numeric("height", odm.StringValue("1.78"), "is not a number")
	expect.Numeric("weight", odm.StringValue("heavy"), "is not a number")
	expect.Numeric("size", odm.BoolValue(true), "is not a number")

	// assert
	assert.Equal(t, []string{
		"weight is not a number",
		"size is not a number",
	}, collector.FullMessages())
}

func Test_Expectation_Numeric_WithAllowNil_PassesOnNull(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Numeric("age", odm.NullValue(), "is not a number", odm.AllowNil())
	expect.Numeric("height", odm.NullValue(), "is not a number")

	// assert
	assert.Equal(t, []string{"height is not a number"}, collector.FullMessages())
}

func Test_Expectation_NotNumeric_FailsOnNumbersRegardlessOfRepresentation(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.NotNumeric("nickname", odm.StringValue("zero"), "must not be a number")
	expect.NotNumeric("alias", odm.StringValue("0"), "must not be a number")
	expect.NotNumeric("handle", odm.NumberValue(7), "must not be a number")
	expect.NotNumeric("tag", odm.NullValue(), "must not be a number", odm.AllowNil())

	// assert
	assert.Equal(t, []string{
		"alias must not be a number",
		"handle must not be a number",
	}, collector.FullMessages())
}

func Test_Expectation_Match_ChecksStringsAgainstThePattern(t *testing.T) {
	// arrange
	pattern := regexp.MustCompile(`\A[^@\s]+@[^@\s]+\z`)
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Match("email", odm.StringValue("ann@example.com"), pattern, "is not a valid address")
	expect.Match("email", odm.StringValue("not-an-address"), pattern, "is not a valid address")
	expect.Match("contact", odm.NumberValue(1), pattern, "is not a valid address")
	expect.Match("backup", odm.NullValue(), pattern, "is not a valid address", odm.AllowNil())
	expect.Match("primary", odm.NullValue(), pattern, "is not a valid address")

	// assert
	assert.Equal(t, []string{
		"email is not a valid address",
		"contact is not a valid address",
		"primary is not a valid address",
	}, collector.FullMessages())
}

func Test_Expectation_NoMatch_FailsOnMatchingStrings(t *testing.T) {
	// arrange
	pattern := regexp.MustCompile(`admin`)
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.NoMatch("name", odm.StringValue("administrator"), pattern, "is reserved")
	expect.NoMatch("name", odm.StringValue("reader"), pattern, "is reserved")
	expect.NoMatch("name", odm.NullValue(), pattern, "is reserved", odm.AllowNil())

	// assert
	assert.Equal(t, []string{"name is reserved"}, collector.FullMessages())
}

func Test_Expectation_Length_WithMinimum(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Length("name", odm.StringValue("Jo"), "is too short", odm.WithMinimum(2))
	expect.Length("name", odm.StringValue("J"), "is too short", odm.WithMinimum(2))

	// assert
	assert.Equal(t, []string{"name is too short"}, collector.FullMessages())
}

func Test_Expectation_Length_WithMaximum(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Length("tags", odm.ListValue(odm.StringValue("a"), odm.StringValue("b")), "has too many entries", odm.WithMaximum(2))
	expect.Length("tags", odm.ListValue(odm.StringValue("a"), odm.StringValue("b"), odm.StringValue("c")), "has too many entries", odm.WithMaximum(2))

	// assert
	assert.Equal(t, []string{"tags has too many entries"}, collector.FullMessages())
}

func Test_Expectation_Length_WithRange(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Length("pin", odm.StringValue("1234"), "must have 4 to 6 digits", odm.WithRange(4, 6))
	expect.Length("pin", odm.StringValue("123"), "must have 4 to 6 digits", odm.WithRange(4, 6))
	expect.Length("pin", odm.StringValue("1234567"), "must have 4 to 6 digits", odm.WithRange(4, 6))

	// assert
	assert.Equal(t, []string{
		"pin must have 4 to 6 digits",
		"pin must have 4 to 6 digits",
	}, collector.FullMessages())
}

func Test_Expectation_Length_MeasuresStringsInRunes(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Length("name", odm.StringValue("äöü"), "is too long", odm.WithMaximum(3))

	// assert
	assert.True(t, collector.IsEmpty())
}

func Test_Expectation_Length_FailsOnValuesWithoutALength(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Length("age", odm.NumberValue(42), "has no length", odm.WithMinimum(1))
	expect.Length("note", odm.NullValue(), "has no length", odm.WithMinimum(1))
	expect.Length("memo", odm.NullValue(), "has no length", odm.WithMinimum(1), odm.AllowNil())

	// assert
	assert.Equal(t, []string{
		"age has no length",
		"note has no length",
	}, collector.FullMessages())
}

func Test_Expectation_ChecksAccumulate_InsteadOfShortCircuiting(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Present("name", odm.NullValue(), "can't be empty")
	expect.Present("email", odm.NullValue(), "can't be empty")
	expect.Numeric("age", odm.StringValue("old"), "is not a number")

	// assert
	assert.Equal(t, []string{
		"name can't be empty",
		"email can't be empty",
		"age is not a number",
	}, collector.FullMessages())
}

func Test_Expectation_Errors_AllowsDirectAppends(t *testing.T) {
	// arrange
	collector := odm.NewErrorCollector()
	expect := odm.NewExpectation(collector)

	// act
	expect.Errors().Append("base", "is invalid")

	// assert
	assert.Equal(t, []string{"base is invalid"}, collector.FullMessages())
}
