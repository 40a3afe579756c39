package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validateNow = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

func TestValidate_ConsistentRecord(t *testing.T) {
	rec := Record{}.
		With(FieldTotal, DecimalValue(12.5)).
		With(DepartmentField(1), DecimalValue(10)).
		With(DepartmentField(3), DecimalValue(2.5)).
		With(FieldDate, DateValue(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))

	assert.Empty(t, Validate(rec, validateNow))
	assert.Empty(t, Validate(Record{}, validateNow))
}

func TestValidate_DepartmentSumMismatch(t *testing.T) {
	rec := Record{}.
		With(FieldTotal, DecimalValue(12.5)).
		With(DepartmentField(1), DecimalValue(10))

	issues := Validate(rec, validateNow)
	require.Len(t, issues, 1)
	assert.Equal(t, FieldTotal, issues[0].Field)
	assert.Contains(t, issues[0].Message, "10.00")
	assert.Contains(t, issues[0].Message, "12.50")
}

func TestValidate_TotalWithoutDepartments(t *testing.T) {
	rec := Record{}.With(FieldTotal, DecimalValue(12.5))
	assert.Empty(t, Validate(rec, validateNow))
}

func TestValidate_AmountChecks(t *testing.T) {
	rec := Record{}.
		With(DepartmentField(1), DecimalValue(-1)).
		With(DepartmentField(2), DecimalValue(1.234)).
		With(FieldTotal, UnreadableDecimal())

	issues := Validate(rec, validateNow)
	require.Len(t, issues, 3)
	assert.Equal(t, Issue{Field: FieldTotal, Message: "value could not be read"}, issues[0])
	assert.Equal(t, DepartmentField(1), issues[1].Field)
	assert.Equal(t, DepartmentField(2), issues[2].Field)
	assert.Equal(t, "reparto2: has more than two decimal places", issues[2].String())
}

func TestValidate_FutureDate(t *testing.T) {
	rec := Record{}.With(FieldDate, DateValue(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))

	issues := Validate(rec, validateNow)
	require.Len(t, issues, 1)
	assert.Equal(t, FieldDate, issues[0].Field)
}
