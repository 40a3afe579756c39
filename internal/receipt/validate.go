package receipt

import (
	"fmt"
	"math"
	"time"
)

// Issue is one consistency problem found in a record.
type Issue struct {
	Field   Field  `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s", i.Field, i.Message) }

// Validate applies the checks the bookkeeping form applies to manually
// entered receipts: amounts are non-negative with at most two decimals,
// the department subtotals add up to the total and the date is not after
// now. Problems are reported, not raised.
func Validate(rec Record, now time.Time) []Issue {
	var issues []Issue

	for _, f := range rec.Keys() {
		v := rec.fields[f]
		if v.Kind != KindDecimal {
			continue
		}
		if v.Unreadable {
			issues = append(issues, Issue{Field: f, Message: "value could not be read"})
			continue
		}
		if v.Decimal < 0 {
			issues = append(issues, Issue{Field: f, Message: "must not be negative"})
		}
		if cents := v.Decimal * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
			issues = append(issues, Issue{Field: f, Message: "has more than two decimal places"})
		}
	}

	if total, ok := rec.Decimal(FieldTotal); ok {
		var sum int64
		found := false
		for n := 1; n <= MaxDepartments; n++ {
			if v, ok := rec.Decimal(DepartmentField(n)); ok {
				sum += toCents(v)
				found = true
			}
		}
		if found && sum != toCents(total) {
			issues = append(issues, Issue{
				Field:   FieldTotal,
				Message: fmt.Sprintf("department sum %.2f does not match total %.2f", float64(sum)/100, total),
			})
		}
	}

	if d, ok := rec.Date(); ok {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(today) {
			issues = append(issues, Issue{Field: FieldDate, Message: "date is in the future"})
		}
	}

	return issues
}

func toCents(v float64) int64 { return int64(math.Round(v * 100)) }
