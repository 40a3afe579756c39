package receipt

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genTokens generates token streams mixing receipt vocabulary, amounts,
// dates and noise.
func genTokens() gopter.Gen {
	vocabulary := gen.OneConstOf(
		"REPARTO", "REPARTO 1", "REPARTO 3", "REPARTO 7", "REPARTO TOTALE", "REPART0 2",
		"QUANTITA", "QUANTITÀ", "TOTALE", "T0TALE", "PEZZI",
		"12,50", "4,5O", "0,00", "1.234,56", "3", "-2", "07-03-2024", "31/12/23",
		"GRAZIE", "", "€",
	)
	return gen.SliceOf(gen.OneGenOf(vocabulary, gen.AlphaString()))
}

func genRecord() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 9)).Map(func(idx []int) Record {
		rec := Record{}
		fields := Fields()
		for i, n := range idx {
			f := fields[n%len(fields)]
			switch f.Kind() {
			case KindInteger:
				rec = rec.With(f, IntegerValue(int64(i+1)))
			case KindDecimal:
				rec = rec.With(f, DecimalValue(float64(i)+0.5))
			}
		}
		return rec
	})
}

// TestParse_Deterministic verifies equal input gives equal records.
func TestParse_Deterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)
	p := NewParser(DefaultParserConfig())

	properties.Property("parse twice, same record", prop.ForAll(
		func(tokens []string) bool {
			return p.Parse(tokens).Equal(p.Parse(tokens))
		},
		genTokens(),
	))

	properties.TestingRun(t)
}

// TestParse_OnlyKnownFields verifies every key is one of the thirteen
// receipt fields and amounts and counts are positive.
func TestParse_OnlyKnownFields(t *testing.T) {
	properties := gopter.NewProperties(nil)
	known := make(map[Field]bool)
	for _, f := range Fields() {
		known[f] = true
	}

	for _, policy := range []DepartmentPolicy{ClearAfterTotal, KeepAfterTotal} {
		p := NewParser(ParserConfig{FuzzyThreshold: DefaultFuzzyThreshold, Policy: policy})
		properties.Property(fmt.Sprintf("known fields only (%s)", policy), prop.ForAll(
			func(tokens []string) bool {
				rec := p.Parse(tokens)
				for _, f := range rec.Keys() {
					if !known[f] {
						return false
					}
					if f == FieldTotal || f == FieldDate {
						continue
					}
					if v, ok := rec.Decimal(f); ok && v <= 0 {
						return false
					}
					if v, ok := rec.Int(f); ok && v <= 0 {
						return false
					}
				}
				return rec.Len() <= len(Fields())
			},
			genTokens(),
		))
	}

	properties.TestingRun(t)
}

// TestMerge_Properties checks identity and precedence of Merge.
func TestMerge_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("empty is the identity", prop.ForAll(
		func(a Record) bool {
			return Merge(a, Record{}).Equal(a) && Merge(Record{}, a).Equal(a)
		},
		genRecord(),
	))

	properties.Property("override wins and keys are the union", prop.ForAll(
		func(a, b Record) bool {
			m := Merge(a, b)
			for _, f := range b.Keys() {
				got, _ := m.Get(f)
				want, _ := b.Get(f)
				if got != want {
					return false
				}
			}
			for _, f := range a.Keys() {
				if !m.Has(f) {
					return false
				}
			}
			return m.Len() <= a.Len()+b.Len()
		},
		genRecord(),
		genRecord(),
	))

	properties.TestingRun(t)
}

// TestMatcherScore_Bounded verifies scores stay in [0, 1].
func TestMatcherScore_Bounded(t *testing.T) {
	properties := gopter.NewProperties(nil)
	m := Matcher{Threshold: DefaultFuzzyThreshold}

	properties.Property("0 <= score <= 1", prop.ForAll(
		func(token, keyword string) bool {
			s := m.Score(token, keyword)
			return s >= 0 && s <= 1
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestParseFloat_Cents verifies comma amounts read back exactly.
func TestParseFloat_Cents(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("euros,cents parses to euros+cents/100", prop.ForAll(
		func(euros, cents int) bool {
			v, ok := ParseFloat(fmt.Sprintf("%d,%02d", euros, cents))
			return ok && toCents(v) == int64(euros*100+cents)
		},
		gen.IntRange(0, 9999),
		gen.IntRange(0, 99),
	))

	properties.TestingRun(t)
}
