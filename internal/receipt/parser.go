package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	kwDepartmentTotal = "reparto totale"
	kwDepartment      = "reparto"
	kwQuantity        = "quantita"
	kwTotal           = "totale"
	kwPieces          = "pezzi"
)

// DepartmentPolicy decides what happens to the current department once
// its total line has been read.
type DepartmentPolicy int

const (
	// ClearAfterTotal ends the department context at its total line.
	ClearAfterTotal DepartmentPolicy = iota
	// KeepAfterTotal keeps the department until another one is named.
	KeepAfterTotal
)

// ParseDepartmentPolicy reads "clear" or "keep".
func ParseDepartmentPolicy(s string) (DepartmentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clear":
		return ClearAfterTotal, nil
	case "keep":
		return KeepAfterTotal, nil
	}
	return ClearAfterTotal, fmt.Errorf("unknown department policy %q (want clear or keep)", s)
}

func (p DepartmentPolicy) String() string {
	if p == KeepAfterTotal {
		return "keep"
	}
	return "clear"
}

// ParserConfig tunes the token-stream parser.
type ParserConfig struct {
	FuzzyThreshold float64
	Policy         DepartmentPolicy
}

// DefaultParserConfig returns the defaults.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{FuzzyThreshold: DefaultFuzzyThreshold, Policy: ClearAfterTotal}
}

// Parser converts recognised tokens into a Record. It holds no per-call
// state and is safe for concurrent use.
type Parser struct {
	matcher Matcher
	policy  DepartmentPolicy
}

// NewParser creates a parser.
func NewParser(cfg ParserConfig) *Parser {
	return &Parser{matcher: Matcher{Threshold: cfg.FuzzyThreshold}, policy: cfg.Policy}
}

// Parse walks the token stream once. Keywords are recognised fuzzily and
// consume the token that follows them as their value; unrecognised tokens
// are skipped. Parse never fails: missing structure gives a smaller record.
func (p *Parser) Parse(tokens []string) Record {
	rec, _ := p.parse(tokens)
	return rec
}

// parse also returns the department that was current when the stream ended.
func (p *Parser) parse(tokens []string) (Record, int) {
	norm := make([]string, len(tokens))
	for i, t := range tokens {
		norm[i] = NormalizeToken(t)
	}
	value := func(i int) (string, bool) {
		if i < len(norm) {
			return norm[i], true
		}
		return "", false
	}

	rec := Record{fields: make(map[Field]Value)}
	dep := 0

	for i := 0; i < len(norm); {
		tok := norm[i]
		switch {
		case p.matcher.Match(tok, kwDepartmentTotal):
			if v, ok := value(i + 1); ok {
				setTotal(rec, v)
			}
			i += 2

		case p.matcher.Match(tok, kwDepartment):
			next, hasNext := value(i + 1)
			if hasNext && p.matcher.Match(next, kwTotal) {
				if v, ok := value(i + 2); ok {
					setTotal(rec, v)
				}
				i += 3
				continue
			}
			if n, ok := departmentIndex(tok, next); ok {
				dep = n
			} else if dep != 0 {
				// unlabelled departments are assumed to be printed in order
				dep++
				if dep > MaxDepartments {
					dep = 0
				}
			}
			i++

		case p.matcher.Match(tok, kwQuantity):
			if v, ok := value(i + 1); ok && dep != 0 {
				if n := IntOrZero(v); n > 0 {
					rec.fields[QuantityField(dep)] = IntegerValue(n)
				}
			}
			i += 2

		case p.matcher.Match(tok, kwTotal):
			if v, ok := value(i + 1); ok && dep != 0 {
				if amount := FloatOrZero(v); amount > 0 {
					rec.fields[DepartmentField(dep)] = DecimalValue(amount)
				}
			}
			if p.policy == ClearAfterTotal {
				dep = 0
			}
			i += 2

		case p.matcher.Match(tok, kwPieces):
			if v, ok := value(i + 1); ok {
				if n := IntOrZero(v); n > 0 {
					rec.fields[FieldTotalQuantity] = IntegerValue(n)
				}
			}
			i += 2

		default:
			i++
		}
	}

	// every token may carry the date, consumed or not; the first one wins
	for _, tok := range norm {
		if d, ok := ParseDate(tok); ok {
			rec.fields[FieldDate] = DateValue(d)
			break
		}
	}

	return rec, dep
}

// setTotal stores the receipt total. A total that cannot be read is kept
// as present-but-unreadable, and never replaces one that could.
func setTotal(rec Record, token string) {
	if v, ok := ParseFloat(token); ok {
		rec.fields[FieldTotal] = DecimalValue(v)
		return
	}
	if !rec.Readable(FieldTotal) {
		rec.fields[FieldTotal] = UnreadableDecimal()
	}
}

// departmentIndex reads the department number from the last character of
// the keyword token ("reparto3") or, when that is not a digit, from the
// following token. Numbers outside 1..MaxDepartments do not count.
func departmentIndex(tok, next string) (int, bool) {
	n := -1
	if last, _ := utf8.DecodeLastRuneInString(tok); last >= '0' && last <= '9' {
		n = int(last - '0')
	} else if v, err := strconv.Atoi(strings.TrimSpace(next)); err == nil {
		n = v
	}
	if n < 1 || n > MaxDepartments {
		return 0, false
	}
	return n, true
}
