// Package receipt turns the raw token stream read from a cash-register
// receipt into a typed field record.
package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxDepartments is the number of department columns on a receipt.
const MaxDepartments = 5

// DateLayout is the ISO form used for the date field at the boundary.
const DateLayout = "2006-01-02"

// Field is the key of one recognised receipt value.
type Field string

const (
	FieldTotal         Field = "totale"
	FieldTotalQuantity Field = "quantita_totale"
	FieldDate          Field = "data"
)

// DepartmentField returns the subtotal key of department n (1-based).
func DepartmentField(n int) Field { return Field("reparto" + strconv.Itoa(n)) }

// QuantityField returns the item count key of department n (1-based).
func QuantityField(n int) Field { return Field("quantita" + strconv.Itoa(n)) }

// Fields lists every known key in canonical order.
func Fields() []Field {
	out := []Field{FieldTotal}
	for n := 1; n <= MaxDepartments; n++ {
		out = append(out, DepartmentField(n))
	}
	for n := 1; n <= MaxDepartments; n++ {
		out = append(out, QuantityField(n))
	}
	return append(out, FieldTotalQuantity, FieldDate)
}

// Kind returns the value kind stored under f, or 0 for unknown keys.
func (f Field) Kind() Kind {
	switch {
	case f == FieldTotal:
		return KindDecimal
	case f == FieldTotalQuantity:
		return KindInteger
	case f == FieldDate:
		return KindDate
	case strings.HasPrefix(string(f), "reparto"):
		if n, err := strconv.Atoi(strings.TrimPrefix(string(f), "reparto")); err == nil && n >= 1 && n <= MaxDepartments {
			return KindDecimal
		}
	case strings.HasPrefix(string(f), "quantita"):
		if n, err := strconv.Atoi(strings.TrimPrefix(string(f), "quantita")); err == nil && n >= 1 && n <= MaxDepartments {
			return KindInteger
		}
	}
	return 0
}

// Kind discriminates the payload of a Value.
type Kind int

const (
	KindDecimal Kind = iota + 1
	KindInteger
	KindDate
)

// Value is one field value. Unreadable marks a value whose token was
// present but could not be parsed; it renders as zero at the boundary.
type Value struct {
	Kind       Kind
	Decimal    float64
	Integer    int64
	Date       time.Time
	Unreadable bool
}

// DecimalValue wraps a monetary amount.
func DecimalValue(v float64) Value { return Value{Kind: KindDecimal, Decimal: v} }

// IntegerValue wraps an item count.
func IntegerValue(v int64) Value { return Value{Kind: KindInteger, Integer: v} }

// DateValue wraps a calendar date; the time of day is dropped.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// UnreadableDecimal is a decimal field whose value token could not be parsed.
func UnreadableDecimal() Value { return Value{Kind: KindDecimal, Unreadable: true} }

// Interface returns the boundary representation: decimals rounded to
// cents, integers as int64, dates in ISO form.
func (v Value) Interface() any {
	switch v.Kind {
	case KindDecimal:
		return math.Round(v.Decimal*100) / 100
	case KindInteger:
		return v.Integer
	case KindDate:
		return v.Date.Format(DateLayout)
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindDecimal:
		return strconv.FormatFloat(math.Round(v.Decimal*100)/100, 'f', 2, 64)
	case KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case KindDate:
		return v.Date.Format(DateLayout)
	}
	return ""
}

// Record maps field keys to values. Absent keys are fields that were not
// found. A Record is never modified after it is returned; With and Merge
// produce copies.
type Record struct {
	fields map[Field]Value
}

// With returns a copy of r with f set to v.
func (r Record) With(f Field, v Value) Record {
	out := r.clone()
	out.fields[f] = v
	return out
}

func (r Record) clone() Record {
	m := make(map[Field]Value, len(r.fields)+1)
	for k, v := range r.fields {
		m[k] = v
	}
	return Record{fields: m}
}

// Len returns the number of present fields.
func (r Record) Len() int { return len(r.fields) }

// IsEmpty reports whether no field was found.
func (r Record) IsEmpty() bool { return len(r.fields) == 0 }

// Get returns the value stored under f.
func (r Record) Get(f Field) (Value, bool) {
	v, ok := r.fields[f]
	return v, ok
}

// Has reports whether f is present, readable or not.
func (r Record) Has(f Field) bool {
	_, ok := r.fields[f]
	return ok
}

// Readable reports whether f is present and its token parsed.
func (r Record) Readable(f Field) bool {
	v, ok := r.fields[f]
	return ok && !v.Unreadable
}

// UnreadableFields lists the present fields whose token did not parse,
// in canonical order.
func (r Record) UnreadableFields() []Field {
	var out []Field
	for _, f := range r.Keys() {
		if r.fields[f].Unreadable {
			out = append(out, f)
		}
	}
	return out
}

// WithUnreadable returns a copy with the given fields marked unreadable.
// Fields that are absent are added as unreadable values of their kind.
func (r Record) WithUnreadable(fields ...Field) Record {
	if len(fields) == 0 {
		return r
	}
	out := r.clone()
	for _, f := range fields {
		if f.Kind() == 0 {
			continue
		}
		out.fields[f] = Value{Kind: f.Kind(), Unreadable: true}
	}
	return out
}

// Decimal returns a readable decimal field.
func (r Record) Decimal(f Field) (float64, bool) {
	v, ok := r.fields[f]
	if !ok || v.Kind != KindDecimal || v.Unreadable {
		return 0, false
	}
	return v.Decimal, true
}

// Int returns a readable integer field.
func (r Record) Int(f Field) (int64, bool) {
	v, ok := r.fields[f]
	if !ok || v.Kind != KindInteger || v.Unreadable {
		return 0, false
	}
	return v.Integer, true
}

// Date returns the receipt date.
func (r Record) Date() (time.Time, bool) {
	v, ok := r.fields[FieldDate]
	if !ok || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Date, true
}

// Keys returns the present keys in canonical order; unknown keys follow
// in lexical order.
func (r Record) Keys() []Field {
	keys := make([]Field, 0, len(r.fields))
	seen := make(map[Field]bool, len(r.fields))
	for _, f := range Fields() {
		if _, ok := r.fields[f]; ok {
			keys = append(keys, f)
			seen[f] = true
		}
	}
	var extra []Field
	for f := range r.fields {
		if !seen[f] {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

// Map returns the boundary view of the record.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for f, v := range r.fields {
		out[string(f)] = v.Interface()
	}
	return out
}

// Equal reports whether both records hold the same keys and values.
func (r Record) Equal(o Record) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for f, v := range r.fields {
		w, ok := o.fields[f]
		if !ok || v.Kind != w.Kind || v.Unreadable != w.Unreadable || v.String() != w.String() {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	parts := make([]string, 0, len(r.fields))
	for _, f := range r.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", f, r.fields[f]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON writes the boundary view with keys in canonical order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(f))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.fields[f].Interface())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the boundary view back. Unreadable markers do not
// survive the round trip; see UnreadableFields and WithUnreadable.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := Record{fields: make(map[Field]Value, len(raw))}
	for k, msg := range raw {
		f := Field(k)
		switch f.Kind() {
		case KindDecimal:
			var v float64
			if err := json.Unmarshal(msg, &v); err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			rec.fields[f] = DecimalValue(v)
		case KindInteger:
			var v int64
			if err := json.Unmarshal(msg, &v); err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			rec.fields[f] = IntegerValue(v)
		case KindDate:
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			t, err := time.Parse(DateLayout, s)
			if err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			rec.fields[f] = DateValue(t)
		default:
			return fmt.Errorf("unknown receipt field %q", k)
		}
	}
	*r = rec
	return nil
}

// MarshalYAML renders the record as an ordered mapping.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range r.Keys() {
		v := r.fields[f]
		val := &yaml.Node{Kind: yaml.ScalarNode, Value: v.String(), Tag: "!!str"}
		switch v.Kind {
		case KindDecimal:
			val.Tag = "!!float"
		case KindInteger:
			val.Tag = "!!int"
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(f)},
			val,
		)
	}
	return node, nil
}

// Merge combines two partial records key by key. Values of override win
// on collision; neither input is modified.
func Merge(primary, override Record) Record {
	out := primary.clone()
	for f, v := range override.fields {
		out.fields[f] = v
	}
	return out
}
