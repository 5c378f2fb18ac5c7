package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tells which variant a Value holds
type ValueKind int

const (
	KindAbsent ValueKind = iota // null, undefined or missing
	KindNumber                  // float64, NaN allowed
	KindText                    // free text, may be empty
)

// Value is a single station attribute value
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Absent returns the "no data" value
func Absent() Value {
	return Value{Kind: KindAbsent}
}

// Number wraps a numeric attribute. NaN is kept as the not-a-number sentinel.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps a textual attribute
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Present reports whether the value holds displayable data.
// Zero and NaN count as present; empty text does not.
func (v Value) Present() bool {
	switch v.Kind {
	case KindNumber:
		return true
	case KindText:
		return v.Text != ""
	default:
		return false
	}
}

// ValidNumber reports whether the value is numeric and not NaN
func (v Value) ValidNumber() bool {
	return v.Kind == KindNumber && !math.IsNaN(v.Num)
}

// String renders the value the way the details panel shows it
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) {
			return "NaN"
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and absent
// values as null. NaN and infinities have no JSON form and become null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// ParseCell converts a raw dataset cell into a typed Value.
// Cells that do not parse as a number are kept as text.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return Text("")
	case "null", "undefined":
		return Absent()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

// ParseText is ParseCell for columns that are always textual, such as
// identifiers, where "007" must not become 7.
func ParseText(raw string) Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "null", "undefined":
		return Absent()
	}
	return Text(s)
}
