package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind discriminates the three shapes a sensor value can take.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueNumber
	ValueText
)

// Value is a tagged scalar: numeric, textual, or absent. Absent values render
// as "not available" and are excluded from numeric aggregates.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

func NumberValue(v float64) Value { return Value{kind: ValueNumber, num: v} }
func TextValue(s string) Value    { return Value{kind: ValueText, text: s} }
func NoValue() Value              { return Value{} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsAbsent() bool  { return v.kind == ValueAbsent }

// Float returns the numeric value when present.
func (v Value) Float() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the textual value when present.
func (v Value) Text() (string, bool) {
	if v.kind != ValueText {
		return "", false
	}
	return v.text, true
}

// Int parses the value as an integer: an integral numeric value directly, a
// textual value via strconv after trimming whitespace.
func (v Value) Int() (int, bool) {
	switch v.kind {
	case ValueNumber:
		if v.num != math.Trunc(v.num) {
			return 0, false
		}
		return int(v.num), true
	case ValueText:
		n, err := strconv.Atoi(strings.TrimSpace(v.text))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String renders the value for display; absent values become "not available".
func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueText:
		return v.text
	default:
		return "not available"
	}
}

// MarshalJSON encodes number, string, or null depending on kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = NoValue()
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = NumberValue(f)
	return nil
}

// SensorReading is one observed value for one sensor, immutable once captured.
type SensorReading struct {
	Label      string    `json:"label"`
	Value      Value     `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}
