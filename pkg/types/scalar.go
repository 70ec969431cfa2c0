package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the scalar type of a field. Only scalar kinds take part in
// CSV serialization; KindUnsupported marks declared fields that are skipped.
type Kind int

// Field kinds.
const (
	KindUnsupported Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
)

// kindLabels are the type labels written into CSV header cells.
var kindLabels = map[Kind]string{
	KindUnsupported: "object",
	KindBool:        "bool",
	KindInt:         "int32",
	KindLong:        "int64",
	KindFloat:       "float32",
	KindDouble:      "float64",
	KindString:      "string",
}

// kindAliases maps accepted configuration spellings to kinds.
var kindAliases = map[string]Kind{
	"bool":    KindBool,
	"boolean": KindBool,
	"int":     KindInt,
	"int32":   KindInt,
	"integer": KindInt,
	"long":    KindLong,
	"int64":   KindLong,
	"float":   KindFloat,
	"float32": KindFloat,
	"single":  KindFloat,
	"double":  KindDouble,
	"float64": KindDouble,
	"string":  KindString,
	"text":    KindString,
	"object":  KindUnsupported,
}

// String returns the header label for the kind.
func (k Kind) String() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsScalar reports whether values of this kind can be serialized.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindString
}

// ParseKind converts a configuration label to a Kind.
// Returns ErrInvalidKind for unknown labels.
func ParseKind(label string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return KindUnsupported, fmt.Errorf("%w: %q", ErrInvalidKind, label)
	}
	return k, nil
}

// Value is a tagged scalar. Exactly one payload field is meaningful,
// selected by kind.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// BoolValue returns a bool scalar.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an int32 scalar.
func IntValue(i int32) Value { return Value{kind: KindInt, i: int64(i)} }

// LongValue returns an int64 scalar.
func LongValue(i int64) Value { return Value{kind: KindLong, i: i} }

// FloatValue returns a float32 scalar.
func FloatValue(f float32) Value { return Value{kind: KindFloat, f: float64(f)} }

// DoubleValue returns a float64 scalar.
func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }

// StringValue returns a string scalar.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ZeroValue returns the zero value for kind.
func ZeroValue(kind Kind) Value { return Value{kind: kind} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Payload accessors. Callers check Kind first.
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int32      { return int32(v.i) }
func (v Value) AsLong() int64     { return v.i }
func (v Value) AsFloat() float32  { return float32(v.f) }
func (v Value) AsDouble() float64 { return v.f }
func (v Value) AsString() string  { return v.s }

// Format returns the textual representation written into CSV cells.
// Strings are returned unquoted. Floats use the shortest form that parses
// back to the same value.
func (v Value) Format() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Format() }

// ParseValue converts text into a scalar of the given kind. Numeric and
// boolean text may carry surrounding whitespace; string text is kept as is.
func ParseValue(kind Kind, text string) (Value, error) {
	t := strings.TrimSpace(text)
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s %q: %w", kind, text, err)
		}
		return BoolValue(b), nil
	case KindInt:
		i, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s %q: %w", kind, text, err)
		}
		return IntValue(int32(i)), nil
	case KindLong:
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s %q: %w", kind, text, err)
		}
		return LongValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s %q: %w", kind, text, err)
		}
		return FloatValue(float32(f)), nil
	case KindDouble:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s %q: %w", kind, text, err)
		}
		return DoubleValue(f), nil
	case KindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
}
