package domain

import (
	"fmt"
	"strconv"
)

// ValueKind is the type of a story variable.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindBool
	KindString
)

var kindNames = [...]string{
	KindInt:    "int",
	KindBool:   "bool",
	KindString: "string",
}

func (k ValueKind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown value kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ValueKind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n == string(text) {
			*k = ValueKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown value kind %q", text)
}

// Value is a typed story variable value. Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind `json:"kind"`
	Int  int       `json:"int,omitempty"`
	Bool bool      `json:"bool,omitempty"`
	Str  string    `json:"str,omitempty"`
}

func IntValue(v int) Value       { return Value{Kind: KindInt, Int: v} }
func BoolValue(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// ValueOf converts a Go int, bool or string. YAML and JSON decoders may also
// hand over whole floats, which are accepted as ints.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case int:
		return IntValue(x), nil
	case int64:
		return IntValue(int(x)), nil
	case float64:
		if x != float64(int(x)) {
			return Value{}, fmt.Errorf("variable value %v is not a whole number", x)
		}
		return IntValue(int(x)), nil
	case bool:
		return BoolValue(x), nil
	case string:
		return StringValue(x), nil
	}
	return Value{}, fmt.Errorf("unsupported variable value %v (%T)", v, v)
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	}
	return "?"
}
