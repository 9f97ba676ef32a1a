package meta

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is one node of a purchase record's metadata tree. The zero Value is
// null. Map keys keep their document order so re-encoding and iteration are
// deterministic.
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	items  []Value
	keys   []string
	fields map[string]Value
}

// Field is one key/value pair used to build a map Value.
type Field struct {
	Key   string
	Value Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(n int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

func Str(s string) Value { return Value{kind: KindString, str: s} }

func ListOf(items ...Value) Value {
	return Value{kind: KindList, items: items}
}

// MapOf builds a map; a repeated key keeps its first position and last value.
func MapOf(fields ...Field) Value {
	v := Value{kind: KindMap, fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		v.set(f.Key, f.Value)
	}
	return v
}

func (v *Value) set(key string, child Value) {
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = child
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Len is the number of list items or map entries, zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindMap:
		return len(v.keys)
	}
	return 0
}

// Keys returns map keys in document order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Items returns list elements. Map values are returned in key order.
func (v Value) Items() []Value {
	switch v.kind {
	case KindList:
		return v.items
	case KindMap:
		out := make([]Value, 0, len(v.keys))
		for _, k := range v.keys {
			out = append(out, v.fields[k])
		}
		return out
	}
	return nil
}

// Get looks up a key of a map Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.fields[key]
	return child, ok
}

// Has reports whether a map Value carries key, whatever its value.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Index returns the i-th list element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Lookup resolves one path segment: a key for maps, a decimal index for lists.
func (v Value) Lookup(seg string) (Value, bool) {
	switch v.kind {
	case KindMap:
		return v.Get(seg)
	case KindList:
		i, err := strconv.Atoi(seg)
		if err != nil {
			return Value{}, false
		}
		return v.Index(i)
	}
	return Value{}, false
}

// Walk follows path from v. A segment that does not resolve stops the walk.
func (v Value) Walk(path ...string) (Value, bool) {
	cur := v
	for _, seg := range path {
		next, ok := cur.Lookup(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// At is Walk returning null on a miss.
func (v Value) At(path ...string) Value {
	out, _ := v.Walk(path...)
	return out
}

// Text is the display form: scalars as strings, composites as JSON, null as "".
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindList, KindMap:
		raw, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return ""
}

func (v Value) String() string { return v.Text() }

// Float coerces numbers, numeric strings and booleans.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		f, err := v.num.Float64()
		return f, err == nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int truncates the numeric form of v, zero when v is not numeric.
func (v Value) Int() int64 {
	if v.kind == KindNumber {
		if n, err := v.num.Int64(); err == nil {
			return n
		}
	}
	if v.kind == KindString {
		if n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64); err == nil {
			return n
		}
	}
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return int64(f)
}

// IsNumeric reports numbers and strings that parse as numbers.
func (v Value) IsNumeric() bool {
	if v.kind != KindNumber && v.kind != KindString {
		return false
	}
	_, ok := v.Float()
	return ok
}

// Truthy follows loose truthiness: empty strings, "0", zero, empty
// containers, false and null are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		f, err := v.num.Float64()
		return err == nil && f != 0
	case KindString:
		return v.str != "" && v.str != "0"
	case KindList:
		return len(v.items) > 0
	case KindMap:
		return len(v.keys) > 0
	}
	return false
}

// MarshalJSON encodes v keeping map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindString:
		return encodeString(buf, v.str)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
