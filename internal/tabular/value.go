// Package tabular implements the conversion core: a tagged JSON value type
// with order-preserving maps, flat tables with per-column type inference, and
// the flattener that decomposes a raw company document into a company row and
// price rows.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind enumerates the value types a cell can hold.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Field is one entry of a map value. Map entries keep the order in which they
// appeared in the source document, which makes column ordering deterministic.
type Field struct {
	Key   string
	Value Value
}

// Value is a tagged union over the JSON value space:
// null/bool/int/float/string/list/map. Integers and floats are kept distinct
// so exporters can infer column types without guessing.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	list   []Value
	fields []Field
}

func Null() Value           { return Value{kind: KindNull} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }
func Map(fs []Field) Value  { return Value{kind: KindMap, fields: fs} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsString() string { return v.s }
func (v Value) AsList() []Value  { return v.list }
func (v Value) Fields() []Field  { return v.fields }

// AsFloat returns the numeric value of an int or float cell.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// MapGet looks up a key in a map value.
func (v Value) MapGet(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// StringList returns the elements of a list value if every element is a
// string.
func (v Value) StringList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, 0, len(v.list))
	for _, el := range v.list {
		if el.kind != KindString {
			return nil, false
		}
		out = append(out, el.s)
	}
	return out, true
}

// ToAny converts the value to plain Go types (map keys lose their order).
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, el := range v.list {
			out[i] = el.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Key] = f.Value.ToAny()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts plain Go values into a Value. Map keys are sorted for
// determinism since Go maps carry no order.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		if t == float64(int64(t)) && t >= -1e15 && t <= 1e15 {
			return Int(int64(t))
		}
		return Float(t)
	case string:
		return String(t)
	case []string:
		vs := make([]Value, len(t))
		for i, s := range t {
			vs[i] = String(s)
		}
		return List(vs)
	case []any:
		vs := make([]Value, len(t))
		for i, el := range t {
			vs[i] = FromAny(el)
		}
		return List(vs)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fs := make([]Field, 0, len(keys))
		for _, k := range keys {
			fs = append(fs, Field{Key: k, Value: FromAny(t[k])})
		}
		return Map(fs)
	default:
		return String(fmt.Sprint(t))
	}
}

// UnmarshalJSON decodes arbitrary JSON while preserving object key order and
// the int/float distinction.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON decodes a complete JSON document into a Value.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key token %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return Map(fields), nil
		case '[':
			var elems []Value
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, el)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return List(elems), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %v", t)
		}
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// MarshalJSON encodes the value back to JSON with map keys in preserved
// order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeJSON returns the compact JSON encoding of the value.
func (v Value) EncodeJSON() string {
	data, err := v.MarshalJSON()
	if err != nil {
		// Only string escaping can fail, and encoding/json escapes all
		// valid Go strings.
		return "null"
	}
	return string(data)
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindList:
		buf.WriteByte('[')
		for i, el := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte(':')
			if err := encodeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
