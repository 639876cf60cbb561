// Package jsondoc provides an order-preserving model for JSON documents.
//
// The standard library decodes JSON objects into maps, which lose the
// member order declared in the document. Node identity and sibling order
// in the diagram pipeline both derive from that declared order, so the
// pipeline operates on this package's Value type instead of
// map[string]any.
//
// # Usage
//
// Parse a document and inspect it:
//
//	doc, err := jsondoc.Parse(data)
//	if err != nil {
//	    return err
//	}
//	for _, m := range doc.Members {
//	    fmt.Println(m.Key, m.Value.Kind)
//	}
//
// Values round-trip through MarshalJSON with member order intact.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Kind identifies the JSON type of a Value.
type Kind int

// JSON value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Member is a single object member. Order within Value.Members is the
// order declared in the source document.
type Member struct {
	Key   string
	Value *Value
}

// Value is one JSON value. Exactly the fields matching Kind are set:
// Str for strings, Num for numbers, Bool for booleans, Elems for arrays,
// Members for objects.
type Value struct {
	Kind    Kind
	Str     string
	Num     json.Number
	Bool    bool
	Elems   []*Value
	Members []Member
}

// Parse decodes a JSON document while preserving object member order.
// Numbers keep their source text (no float64 round-trip).
func Parse(data []byte) (*Value, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader decodes a JSON document from r.
// The reader must contain exactly one JSON value; trailing data is an error.
func ParseReader(r io.Reader) (*Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}

	// Reject trailing garbage after the first document.
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return &Value{Kind: KindNull}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: t}, nil
	case json.Number:
		return &Value{Kind: KindNumber, Num: t}, nil
	case string:
		return &Value{Kind: KindString, Str: t}, nil
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder) (*Value, error) {
	obj := &Value{Kind: KindObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, Member{Key: key, Value: val})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (*Value, error) {
	arr := &Value{Kind: KindArray}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// FromAny converts a generic decoded value (map[string]any, []any,
// scalars) into a Value. Map keys are sorted so programmatically built
// documents normalize deterministically; parse JSON text with Parse when
// the declared order matters.
func FromAny(v any) *Value {
	switch t := v.(type) {
	case nil:
		return &Value{Kind: KindNull}
	case bool:
		return &Value{Kind: KindBool, Bool: t}
	case string:
		return &Value{Kind: KindString, Str: t}
	case json.Number:
		return &Value{Kind: KindNumber, Num: t}
	case float64:
		return &Value{Kind: KindNumber, Num: json.Number(strconv.FormatFloat(t, 'g', -1, 64))}
	case int:
		return &Value{Kind: KindNumber, Num: json.Number(strconv.Itoa(t))}
	case int64:
		return &Value{Kind: KindNumber, Num: json.Number(strconv.FormatInt(t, 10))}
	case []any:
		arr := &Value{Kind: KindArray, Elems: make([]*Value, len(t))}
		for i, e := range t {
			arr.Elems[i] = FromAny(e)
		}
		return arr
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &Value{Kind: KindObject, Members: make([]Member, len(keys))}
		for i, k := range keys {
			obj.Members[i] = Member{Key: k, Value: FromAny(t[k])}
		}
		return obj
	}
	// Unrepresentable Go values degrade to their string form.
	return &Value{Kind: KindString, Str: fmt.Sprint(v)}
}

// Interface converts the Value back to generic Go types
// (map[string]any, []any, scalars). Object member order is lost.
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		if f, err := v.Num.Float64(); err == nil {
			return f
		}
		return v.Num.String()
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes the value, emitting object members in declared order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v *Value) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.Num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(v.Num.String())
		}
	case KindString:
		data, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown kind %v", v.Kind)
	}
	return nil
}

// UnmarshalJSON decodes JSON into the value, preserving member order.
// This makes Value usable as a struct field with encoding/json.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// IsScalar reports whether the value is a string, number, boolean, or null.
func (v *Value) IsScalar() bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	}
	return false
}

// ScalarString renders a scalar value as display text.
// Strings are returned verbatim, numbers keep their source formatting.
// Non-scalar values return the empty string.
func (v *Value) ScalarString() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return v.Num.String()
	case KindString:
		return v.Str
	}
	return ""
}

// Field returns the value of the named object member.
// Returns nil, false for non-objects and missing keys. The first
// occurrence wins when a document declares duplicate keys.
func (v *Value) Field(key string) (*Value, bool) {
	if v == nil || v.Kind != KindObject {
		return nil, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Equal reports deep equality, including member order for objects.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Members) != len(o.Members) {
			return false
		}
		for i := range v.Members {
			if v.Members[i].Key != o.Members[i].Key {
				return false
			}
			if !v.Members[i].Value.Equal(o.Members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
