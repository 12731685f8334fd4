// Package outline parses, validates and decodes the course outlines produced by a
// generative-text model.
package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tree of JSON values as read from model output. It sits between raw
// text and the typed Course so that validation runs before typed construction.
type Value struct {
	kind  Kind
	b     bool
	num   json.Number
	str   string
	items []Value
	keys  []string // object keys in first-seen order
	obj   map[string]Value
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsObject reports whether v is a JSON object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsArray reports whether v is a JSON array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// Text returns the string held by v.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Int returns the integral value of a number. Numbers written with a fractional
// zero such as 30.0 are accepted.
func (v Value) Int() (int, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := v.num.Int64(); err == nil {
		return int(i), true
	}
	f, err := v.num.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int(f), true
}

// Items returns the elements of an array.
func (v Value) Items() []Value { return v.items }

// Len returns the number of array elements or object keys.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Field looks up key in an object.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Keys returns object keys in the order they first appeared.
func (v Value) Keys() []string { return v.keys }

// Interface converts v to the generic form produced by encoding/json with
// UseNumber: map[string]any, []any, json.Number, string, bool or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.obj[k].Interface()
		}
		return out
	default:
		return nil
	}
}

func (v *Value) set(key string, val Value) {
	if _, exists := v.obj[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = val
}

// decodeStrict reads exactly one JSON value from s. Anything but whitespace after
// the value is an error.
func decodeStrict(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	v, err := readValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, errors.New("unexpected data after top-level value")
		}
		return Value{}, err
	}
	return v, nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return Value{kind: KindString, str: t}, nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case bool:
		return Value{kind: KindBool, b: t}, nil
	case nil:
		return Value{kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func readObject(dec *json.Decoder) (Value, error) {
	v := Value{kind: KindObject, obj: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := readValue(dec)
		if err != nil {
			return Value{}, err
		}
		v.set(key, val)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func readArray(dec *json.Decoder) (Value, error) {
	v := Value{kind: KindArray, items: []Value{}}
	for dec.More() {
		item, err := readValue(dec)
		if err != nil {
			return Value{}, err
		}
		v.items = append(v.items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}
