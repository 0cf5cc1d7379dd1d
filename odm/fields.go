package odm

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// jsonCfg keeps full float precision so numbers survive a round trip through
// the store unchanged.
var jsonCfg = jsoniter.ConfigCompatibleWithStandardLibrary

// Field is one key/value pair of a document.
type Field struct {
	Key   string
	Value Value
}

// F is a shorthand constructor for a Field, handy when building filters and
// nested mappings inline.
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// Fields is the ordered field collection of a document. The JSON codec
// preserves insertion order in both directions; an engine whose storage
// normalizes JSON key order (PostgreSQL JSONB does) returns fields in the
// normalized order instead. Paths passed to At and Set may be `.`-separated
// to address fields of nested mappings.
type Fields []Field

// At reads the value at the given path. Unset paths read as null.
func (f Fields) At(path string) Value {
	head, rest, nested := strings.Cut(path, ".")

	for _, field := range f {
		if field.Key != head {
			continue
		}
		if !nested {
			return field.Value
		}
		if field.Value.kind != KindMapping {
			return NullValue()
		}
		return field.Value.mapping.At(rest)
	}

	return NullValue()
}

// Set writes the value at the given path and returns the updated collection.
// A new key is appended, an existing key is replaced in place, and
// intermediate mappings on a nested path are created as needed.
func (f Fields) Set(path string, value Value) Fields {
	head, rest, nested := strings.Cut(path, ".")

	for i, field := range f {
		if field.Key != head {
			continue
		}
		if !nested {
			f[i].Value = value
			return f
		}
		inner := Fields{}
		if field.Value.kind == KindMapping {
			inner = field.Value.mapping
		}
		f[i].Value = Value{kind: KindMapping, mapping: inner.Set(rest, value)}
		return f
	}

	if !nested {
		return append(f, Field{Key: head, Value: value})
	}

	return append(f, Field{Key: head, Value: Value{kind: KindMapping, mapping: Fields{}.Set(rest, value)}})
}

// Clone returns a deep copy sharing no memory with the original.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}

	out := make(Fields, len(f))
	for i, field := range f {
		out[i] = Field{Key: field.Key, Value: cloneValue(field.Value)}
	}

	return out
}

// MarshalJSON encodes the fields as a JSON object in document order.
// Identities encode as plain strings.
func (f Fields) MarshalJSON() ([]byte, error) {
	stream := jsonCfg.BorrowStream(nil)
	defer jsonCfg.ReturnStream(stream)

	writeFields(stream, f)

	if stream.Error != nil {
		return nil, stream.Error
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())

	return out, nil
}

// MarshalJSON encodes a single value as JSON, with the same rules as the
// Fields codec.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := jsonCfg.BorrowStream(nil)
	defer jsonCfg.ReturnStream(stream)

	writeValue(stream, v)

	if stream.Error != nil {
		return nil, stream.Error
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())

	return out, nil
}

// UnmarshalJSON decodes a JSON object into fields, preserving the order of
// its keys. Objects decode as mappings, arrays as lists, and all numbers as
// KindNumber.
func (f *Fields) UnmarshalJSON(data []byte) error {
	iter := jsonCfg.BorrowIterator(data)
	defer jsonCfg.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return fmt.Errorf("expected a JSON object, got %s", nextValueTypeName(iter.WhatIsNext()))
	}

	fields, err := readFields(iter)
	if err != nil {
		return err
	}

	*f = fields

	return nil
}

func writeFields(stream *jsoniter.Stream, f Fields) {
	stream.WriteObjectStart()

	for i, field := range f {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(field.Key)
		writeValue(stream, field.Value)
	}

	stream.WriteObjectEnd()
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.kind {
	case KindNull:
		stream.WriteNil()
	case KindString:
		stream.WriteString(v.str)
	case KindNumber:
		stream.WriteFloat64(v.num)
	case KindBool:
		stream.WriteBool(v.boolean)
	case KindList:
		stream.WriteArrayStart()
		for i, item := range v.list {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case KindMapping:
		writeFields(stream, v.mapping)
	case KindIdentity:
		stream.WriteString(string(v.id))
	default:
		stream.WriteNil()
	}
}

func readFields(iter *jsoniter.Iterator) (Fields, error) {
	fields := Fields{}

	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		value, err := readValue(iter)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: key, Value: value})
	}

	if iter.Error != nil {
		return nil, iter.Error
	}

	return fields, nil
}

func readValue(iter *jsoniter.Iterator) (Value, error) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return NullValue(), nil
	case jsoniter.StringValue:
		return StringValue(iter.ReadString()), nil
	case jsoniter.NumberValue:
		return NumberValue(iter.ReadFloat64()), nil
	case jsoniter.BoolValue:
		return BoolValue(iter.ReadBool()), nil
	case jsoniter.ArrayValue:
		items := []Value{}
		for iter.ReadArray() {
			item, err := readValue(iter)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return ListValue(items...), nil
	case jsoniter.ObjectValue:
		nested, err := readFields(iter)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMapping, mapping: nested}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value of type %s", nextValueTypeName(iter.WhatIsNext()))
	}
}

func nextValueTypeName(t jsoniter.ValueType) string {
	switch t {
	case jsoniter.NilValue:
		return "null"
	case jsoniter.StringValue:
		return "string"
	case jsoniter.NumberValue:
		return "number"
	case jsoniter.BoolValue:
		return "bool"
	case jsoniter.ArrayValue:
		return "array"
	case jsoniter.ObjectValue:
		return "object"
	default:
		return "invalid"
	}
}
