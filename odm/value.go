package odm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind describes which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMapping
	KindIdentity
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	case KindIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the types a document field can hold: null,
// string, number, boolean, ordered list, nested mapping, or identity.
// The zero Value is null. Values are built with the XxxValue constructors and
// inspected through Kind and the typed accessors.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	list    []Value
	mapping Fields
	id      ID
}

// NullValue returns the null Value. It equals the zero Value.
func NullValue() Value {
	return Value{kind: KindNull}
}

// StringValue returns a Value holding the given string.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue returns a Value holding the given number. Documents carry all
// numbers as float64, matching their JSON representation.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// BoolValue returns a Value holding the given boolean.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// ListValue returns a Value holding the given items as an ordered list.
func ListValue(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// MappingValue returns a Value holding the given fields as a nested mapping,
// field order preserved.
func MappingValue(fields ...Field) Value {
	return Value{kind: KindMapping, mapping: fields}
}

// IdentityValue returns a Value holding a document identity. It is mainly
// used in filters under the IdentityField key.
func IdentityValue(id ID) Value {
	return Value{kind: KindIdentity, id: id}
}

// Kind returns the variant this Value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether this is the null Value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// String returns the held string for a string Value. For every other kind it
// returns a formatted representation and never panics, so Values can be
// printed directly.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindMapping:
		parts := make([]string, 0, len(v.mapping))
		for _, field := range v.mapping {
			parts = append(parts, field.Key+":"+field.Value.String())
		}
		return "{" + strings.Join(parts, " ") + "}"
	case KindIdentity:
		return string(v.id)
	default:
		return "unknown"
	}
}

// Number returns the held number. It panics if the kind is not KindNumber.
func (v Value) Number() float64 {
	v.mustBe(KindNumber)
	return v.num
}

// Bool returns the held boolean. It panics if the kind is not KindBool.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.boolean
}

// List returns the held items. It panics if the kind is not KindList.
// The returned slice is shared with the Value and must not be modified.
func (v Value) List() []Value {
	v.mustBe(KindList)
	return v.list
}

// Mapping returns the held fields. It panics if the kind is not KindMapping.
// The returned fields are shared with the Value and must not be modified.
func (v Value) Mapping() Fields {
	v.mustBe(KindMapping)
	return v.mapping
}

// Identity returns the held identity. It panics if the kind is not
// KindIdentity.
func (v Value) Identity() ID {
	v.mustBe(KindIdentity)
	return v.id
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("odm: Value kind is %s, not %s", v.kind, k))
	}
}

// Equal reports whether two Values hold the same kind and content. Lists
// compare element-wise, mappings compare field-wise in order.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == w.str
	case KindNumber:
		return v.num == w.num
	case KindBool:
		return v.boolean == w.boolean
	case KindList:
		if len(v.list) != len(w.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(w.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.mapping) != len(w.mapping) {
			return false
		}
		for i := range v.mapping {
			if v.mapping[i].Key != w.mapping[i].Key {
				return false
			}
			if !v.mapping[i].Value.Equal(w.mapping[i].Value) {
				return false
			}
		}
		return true
	case KindIdentity:
		return v.id == w.id
	default:
		return false
	}
}

func cloneValue(v Value) Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = cloneValue(item)
		}
		return Value{kind: KindList, list: items}
	case KindMapping:
		return Value{kind: KindMapping, mapping: v.mapping.Clone()}
	default:
		return v
	}
}
