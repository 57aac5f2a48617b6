// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"github.com/pkg/errors"
)

// AttributeI32 is a named 32-bit integer vertex attribute.
type AttributeI32 struct {
	Name  string `json:"name"`
	Value int32  `json:"value"`
}

// AttributeF32 is a named 32-bit float vertex attribute.
type AttributeF32 struct {
	Name  string  `json:"name"`
	Value float32 `json:"value"`
}

// AttrKind tags which of the two attribute value types an AttrValue holds.
type AttrKind uint8

const (
	// AttrI32 tags an int32-valued attribute.
	AttrI32 AttrKind = iota
	// AttrF32 tags a float32-valued attribute.
	AttrF32
)

// AttrValue is a statically tagged attribute value: either int32 or float32.
// Use I32 or F32 to build one.
type AttrValue struct {
	kind AttrKind
	i32  int32
	f32  float32
}

// I32 returns an int32-valued attribute value.
func I32(value int32) AttrValue { return AttrValue{kind: AttrI32, i32: value} }

// F32 returns a float32-valued attribute value.
func F32(value float32) AttrValue { return AttrValue{kind: AttrF32, f32: value} }

// Kind of the value held.
func (v AttrValue) Kind() AttrKind { return v.kind }

// Int32 returns the int32 value; only meaningful when Kind() == AttrI32.
func (v AttrValue) Int32() int32 { return v.i32 }

// Float32 returns the float32 value; only meaningful when Kind() == AttrF32.
func (v AttrValue) Float32() float32 { return v.f32 }

// Attr is one named attribute handed to a dispatch or a translation rule.
type Attr struct {
	Name  string
	Value AttrValue
}

// IntAttr is shorthand for an int32-valued Attr.
func IntAttr(name string, value int32) Attr { return Attr{Name: name, Value: I32(value)} }

// FloatAttr is shorthand for a float32-valued Attr.
func FloatAttr(name string, value float32) Attr { return Attr{Name: name, Value: F32(value)} }

// Attributes is an ordered list of attributes. Order matters: vertex naming
// schemes may embed attribute values positionally.
type Attributes []Attr

// Get returns the value of the attribute with the given name.
func (attrs Attributes) Get(name string) (AttrValue, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return AttrValue{}, false
}

// Split buckets the attributes into the equation's two typed lists,
// preserving the original relative order within each list.
func (attrs Attributes) Split() (i32 []AttributeI32, f32 []AttributeF32) {
	for _, attr := range attrs {
		switch attr.Value.Kind() {
		case AttrI32:
			i32 = append(i32, AttributeI32{Name: attr.Name, Value: attr.Value.Int32()})
		case AttrF32:
			f32 = append(f32, AttributeF32{Name: attr.Name, Value: attr.Value.Float32()})
		}
	}
	return
}

// Validate returns an error on unnamed attributes or repeated names.
func (attrs Attributes) Validate() error {
	seen := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		if attr.Name == "" {
			return errors.New("attribute with empty name")
		}
		if _, found := seen[attr.Name]; found {
			return errors.Errorf("attribute %q repeated", attr.Name)
		}
		seen[attr.Name] = struct{}{}
	}
	return nil
}
