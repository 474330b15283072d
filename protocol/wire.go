// Package protocol holds the hand-authored Steam CM protobuf message
// shapes used by the rest of this module. It does not depend on
// protoc-gen-go's generated reflection machinery (protoreflect descriptors);
// see DESIGN.md for why. Field accessors follow protoc-gen-go's own
// naming convention (GetFoo returning the zero value on a nil receiver or
// nil field) so call sites read the same as generated SteamKit code.
package protocol

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is satisfied by every type in this package.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

func Marshal(m Message) ([]byte, error) { return m.Marshal() }

func Unmarshal(data []byte, m Message) error { return m.Unmarshal(data) }

// fieldSetter consumes one field's value (tag already stripped) and
// returns the number of bytes consumed.
type fieldSetter func(data []byte) (int, error)

func unmarshalFields(data []byte, setters map[protowire.Number]fieldSetter) error {
	for len(data) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(data)
		if tagLen < 0 {
			return fmt.Errorf("protocol: consume tag: %w", protowire.ParseError(tagLen))
		}
		rest := data[tagLen:]

		setter, ok := setters[num]
		if !ok {
			n := protowire.ConsumeFieldValue(num, typ, rest)
			if n < 0 {
				return fmt.Errorf("protocol: skip field %d: %w", num, protowire.ParseError(n))
			}
			data = rest[n:]
			continue
		}

		n, err := setter(rest)
		if err != nil {
			return fmt.Errorf("protocol: field %d: %w", num, err)
		}
		data = rest[n:]
	}
	return nil
}

func setUint32(dst **uint32) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		val := uint32(v)
		*dst = &val
		return n, nil
	}
}

func setUint64(dst **uint64) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = &v
		return n, nil
	}
}

func setInt32(dst **int32) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		val := int32(v)
		*dst = &val
		return n, nil
	}
}

func setBool(dst **bool) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		val := v != 0
		*dst = &val
		return n, nil
	}
}

func setString(dst **string) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		val := string(v)
		*dst = &val
		return n, nil
	}
}

func setBytes(dst *[]byte) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = append([]byte(nil), v...)
		return n, nil
	}
}

func setFloat32(dst **float32) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		val := math.Float32frombits(v)
		*dst = &val
		return n, nil
	}
}

func setMessage(unmarshal func([]byte) error) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if err := unmarshal(v); err != nil {
			return 0, err
		}
		return n, nil
	}
}

// setRepeatedMessage appends a freshly unmarshaled T to *dst every time the
// field recurs, matching protobuf's repeated-submessage wire semantics.
func setRepeatedMessage[T any](dst *[]*T, newElem func() *T, unmarshal func(*T, []byte) error) fieldSetter {
	return func(data []byte) (int, error) {
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		elem := newElem()
		if err := unmarshal(elem, v); err != nil {
			return 0, err
		}
		*dst = append(*dst, elem)
		return n, nil
	}
}

func appendUint32(b []byte, num protowire.Number, v *uint32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}

func appendUint64(b []byte, num protowire.Number, v *uint64) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, *v)
}

func appendInt32(b []byte, num protowire.Number, v *int32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(uint32(*v)))
}

func appendBool(b []byte, num protowire.Number, v *bool) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	x := uint64(0)
	if *v {
		x = 1
	}
	return protowire.AppendVarint(b, x)
}

func appendString(b []byte, num protowire.Number, v *string) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, *v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendFloat32(b []byte, num protowire.Number, v *float32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(*v))
}

func appendMessage(b []byte, num protowire.Number, m Message) ([]byte, error) {
	if m == nil {
		return b, nil
	}
	sub, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub), nil
}

func appendRepeatedMessage[T Message](b []byte, num protowire.Number, items []T) ([]byte, error) {
	for _, it := range items {
		var err error
		b, err = appendMessage(b, num, it)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// helpers for building pointers inline, mirroring protoc-gen-go's proto.Uint32 etc.
func Uint32(v uint32) *uint32    { return &v }
func Uint64(v uint64) *uint64    { return &v }
func Int32(v int32) *int32       { return &v }
func Bool(v bool) *bool          { return &v }
func String(v string) *string    { return &v }
func Float32(v float32) *float32 { return &v }
