package sjson

import (
	"bytes"
	"reflect"
	"unicode/utf8"
)

// Unmarshal parses an SJSON document and destructures it into v, which
// must be a non-nil pointer. The host's structural reflection facility
// here is Go's own reflect package: struct fields are matched by name
// (overridable with an `sjson:"name"` tag), sequences bind to slices and
// arrays, optionals to pointers, and tagged variants to interface fields
// registered via WithVariant.
func Unmarshal(data []byte, v any, opts ...DecodeOption) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Kind: KindInvalidType, Reason: "Unmarshal target must be a non-nil pointer"}
	}
	d := NewDecoder(data, opts...)
	defer d.Close()
	ctx := &decodeCtx{opts: d.opts, variants: d.opts.Variants}
	return decodeValue(d, rv.Elem(), ctx)
}

// FromBytes is an alias for Unmarshal, for callers that prefer that
// spelling.
func FromBytes(data []byte, v any, opts ...DecodeOption) error {
	return Unmarshal(data, v, opts...)
}

// FromStr parses text, which must be valid UTF-8, the same way
// Unmarshal parses a byte slice.
func FromStr(text string, v any, opts ...DecodeOption) error {
	if !utf8.ValidString(text) {
		return &Error{Kind: KindInvalidValue, Reason: "input is not valid UTF-8"}
	}
	return Unmarshal([]byte(text), v, opts...)
}

// Marshal serializes v, which must support the host's structural
// reflection facility the same way Unmarshal's target does, into SJSON
// text.
func Marshal(v any, opts ...EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := MarshalTo(&buf, v, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToString is Marshal with a string result.
func ToString(v any, opts ...EncodeOption) (string, error) {
	b, err := Marshal(v, opts...)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalTo serializes v to w. This is the streaming entry point;
// Marshal/ToString are conveniences over an internal buffer.
func MarshalTo(w writer, v any, opts ...EncodeOption) error {
	e := NewEncoder(w, opts...)
	o := e.opts
	ctx := &encodeCtx{opts: o, variants: o.Variants}
	rv := reflect.ValueOf(v)
	if err := encodeValue(e, rv, ctx); err != nil {
		if serr, ok := err.(*Error); ok {
			return serr
		}
		return &Error{Kind: KindCustom, Reason: "marshal failed", Err: err}
	}
	return e.Err()
}

// ToWriter is an alias for MarshalTo, for callers that prefer that
// spelling.
func ToWriter(w writer, v any, opts ...EncodeOption) error {
	return MarshalTo(w, v, opts...)
}

// writer is the minimal byte sink MarshalTo requires: anything
// implementing io.Writer. It is declared locally so the public API does
// not need to import io just to spell the parameter type.
type writer interface {
	Write(p []byte) (n int, err error)
}
