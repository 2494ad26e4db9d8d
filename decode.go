package sjson

import (
	"fmt"
	"iter"
	"strconv"
)

// ValueKind classifies the shape of the next value in the decode stream,
// as reported by Decoder.Peek: an object or array collapses to VObject/
// VArray, and a scalar collapses to VString/VInt/VFloat/VBool/VNull.
type ValueKind int

const (
	VObject ValueKind = iota
	VArray
	VString
	VInt
	VFloat
	VBool
	VNull
)

func (k ValueKind) String() string {
	switch k {
	case VObject:
		return "object"
	case VArray:
		return "array"
	case VString:
		return "string"
	case VInt:
		return "integer"
	case VFloat:
		return "float"
	case VBool:
		return "boolean"
	case VNull:
		return "null"
	default:
		return "unknown"
	}
}

// DecodeOptions configures a Decoder, constructed through functional
// DecodeOption values passed to NewDecoder. There is no package-level
// configuration state; every option lives on the Decoder it was
// constructed with.
type DecodeOptions struct {
	AllowUnknownFields bool
	AllowDuplicateKeys bool
	Variants           []*VariantRegistry
}

// DecodeOption mutates a DecodeOptions value at Decoder construction.
type DecodeOption func(*DecodeOptions)

// WithAllowUnknownFields makes struct decoding skip object keys that the
// target record does not declare, instead of raising UnknownField.
func WithAllowUnknownFields(allow bool) DecodeOption {
	return func(o *DecodeOptions) { o.AllowUnknownFields = allow }
}

// WithAllowDuplicateKeys opts the whole document into multimap
// semantics: a key repeated in the same object is passed to the
// materializer every time it occurs instead of raising DuplicateField.
// A record field typed as a sequence already tolerates repeats
// regardless of this option, since a sequence is itself a multimap
// target; this option widens that tolerance to every field.
func WithAllowDuplicateKeys(allow bool) DecodeOption {
	return func(o *DecodeOptions) { o.AllowDuplicateKeys = allow }
}

// WithVariant registers a VariantRegistry so struct fields typed as its
// interface can be destructured as tagged variants.
func WithVariant(reg *VariantRegistry) DecodeOption {
	return func(o *DecodeOptions) { o.Variants = append(o.Variants, reg) }
}

// Decoder is a pull-style cursor over an SJSON document. A generic
// materializer calls its destructure-shaped methods (Bool, Int64,
// Float64, String, Null, Option, Array, Record, Any) in whatever order
// its target type demands; the Decoder validates that the next grammar
// production matches and reports a structured *Error otherwise.
//
// A Decoder is created from an input slice, driven once, and discarded;
// it keeps no state across documents.
type Decoder struct {
	data    []byte
	pull    func() (token, error, bool)
	stop    func()
	opts    DecodeOptions
	havePeek bool
	peeked   token
	peekErr  error
	offset   int
	path     []string
	rootEntered bool
}

// NewDecoder creates a Decoder over data. The caller should call Close
// once finished, though it is safe to let a fully-drained Decoder be
// garbage collected without calling it.
func NewDecoder(data []byte, opts ...DecodeOption) *Decoder {
	o := DecodeOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	pull, stop := iter.Pull2(tokens(data))
	return &Decoder{data: data, pull: pull, stop: stop, opts: o}
}

// Close releases the underlying token iterator. Safe to call more than
// once.
func (d *Decoder) Close() {
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
}

func isEOFErr(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindUnexpectedEOF
}

func (d *Decoder) peek() (token, error) {
	if d.havePeek {
		return d.peeked, d.peekErr
	}
	tok, err, ok := d.pull()
	d.havePeek = true
	if !ok {
		d.peekErr = newEOFError(d.data)
		return token{}, d.peekErr
	}
	if err != nil {
		if serr, ok := err.(*Error); ok {
			d.peekErr = serr
		} else {
			d.peekErr = newSyntaxError(d.data, d.offset, "%v", err)
		}
		return token{}, d.peekErr
	}
	d.peeked = tok
	d.peekErr = nil
	d.offset = tok.offset
	return tok, nil
}

func (d *Decoder) advance() (token, error) {
	tok, err := d.peek()
	if err != nil {
		return token{}, err
	}
	d.havePeek = false
	return tok, nil
}

func (d *Decoder) skipSeparators() error {
	for {
		tok, err := d.peek()
		if err != nil {
			if isEOFErr(err) {
				return nil
			}
			return err
		}
		if tok.isPunct(',') {
			d.advance()
			continue
		}
		return nil
	}
}

// reservedLiteral reports whether raw is one of the three reserved
// bare-word literals that are never plain identifiers in value position,
// and if so whether it is null and, for true/false, its boolean value.
func reservedLiteral(raw []byte) (value bool, isNull bool, isReserved bool) {
	switch string(raw) {
	case "true":
		return true, false, true
	case "false":
		return false, false, true
	case "null":
		return false, true, true
	default:
		return false, false, false
	}
}

// Peek reports the shape of the next value without consuming it.
func (d *Decoder) Peek() (ValueKind, error) {
	tok, err := d.peek()
	if err != nil {
		return 0, err
	}
	switch {
	case tok.isPunct('{'):
		return VObject, nil
	case tok.isPunct('['):
		return VArray, nil
	case tok.isQuoted():
		return VString, nil
	}
	if numStartChar(d.data, tok.offset) {
		return d.numberKind(tok)
	}
	if _, isNull, isReserved := reservedLiteral(tok.raw); isReserved {
		if isNull {
			return VNull, nil
		}
		return VBool, nil
	}
	return VString, nil
}

func (d *Decoder) numberKind(tok token) (ValueKind, error) {
	n, err := decodeNumber(tok.raw, tok.offset)
	if err != nil {
		return 0, err
	}
	if n.IsInt {
		return VInt, nil
	}
	return VFloat, nil
}

// Null consumes the next value, which must be the literal null.
func (d *Decoder) Null() error {
	tok, err := d.advance()
	if err != nil {
		return err
	}
	if _, isNull, isReserved := reservedLiteral(tok.raw); isReserved && isNull {
		return nil
	}
	return d.typeErrorAt(tok, "expected null")
}

// Bool consumes the next value, which must be the literal true or false.
func (d *Decoder) Bool() (bool, error) {
	tok, err := d.advance()
	if err != nil {
		return false, err
	}
	if v, isNull, isReserved := reservedLiteral(tok.raw); isReserved && !isNull {
		return v, nil
	}
	return false, d.typeErrorAt(tok, "expected boolean")
}

// Int64 consumes the next value, which must be an integer token. A float
// token is never coerced into an integer target.
func (d *Decoder) Int64() (int64, error) {
	tok, err := d.advance()
	if err != nil {
		return 0, err
	}
	if !numStartChar(d.data, tok.offset) {
		return 0, d.typeErrorAt(tok, "expected integer")
	}
	n, nerr := decodeNumber(tok.raw, tok.offset)
	if nerr != nil {
		return 0, nerr
	}
	if !n.IsInt {
		return 0, d.typeErrorAt(tok, "expected integer, found float")
	}
	return n.Int, nil
}

// Float64 consumes the next value, which must be a number token. An
// integer token is widened to float64 with precision loss tolerated.
func (d *Decoder) Float64() (float64, error) {
	tok, err := d.advance()
	if err != nil {
		return 0, err
	}
	if !numStartChar(d.data, tok.offset) {
		return 0, d.typeErrorAt(tok, "expected number")
	}
	n, nerr := decodeNumber(tok.raw, tok.offset)
	if nerr != nil {
		return 0, nerr
	}
	if n.IsInt {
		return float64(n.Int), nil
	}
	return n.Float, nil
}

// String consumes the next value as a string. Unlike Bool/Null, a bare
// identifier matching true/false/null is accepted here and returned as
// the literal text "true"/"false"/"null": the target is explicitly
// asking for a string, so the reserved-word special case does not apply.
func (d *Decoder) String() (string, error) {
	tok, err := d.advance()
	if err != nil {
		return "", err
	}
	if tok.isQuoted() {
		return decodeString(tok.raw, tok.offset)
	}
	if numStartChar(d.data, tok.offset) {
		return "", d.typeErrorAt(tok, "expected string, found number")
	}
	if tok.isPunct('{') || tok.isPunct('[') {
		return "", d.typeErrorAt(tok, "expected string")
	}
	return string(tok.raw), nil
}

// Option implements the pull-style optional-value read: if the next
// value is the literal null, it is consumed and Option returns
// present=false; otherwise nothing is consumed and the caller proceeds
// to decode the present value with the appropriate type-directed
// method.
func (d *Decoder) Option() (present bool, err error) {
	tok, err := d.peek()
	if err != nil {
		return false, err
	}
	if _, isNull, isReserved := reservedLiteral(tok.raw); isReserved && isNull {
		d.advance()
		return false, nil
	}
	return true, nil
}

// Array drives the Array grammar production: it consumes the opening
// '[', calls visit once per element (with the source offset positioned
// at that element so visit can recurse with a type-directed method),
// and consumes the closing ']'. Separators (comma and/or whitespace) are
// handled transparently, including trailing separators.
func (d *Decoder) Array(visit func(index int) error) error {
	tok, err := d.advance()
	if err != nil {
		return err
	}
	if !tok.isPunct('[') {
		return d.typeErrorAt(tok, "expected array")
	}
	for index := 0; ; index++ {
		if err := d.skipSeparators(); err != nil {
			return err
		}
		next, err := d.peek()
		if err != nil {
			return err
		}
		if next.isPunct(']') {
			d.advance()
			return nil
		}
		d.path = append(d.path, strconv.Itoa(index))
		verr := visit(index)
		d.path = d.path[:len(d.path)-1]
		if verr != nil {
			return verr
		}
	}
}

// Record drives the object/key-value-list grammar production. The first
// call on a freshly constructed Decoder is positioned at the implicit
// document root and does not expect surrounding braces; every
// subsequent call expects to consume a '{'...'}' pair. visit is called
// once per key with the decoded key text and whether
// that exact key text has been seen before in this object; visit is
// responsible for deciding what a repeat means for the field it maps to
// (append into a sequence, or raise DuplicateField) and for decoding the
// key's value with a type-directed method before returning.
func (d *Decoder) Record(visit func(key string, repeated bool) error) error {
	atRoot := !d.rootEntered
	d.rootEntered = true
	if !atRoot {
		tok, err := d.advance()
		if err != nil {
			return err
		}
		if !tok.isPunct('{') {
			return d.typeErrorAt(tok, "expected object")
		}
	}
	seen := map[string]bool{}
	for {
		if err := d.skipSeparators(); err != nil {
			return err
		}
		tok, err := d.peek()
		if err != nil {
			if atRoot && isEOFErr(err) {
				return nil
			}
			return err
		}
		if tok.isPunct('}') {
			if atRoot {
				return d.typeErrorAt(tok, "unexpected '}' at document root")
			}
			d.advance()
			return nil
		}
		d.advance()
		key, kerr := d.decodeKey(tok)
		if kerr != nil {
			return kerr
		}
		sep, err := d.advance()
		if err != nil {
			return err
		}
		if !sep.isPunct('=') && !sep.isPunct(':') {
			return d.typeErrorAt(sep, "expected '=' or ':' after key %q", key)
		}
		repeated := seen[key]
		seen[key] = true
		d.path = append(d.path, key)
		verr := visit(key, repeated)
		d.path = d.path[:len(d.path)-1]
		if verr != nil {
			return verr
		}
	}
}

func (d *Decoder) decodeKey(tok token) (string, error) {
	if tok.isQuoted() {
		return decodeString(tok.raw, tok.offset)
	}
	if numStartChar(d.data, tok.offset) {
		return "", d.typeErrorAt(tok, "expected key, found number")
	}
	if tok.isPunct('{') || tok.isPunct('[') {
		return "", d.typeErrorAt(tok, "expected key")
	}
	return string(tok.raw), nil
}

// Any infers a shape from the next token and recursively decodes into
// untyped Go values (nil, bool, int64, float64, string, []any,
// map[string]any). At the implicit document root (no container entered
// yet) the whole document is decoded as an object. Duplicate keys within
// an object coalesce into a []any the same way repeated keys do for a
// sequence-typed struct field -- Any always tolerates repeats, since an
// untyped map is itself a multimap target.
func (d *Decoder) Any() (any, error) {
	kind := VObject
	if d.rootEntered || len(d.path) > 0 {
		var err error
		kind, err = d.Peek()
		if err != nil {
			return nil, err
		}
	}
	switch kind {
	case VNull:
		return nil, d.Null()
	case VBool:
		return d.Bool()
	case VInt:
		return d.Int64()
	case VFloat:
		return d.Float64()
	case VString:
		return d.String()
	case VArray:
		var out []any
		err := d.Array(func(int) error {
			v, err := d.Any()
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		return out, err
	case VObject:
		out := map[string]any{}
		err := d.Record(func(key string, repeated bool) error {
			v, err := d.Any()
			if err != nil {
				return err
			}
			out[key] = appendAny(out[key], v)
			return nil
		})
		return out, err
	default:
		return nil, d.typeError("unrecognized value shape")
	}
}

func appendAny(prev any, next any) any {
	if prev == nil {
		return next
	}
	if list, ok := prev.([]any); ok {
		return append(list, next)
	}
	return []any{prev, next}
}

func (d *Decoder) typeErrorAt(tok token, reason string, args ...any) *Error {
	line, col := lineCol(d.data, tok.offset)
	return &Error{
		Kind:   KindInvalidType,
		Reason: fmt.Sprintf(reason, args...),
		Offset: tok.offset,
		Line:   line,
		Col:    col,
		Path:   append([]string(nil), d.path...),
	}
}
