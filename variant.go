package sjson

import (
	"fmt"
	"reflect"
)

// VariantRegistry binds an interface type to a set of (tag, concrete
// type) pairs, letting reflection stand in for a tagged sum when the
// target shape is an interface. A unit variant (no payload) round-trips
// as a bare identifier; a data variant round-trips as a single-key
// object.
type VariantRegistry struct {
	iface  reflect.Type
	byTag  map[string]reflect.Type
	byType map[reflect.Type]string
	byPtr  map[reflect.Type]bool
}

// NewVariantRegistry creates a VariantRegistry for interface type T.
func NewVariantRegistry[T any]() *VariantRegistry {
	return &VariantRegistry{
		iface:  reflect.TypeFor[T](),
		byTag:  map[string]reflect.Type{},
		byType: map[reflect.Type]string{},
		byPtr:  map[reflect.Type]bool{},
	}
}

// Register associates tag with the concrete type of exemplar (a zero
// value or nil pointer of that type, e.g. Circle{} or (*Square)(nil)).
// Whether exemplar was given by value or by pointer decides whether a
// decoded instance is stored in the interface field as T or *T. It
// returns the registry so calls can be chained.
func (r *VariantRegistry) Register(tag string, exemplar any) *VariantRegistry {
	t := reflect.TypeOf(exemplar)
	byPtr := t.Kind() == reflect.Pointer
	if byPtr {
		t = t.Elem()
	}
	r.byTag[tag] = t
	r.byType[t] = tag
	r.byPtr[t] = byPtr
	return r
}

func registryFor(regs []*VariantRegistry, iface reflect.Type) *VariantRegistry {
	for _, r := range regs {
		if r.iface == iface {
			return r
		}
	}
	return nil
}

// decodeVariant destructures the next value as a tagged variant and
// stores the result into dst, which must be settable and of the
// registry's interface type.
func decodeVariant(d *Decoder, dst reflect.Value, reg *VariantRegistry, ctx *decodeCtx) error {
	kind, err := d.Peek()
	if err != nil {
		return err
	}
	if kind == VObject {
		matched := false
		keyCount := 0
		err := d.Record(func(key string, repeated bool) error {
			keyCount++
			if keyCount > 1 {
				return d.fieldError(KindInvalidType, "tagged variant object must have exactly one key, found a second %q", key)
			}
			typ, ok := reg.byTag[key]
			if !ok {
				return d.fieldError(KindUnknownField, "unknown variant tag %q", key)
			}
			matched = true
			return setVariant(d, dst, typ, reg, ctx)
		})
		if err != nil {
			return err
		}
		if !matched {
			return d.typeError("empty object cannot be destructured as a tagged variant")
		}
		return nil
	}
	tok, err := d.advance()
	if err != nil {
		return err
	}
	if tok.isQuoted() || numStartChar(d.data, tok.offset) {
		return d.typeErrorAt(tok, "expected a unit variant tag or a single-key object")
	}
	typ, ok := reg.byTag[string(tok.raw)]
	if !ok {
		return d.fieldError(KindUnknownField, "unknown variant tag %q", tok.raw)
	}
	return setVariantZero(dst, typ, reg)
}

func setVariant(d *Decoder, dst reflect.Value, typ reflect.Type, reg *VariantRegistry, ctx *decodeCtx) error {
	ptr := reflect.New(typ)
	if err := decodeValue(d, ptr.Elem(), ctx); err != nil {
		return err
	}
	return assignVariant(dst, ptr, typ, reg)
}

func setVariantZero(dst reflect.Value, typ reflect.Type, reg *VariantRegistry) error {
	ptr := reflect.New(typ)
	return assignVariant(dst, ptr, typ, reg)
}

// assignVariant stores the decoded instance into dst as T or *T,
// following how its tag was registered with Register, falling back to
// whichever form actually implements the interface if that preferred
// form doesn't (e.g. a pointer-receiver method set on a value exemplar).
func assignVariant(dst reflect.Value, ptr reflect.Value, typ reflect.Type, reg *VariantRegistry) error {
	wantPtr := reg.byPtr[typ]
	if !wantPtr && ptr.Elem().Type().Implements(dst.Type()) {
		dst.Set(ptr.Elem())
		return nil
	}
	if ptr.Type().Implements(dst.Type()) {
		dst.Set(ptr)
		return nil
	}
	if ptr.Elem().Type().Implements(dst.Type()) {
		dst.Set(ptr.Elem())
		return nil
	}
	return fmt.Errorf("variant type %s implements neither value nor pointer form of %s", typ, dst.Type())
}

// encodeVariant pushes the concrete value held in an interface-typed
// value as a tagged variant.
func encodeVariant(e *Encoder, v reflect.Value, reg *VariantRegistry, ctx *encodeCtx) error {
	if v.IsNil() {
		return e.WriteNull()
	}
	concrete := v.Elem()
	typ := concrete.Type()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		concrete = concrete.Elem()
	}
	tag, ok := reg.byType[typ]
	if !ok {
		return fmt.Errorf("sjson: type %s is not registered in its variant registry", typ)
	}
	if typ.Kind() == reflect.Struct && typ.NumField() == 0 {
		return e.WriteIdentifier(tag)
	}
	if err := e.BeginRecord(); err != nil {
		return err
	}
	if err := e.Field(tag); err != nil {
		return err
	}
	if err := encodeValue(e, concrete, ctx); err != nil {
		return err
	}
	return e.EndRecord()
}
