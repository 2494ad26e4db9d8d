package sjson

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// decodeCtx bundles the per-call configuration threaded through the
// recursive reflect-based materializer. It is constructed fresh for
// every Unmarshal call and never shared across documents.
type decodeCtx struct {
	opts     DecodeOptions
	variants []*VariantRegistry
}

type encodeCtx struct {
	opts     EncodeOptions
	variants []*VariantRegistry
}

type fieldInfo struct {
	index     int
	name      string
	omitEmpty bool
	optional  bool
}

// parseFieldTag reads the `sjson:"..."` struct tag, following the
// name[,option,...] grammar `encoding/json` popularized. A name of "-"
// means the field is never encoded or decoded.
func parseFieldTag(f reflect.StructField) (name string, omitEmpty, optional, ignore bool) {
	tag, ok := f.Tag.Lookup("sjson")
	if !ok {
		return f.Name, false, false, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" {
		return "", false, false, true
	}
	if name == "" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty":
			omitEmpty = true
		case "optional":
			optional = true
		}
	}
	return name, omitEmpty, optional, false
}

// structFields returns the exported fields of t that are not tagged "-",
// in declaration order and keyed by their SJSON name.
func structFields(t reflect.Type) (map[string]fieldInfo, []fieldInfo) {
	byName := map[string]fieldInfo{}
	var ordered []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty, optional, ignore := parseFieldTag(f)
		if ignore {
			continue
		}
		info := fieldInfo{index: i, name: name, omitEmpty: omitEmpty, optional: optional}
		byName[name] = info
		ordered = append(ordered, info)
	}
	return byName, ordered
}

func isOptionalKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

// decodeValue is the generic materializer over v's target shape: it
// inspects v's reflect.Type and pulls exactly the events the shape
// demands from d.
func decodeValue(d *Decoder, v reflect.Value, ctx *decodeCtx) error {
	if v.Kind() == reflect.Pointer {
		present, err := d.Option()
		if err != nil {
			return err
		}
		if !present {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(d, v.Elem(), ctx)
	}

	if v.Kind() == reflect.Interface {
		if reg := registryFor(ctx.variants, v.Type()); reg != nil {
			return decodeVariant(d, v, reg, ctx)
		}
		if v.NumMethod() == 0 {
			any, err := d.Any()
			if err != nil {
				return err
			}
			if any == nil {
				v.Set(reflect.Zero(v.Type()))
			} else {
				v.Set(reflect.ValueOf(any))
			}
			return nil
		}
		return d.typeError("no variant registry bound for interface type %s", v.Type())
	}

	kind, err := d.Peek()
	if err != nil && !(isEOFErr(err) && !d.rootEntered) {
		// An empty document is still a valid (empty) root record, so
		// end of input at the root is left for Record to handle.
		return err
	}
	if err == nil && kind == VString && v.CanAddr() {
		if tu, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
			s, err := d.String()
			if err != nil {
				return err
			}
			if err := tu.UnmarshalText([]byte(s)); err != nil {
				return &Error{Kind: KindCustom, Reason: "UnmarshalText failed", Err: err, Offset: d.offset}
			}
			return nil
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := d.Bool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil

	case reflect.String:
		s, err := d.String()
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.Int64()
		if err != nil {
			return err
		}
		min, max, _ := intLimits(v.Kind())
		if n < min || (max < math.MaxInt64 && n > int64(max)) {
			return d.valueError("integer %d out of range for %s", n, v.Kind())
		}
		v.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := d.Int64()
		if err != nil {
			return err
		}
		if n < 0 {
			return d.valueError("integer %d out of range for %s", n, v.Kind())
		}
		_, max, _ := intLimits(v.Kind())
		if uint64(n) > max {
			return d.valueError("integer %d out of range for %s", n, v.Kind())
		}
		v.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := d.Float64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			s, err := d.String()
			if err != nil {
				return err
			}
			raw, berr := base64.StdEncoding.DecodeString(s)
			if berr != nil {
				return d.valueError("invalid base64 in byte-slice field: %v", berr)
			}
			v.SetBytes(raw)
			return nil
		}
		v.Set(reflect.MakeSlice(v.Type(), 0, 0))
		return d.Array(func(int) error {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := decodeValue(d, elem, ctx); err != nil {
				return err
			}
			v.Set(reflect.Append(v, elem))
			return nil
		})

	case reflect.Array:
		i := 0
		err := d.Array(func(int) error {
			if i >= v.Len() {
				return d.valueError("array has more than %d elements", v.Len())
			}
			if err := decodeValue(d, v.Index(i), ctx); err != nil {
				return err
			}
			i++
			return nil
		})
		return err

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return d.typeError("map field must have a string key type, got %s", v.Type())
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
		elemType := v.Type().Elem()
		return d.Record(func(key string, repeated bool) error {
			if repeated && !ctx.opts.AllowDuplicateKeys && elemType.Kind() != reflect.Slice {
				return d.fieldError(KindDuplicateField, "duplicate key %q", key)
			}
			elem := reflect.New(elemType).Elem()
			if err := decodeValue(d, elem, ctx); err != nil {
				return err
			}
			v.SetMapIndex(reflect.ValueOf(key), elem)
			return nil
		})

	case reflect.Struct:
		return decodeStruct(d, v, ctx)

	default:
		return d.typeError("unsupported target type %s", v.Type())
	}
}

func decodeStruct(d *Decoder, v reflect.Value, ctx *decodeCtx) error {
	byName, ordered := structFields(v.Type())
	seen := make(map[string]bool, len(ordered))
	err := d.Record(func(key string, repeated bool) error {
		info, ok := byName[key]
		if !ok {
			if ctx.opts.AllowUnknownFields {
				_, err := d.Any()
				return err
			}
			return d.fieldError(KindUnknownField, "unknown field %q", key)
		}
		fv := v.Field(info.index)
		if repeated && fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() != reflect.Uint8 {
			seen[key] = true
			return appendRepeated(d, fv, ctx)
		}
		if repeated && !ctx.opts.AllowDuplicateKeys {
			return d.fieldError(KindDuplicateField, "duplicate field %q", key)
		}
		seen[key] = true
		return decodeValue(d, fv, ctx)
	})
	if err != nil {
		return err
	}
	for _, info := range ordered {
		if seen[info.name] {
			continue
		}
		fv := v.Field(info.index)
		if info.optional || isOptionalKind(fv.Kind()) {
			continue
		}
		return d.fieldError(KindMissingField, "missing required field %q", info.name)
	}
	return nil
}

// appendRepeated decodes the value of a repeated key into one or more
// new elements of a sequence-typed field, flattening a nested array into
// individual appends so that both "x = [1,2]" and repeated "x = 3"
// occurrences merge into the same slice.
func appendRepeated(d *Decoder, fv reflect.Value, ctx *decodeCtx) error {
	kind, err := d.Peek()
	if err != nil {
		return err
	}
	if kind == VArray {
		tmp := reflect.MakeSlice(fv.Type(), 0, 0)
		if err := d.Array(func(int) error {
			elem := reflect.New(fv.Type().Elem()).Elem()
			if err := decodeValue(d, elem, ctx); err != nil {
				return err
			}
			tmp = reflect.Append(tmp, elem)
			return nil
		}); err != nil {
			return err
		}
		fv.Set(reflect.AppendSlice(fv, tmp))
		return nil
	}
	elem := reflect.New(fv.Type().Elem()).Elem()
	if err := decodeValue(d, elem, ctx); err != nil {
		return err
	}
	fv.Set(reflect.Append(fv, elem))
	return nil
}

func intLimits(kind reflect.Kind) (min int64, max uint64, ok bool) {
	switch kind {
	case reflect.Int:
		return math.MinInt, math.MaxInt, true
	case reflect.Int8:
		return math.MinInt8, math.MaxInt8, true
	case reflect.Int16:
		return math.MinInt16, math.MaxInt16, true
	case reflect.Int32:
		return math.MinInt32, math.MaxInt32, true
	case reflect.Int64:
		return math.MinInt64, math.MaxInt64, true
	case reflect.Uint:
		return 0, math.MaxUint, true
	case reflect.Uint8:
		return 0, math.MaxUint8, true
	case reflect.Uint16:
		return 0, math.MaxUint16, true
	case reflect.Uint32:
		return 0, math.MaxUint32, true
	case reflect.Uint64:
		return 0, math.MaxUint64, true
	default:
		return 0, 0, false
	}
}

// encodeValue is the generic visitor over v's source shape: it pushes
// exactly the events v's reflect.Type demands onto e.
func encodeValue(e *Encoder, v reflect.Value, ctx *encodeCtx) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return e.WriteNull()
		}
		return encodeValue(e, v.Elem(), ctx)
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return e.WriteNull()
		}
		if reg := registryFor(ctx.variants, v.Type()); reg != nil {
			return encodeVariant(e, v, reg, ctx)
		}
		return encodeValue(e, v.Elem(), ctx)
	}

	if v.CanAddr() {
		if tm, ok := v.Addr().Interface().(encoding.TextMarshaler); ok {
			text, err := tm.MarshalText()
			if err != nil {
				return &Error{Kind: KindCustom, Reason: "MarshalText failed", Err: err}
			}
			return e.WriteString(string(text))
		}
	} else if tm, ok := v.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return &Error{Kind: KindCustom, Reason: "MarshalText failed", Err: err}
		}
		return e.WriteString(string(text))
	}

	switch v.Kind() {
	case reflect.Bool:
		return e.WriteBool(v.Bool())
	case reflect.String:
		return e.WriteString(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.WriteInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.WriteInt(int64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		return e.WriteFloat(v.Float())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return e.WriteString(base64.StdEncoding.EncodeToString(v.Bytes()))
		}
		return encodeSequence(e, v, ctx)
	case reflect.Array:
		return encodeSequence(e, v, ctx)
	case reflect.Map:
		return encodeMap(e, v, ctx)
	case reflect.Struct:
		return encodeStruct(e, v, ctx)
	default:
		return fmt.Errorf("sjson: unsupported source type %s", v.Type())
	}
}

func encodeSequence(e *Encoder, v reflect.Value, ctx *encodeCtx) error {
	if err := e.BeginSequence(); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := e.Element(); err != nil {
			return err
		}
		if err := encodeValue(e, v.Index(i), ctx); err != nil {
			return err
		}
	}
	return e.EndSequence()
}

func encodeMap(e *Encoder, v reflect.Value, ctx *encodeCtx) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("sjson: map source must have a string key type, got %s", v.Type())
	}
	if err := e.BeginRecord(); err != nil {
		return err
	}
	keys := v.MapKeys()
	sortReflectStrings(keys)
	for _, k := range keys {
		if err := e.Field(k.String()); err != nil {
			return err
		}
		if err := encodeValue(e, v.MapIndex(k), ctx); err != nil {
			return err
		}
	}
	return e.EndRecord()
}

func sortReflectStrings(vs []reflect.Value) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j-1].String() > vs[j].String(); j-- {
			vs[j-1], vs[j] = vs[j], vs[j-1]
		}
	}
}

func encodeStruct(e *Encoder, v reflect.Value, ctx *encodeCtx) error {
	_, ordered := structFields(v.Type())
	if err := e.BeginRecord(); err != nil {
		return err
	}
	for _, info := range ordered {
		fv := v.Field(info.index)
		if info.omitEmpty && fv.IsZero() {
			continue
		}
		if err := e.Field(info.name); err != nil {
			return err
		}
		if err := encodeValue(e, fv, ctx); err != nil {
			return err
		}
	}
	return e.EndRecord()
}
