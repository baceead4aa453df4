package typejson

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Codec encodes values to tagged JSON and rebuilds them. It owns no state
// beyond its read-only registry.
type Codec struct {
	reg       *Registry
	log       *slog.Logger
	onUnknown func(tag string)
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger used to report unknown type tags.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.log = l }
}

// WithUnknownTagHook is called once for every unknown tag met while decoding.
func WithUnknownTagHook(fn func(tag string)) Option {
	return func(c *Codec) { c.onUnknown = fn }
}

// New creates a codec over reg. A nil registry means only Date is known.
func New(reg *Registry, opts ...Option) *Codec {
	if reg == nil {
		reg = NewRegistry()
	}
	c := &Codec{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the codec's registry.
func (c *Codec) Registry() *Registry {
	return c.reg
}

// Encode serializes v to its tagged JSON text.
func (c *Codec) Encode(v any) (string, error) {
	n, err := c.EncodeNode(v)
	if err != nil {
		return "", err
	}
	return Marshal(n)
}

// EncodeNode converts v to a node tree.
func (c *Codec) EncodeNode(v any) (Node, error) {
	return c.encode(reflect.ValueOf(v), "$")
}

// Copy is a deep, type-preserving clone made by encoding and decoding v.
func Copy[T any](c *Codec, v T) (T, error) {
	text, err := c.Encode(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](c, text)
}

func (c *Codec) encode(v reflect.Value, path string) (Node, error) {
	if !v.IsValid() {
		return Scalar{}, nil
	}
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return Scalar{}, nil
		}
		return c.encode(v.Elem(), path)
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		return Typed{Tag: DateTag, Fields: Map{{Name: dateValueField, Value: Scalar{Value: t.Format(time.RFC3339Nano)}}}}, nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return Scalar{Value: v.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Scalar{Value: v.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Scalar{Value: v.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("typejson: cannot encode %v at %s", f, path)
		}
		return Scalar{Value: f}, nil
	case reflect.String:
		return Scalar{Value: v.String()}, nil
	case reflect.Slice:
		if v.IsNil() {
			return Scalar{}, nil
		}
		return c.encodeArray(v, path)
	case reflect.Array:
		return c.encodeArray(v, path)
	case reflect.Map:
		if v.IsNil() {
			return Scalar{}, nil
		}
		return c.encodeMap(v, path)
	case reflect.Struct:
		fields, err := c.encodeFields(v, path)
		if err != nil {
			return nil, err
		}
		if tag, ok := c.reg.TagOf(v.Type()); ok {
			return Typed{Tag: tag, Fields: fields}, nil
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("typejson: cannot encode %s at %s", v.Type(), path)
	}
}

func (c *Codec) encodeArray(v reflect.Value, path string) (Node, error) {
	arr := make(Array, v.Len())
	for i := range arr {
		n, err := c.encode(v.Index(i), indexPath(path, i))
		if err != nil {
			return nil, err
		}
		arr[i] = n
	}
	return arr, nil
}

func (c *Codec) encodeMap(v reflect.Value, path string) (Node, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKeyString(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("typejson: %w at %s", err, path)
		}
		if key == TypeField {
			return nil, fmt.Errorf("typejson: map key %q is reserved at %s", TypeField, path)
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	fields := make(Map, 0, len(entries))
	for _, e := range entries {
		n, err := c.encode(e.val, fieldPath(path, e.key))
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: e.key, Value: n})
	}
	return fields, nil
}

func (c *Codec) encodeFields(v reflect.Value, path string) (Map, error) {
	typ := v.Type()
	fields := make(Map, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		name, ok := fieldName(typ.Field(i))
		if !ok {
			continue
		}
		if name == TypeField {
			return nil, fmt.Errorf("typejson: field name %q is reserved in %s", TypeField, typ)
		}
		n, err := c.encode(v.Field(i), fieldPath(path, name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: n})
	}
	return fields, nil
}

// fieldName resolves the document name of a struct field from its typejson
// tag, then its json tag, then the Go name. Unexported fields are skipped.
func fieldName(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() {
		return "", false
	}
	tag, ok := sf.Tag.Lookup("typejson")
	if !ok {
		tag = sf.Tag.Get("json")
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return "", false
	case "":
		return sf.Name, true
	default:
		return name, true
	}
}

func mapKeyString(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", fmt.Errorf("unsupported map key type %s", k.Type())
	}
}
