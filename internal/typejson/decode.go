package typejson

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Decode parses text and rebuilds a value of type T.
func Decode[T any](c *Codec, text string) (T, error) {
	var out T
	if err := c.DecodeInto(text, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeInto parses text into the value target points to.
func (c *Codec) DecodeInto(text string, target any) error {
	n, err := Parse(text)
	if err != nil {
		return err
	}
	return c.DecodeNode(n, target)
}

// DecodeNode rebuilds a node tree into the value target points to.
func (c *Codec) DecodeNode(n Node, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("typejson: decode target must be a non-nil pointer")
	}
	return c.decode(n, rv.Elem(), "$")
}

func (c *Codec) decode(n Node, dst reflect.Value, path string) error {
	if s, ok := n.(Scalar); ok && s.Value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		v, err := c.build(n, path)
		if err != nil {
			return err
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(dst.Type()) {
			return malformed(path, "%s does not implement %s", rv.Type(), dst.Type())
		}
		dst.Set(rv)
		return nil
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if rule, ok := c.reg.byType[dst.Type().Elem()]; ok && rule.New != nil {
			elem = rule.New()
		}
		if err := c.decode(n, elem.Elem(), path); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if dst.Type() == timeType {
		t, err := c.decodeDate(n, path)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return c.decodeStruct(n, dst, path)
	case reflect.Slice:
		arr, ok := n.(Array)
		if !ok {
			return malformed(path, "expected array, got %s", describe(n))
		}
		s := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
		for i, item := range arr {
			if err := c.decode(item, s.Index(i), indexPath(path, i)); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	case reflect.Array:
		arr, ok := n.(Array)
		if !ok || len(arr) != dst.Len() {
			return malformed(path, "expected array of %d, got %s", dst.Len(), describe(n))
		}
		for i, item := range arr {
			if err := c.decode(item, dst.Index(i), indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		return c.decodeMap(n, dst, path)
	default:
		return c.decodeScalar(n, dst, path)
	}
}

func (c *Codec) decodeStruct(n Node, dst reflect.Value, path string) error {
	fields, tag, err := c.fields(n, path)
	if err != nil {
		return err
	}
	if rule, ok := c.reg.Lookup(tag); ok && rule.Type != dst.Type() {
		return malformed(path, "type %q cannot be decoded into %s", tag, dst.Type())
	}

	typ := dst.Type()
	for i := 0; i < typ.NumField(); i++ {
		name, ok := fieldName(typ.Field(i))
		if !ok {
			continue
		}
		fn, ok := fields.Get(name)
		if !ok {
			continue
		}
		if err := c.decode(fn, dst.Field(i), fieldPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) decodeMap(n Node, dst reflect.Value, path string) error {
	fields, _, err := c.fields(n, path)
	if err != nil {
		return err
	}
	typ := dst.Type()
	m := reflect.MakeMapWithSize(typ, len(fields))
	for _, f := range fields {
		key := reflect.New(typ.Key()).Elem()
		if err := setMapKey(key, f.Name); err != nil {
			return malformed(fieldPath(path, f.Name), "%v", err)
		}
		val := reflect.New(typ.Elem()).Elem()
		if err := c.decode(f.Value, val, fieldPath(path, f.Name)); err != nil {
			return err
		}
		m.SetMapIndex(key, val)
	}
	dst.Set(m)
	return nil
}

// fields returns the entries of an object node. Unknown tags are reported
// and otherwise ignored.
func (c *Codec) fields(n Node, path string) (Map, string, error) {
	switch n := n.(type) {
	case Map:
		return n, "", nil
	case Typed:
		if _, ok := c.reg.Lookup(n.Tag); !ok {
			c.degrade(n.Tag, path)
		}
		return n.Fields, n.Tag, nil
	default:
		return nil, "", malformed(path, "expected object, got %s", describe(n))
	}
}

func (c *Codec) decodeDate(n Node, path string) (time.Time, error) {
	var raw Node = n
	if typed, ok := n.(Typed); ok {
		if typed.Tag != DateTag {
			return time.Time{}, malformed(path, "expected %q, got %q", DateTag, typed.Tag)
		}
		raw, _ = typed.Fields.Get(dateValueField)
	}
	s, ok := raw.(Scalar)
	if !ok {
		return time.Time{}, malformed(path, "date value must be a string")
	}
	str, ok := s.Value.(string)
	if !ok {
		return time.Time{}, malformed(path, "date value must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}, malformed(path, "%v", err)
	}
	return t, nil
}

func (c *Codec) decodeScalar(n Node, dst reflect.Value, path string) error {
	s, ok := n.(Scalar)
	if !ok {
		return malformed(path, "expected %s, got %s", dst.Type(), describe(n))
	}

	switch dst.Kind() {
	case reflect.Bool:
		b, ok := s.Value.(bool)
		if !ok {
			return malformed(path, "expected bool, got %s", describe(n))
		}
		dst.SetBool(b)
	case reflect.String:
		str, ok := s.Value.(string)
		if !ok {
			return malformed(path, "expected string, got %s", describe(n))
		}
		dst.SetString(str)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		num, ok := number(s.Value)
		if !ok {
			return malformed(path, "expected number, got %s", describe(n))
		}
		i, err := strconv.ParseInt(num, 10, 64)
		if err != nil || dst.OverflowInt(i) {
			return malformed(path, "%s does not fit %s", num, dst.Type())
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		num, ok := number(s.Value)
		if !ok {
			return malformed(path, "expected number, got %s", describe(n))
		}
		u, err := strconv.ParseUint(num, 10, 64)
		if err != nil || dst.OverflowUint(u) {
			return malformed(path, "%s does not fit %s", num, dst.Type())
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		num, ok := number(s.Value)
		if !ok {
			return malformed(path, "expected number, got %s", describe(n))
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || dst.OverflowFloat(f) {
			return malformed(path, "%s does not fit %s", num, dst.Type())
		}
		dst.SetFloat(f)
	default:
		return fmt.Errorf("typejson: cannot decode into %s at %s", dst.Type(), path)
	}
	return nil
}

// build rebuilds a node for an interface destination, where only the node
// itself says what the value is.
func (c *Codec) build(n Node, path string) (any, error) {
	switch n := n.(type) {
	case Scalar:
		if num, ok := n.Value.(json.Number); ok {
			f, err := num.Float64()
			if err != nil {
				return nil, malformed(path, "%v", err)
			}
			return f, nil
		}
		return n.Value, nil
	case Array:
		out := make([]any, len(n))
		for i, item := range n {
			v, err := c.build(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case Map:
		return c.buildMap(n, path)
	case Typed:
		if n.Tag == DateTag {
			return c.decodeDate(n, path)
		}
		rule, ok := c.reg.Lookup(n.Tag)
		if !ok {
			c.degrade(n.Tag, path)
			return c.buildMap(n.Fields, path)
		}
		ptr := rule.New()
		if err := c.decode(n, ptr.Elem(), path); err != nil {
			return nil, err
		}
		return ptr.Interface(), nil
	default:
		return nil, malformed(path, "unknown node %T", n)
	}
}

func (c *Codec) buildMap(fields Map, path string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := c.build(f.Value, fieldPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func (c *Codec) degrade(tag, path string) {
	c.log.Warn("unknown type tag, decoding as plain object", "tag", tag, "path", path)
	if c.onUnknown != nil {
		c.onUnknown(tag)
	}
}

// number returns the decimal text of a numeric scalar.
func number(v any) (string, bool) {
	switch v := v.(type) {
	case json.Number:
		return v.String(), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func setMapKey(key reflect.Value, s string) error {
	switch key.Kind() {
	case reflect.String:
		key.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || key.OverflowInt(i) {
			return fmt.Errorf("invalid %s key %q", key.Type(), s)
		}
		key.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil || key.OverflowUint(u) {
			return fmt.Errorf("invalid %s key %q", key.Type(), s)
		}
		key.SetUint(u)
	default:
		return fmt.Errorf("unsupported map key type %s", key.Type())
	}
	return nil
}
