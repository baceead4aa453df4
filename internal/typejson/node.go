package typejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// TypeField is the object key that carries a type tag in the text form.
const TypeField = "__type__"

// Node is one value of a persisted document: a Scalar, an Array, a Map or a
// Typed object.
type Node interface {
	isNode()
}

// Scalar is null, a bool, a string or a number.
type Scalar struct {
	Value any
}

// Array is an ordered list of nodes.
type Array []Node

// Field is one named entry of an object.
type Field struct {
	Name  string
	Value Node
}

// Map is an untagged object. Fields keep their order when written.
type Map []Field

// Typed is an object carrying a registered type tag.
type Typed struct {
	Tag    string
	Fields Map
}

func (Scalar) isNode() {}
func (Array) isNode()  {}
func (Map) isNode()    {}
func (Typed) isNode()  {}

// Get returns the value of the named field.
func (m Map) Get(name string) (Node, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Marshal writes n in its JSON text form.
func Marshal(n Node) (string, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch n := n.(type) {
	case nil:
		buf.WriteString("null")
	case Scalar:
		b, err := json.Marshal(n.Value)
		if err != nil {
			return fmt.Errorf("typejson: write scalar: %w", err)
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, item := range n {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		return writeObject(buf, "", n)
	case Typed:
		if n.Tag == "" {
			return errors.New("typejson: typed node without a tag")
		}
		return writeObject(buf, n.Tag, n.Fields)
	default:
		return fmt.Errorf("typejson: unknown node %T", n)
	}
	return nil
}

func writeObject(buf *bytes.Buffer, tag string, fields Map) error {
	buf.WriteByte('{')
	first := true
	if tag != "" {
		writeString(buf, TypeField)
		buf.WriteByte(':')
		writeString(buf, tag)
		first = false
	}
	for _, f := range fields {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeString(buf, f.Name)
		buf.WriteByte(':')
		if err := writeNode(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	// Marshalling a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// Parse reads the JSON text form into a node tree. Numbers are kept as
// json.Number so integers survive exactly.
func Parse(text string) (Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed("$", "%v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed("$", "unexpected data after document")
	}
	return fromRaw(raw, "$")
}

func fromRaw(v any, path string) (Node, error) {
	switch v := v.(type) {
	case []any:
		arr := make(Array, len(v))
		for i, item := range v {
			n, err := fromRaw(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return arr, nil
	case map[string]any:
		var tag string
		if raw, ok := v[TypeField]; ok {
			s, ok := raw.(string)
			if !ok || s == "" {
				return nil, malformed(fieldPath(path, TypeField), "type tag must be a non-empty string")
			}
			tag = s
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			if k != TypeField {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		fields := make(Map, 0, len(keys))
		for _, k := range keys {
			n, err := fromRaw(v[k], fieldPath(path, k))
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: k, Value: n})
		}
		if tag != "" {
			return Typed{Tag: tag, Fields: fields}, nil
		}
		return fields, nil
	default:
		return Scalar{Value: v}, nil
	}
}

func describe(n Node) string {
	switch n := n.(type) {
	case Scalar:
		if n.Value == nil {
			return "null"
		}
		return fmt.Sprintf("%T", n.Value)
	case Array:
		return "array"
	case Map:
		return "object"
	case Typed:
		return fmt.Sprintf("object of type %q", n.Tag)
	default:
		return fmt.Sprintf("%T", n)
	}
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func fieldPath(path, name string) string {
	return path + "." + name
}
