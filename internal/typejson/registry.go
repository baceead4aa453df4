package typejson

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// DateTag is the built-in tag for time.Time values.
const DateTag = "Date"

const dateValueField = "value"

var timeType = reflect.TypeFor[time.Time]()

// Rule tells the codec how to rebuild a tagged object.
type Rule struct {
	Tag  string
	Type reflect.Type
	// New allocates a *Type ready to receive decoded fields. Fields missing
	// from the document keep the values New gave them.
	New func() reflect.Value
}

// Registry maps type tags to rules. It is built once and then only read.
type Registry struct {
	byTag  map[string]*Rule
	byType map[reflect.Type]*Rule
}

// NewRegistry returns a registry holding the Date rule.
func NewRegistry() *Registry {
	date := &Rule{Tag: DateTag, Type: timeType}
	return &Registry{
		byTag:  map[string]*Rule{DateTag: date},
		byType: map[reflect.Type]*Rule{timeType: date},
	}
}

// Register adds struct type T under tag using the zero value as the template.
func Register[T any](r *Registry, tag string) error {
	return RegisterFunc(r, tag, func() *T { return new(T) })
}

// RegisterFunc adds struct type T under tag, allocating new values with newT.
func RegisterFunc[T any](r *Registry, tag string, newT func() *T) error {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("typejson: register %s: only struct types can be registered", typ)
	}
	if tag == "" {
		return fmt.Errorf("typejson: register %s: empty tag", typ)
	}
	if _, ok := r.byTag[tag]; ok {
		return fmt.Errorf("typejson: tag %q already registered", tag)
	}
	if existing, ok := r.byType[typ]; ok {
		return fmt.Errorf("typejson: %s already registered as %q", typ, existing.Tag)
	}

	rule := &Rule{
		Tag:  tag,
		Type: typ,
		New: func() reflect.Value {
			if v := newT(); v != nil {
				return reflect.ValueOf(v)
			}
			return reflect.New(typ)
		},
	}
	r.byTag[tag] = rule
	r.byType[typ] = rule
	return nil
}

// MustRegister is Register that panics on error, for package-level setup.
func MustRegister[T any](r *Registry, tag string) {
	if err := Register[T](r, tag); err != nil {
		panic(err)
	}
}

// Lookup returns the rule for tag.
func (r *Registry) Lookup(tag string) (*Rule, bool) {
	rule, ok := r.byTag[tag]
	return rule, ok
}

// TagOf returns the tag registered for typ.
func (r *Registry) TagOf(typ reflect.Type) (string, bool) {
	rule, ok := r.byType[typ]
	if !ok {
		return "", false
	}
	return rule.Tag, true
}

// Tags lists the registered tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
