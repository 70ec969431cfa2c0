// Package schema registers record types and discovers the ordered set of
// exported scalar fields that a record contributes to a CSV sheet.
//
// Each record type is declared once with a base type and its fields in
// declaration order. Discovery walks from the record's runtime type up the
// base chain to the root type, so derived fields come first and root fields
// last. CSV column positions depend on this order.
package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// Field is one declared field of a record type with its accessor pair.
type Field struct {
	Name   string
	Kind   types.Kind
	Hidden bool // stored but not marked for export

	get func(types.Record) (types.Value, error)
	set func(types.Record, types.Value) error
}

// Exported reports whether the field takes part in serialization.
func (f Field) Exported() bool {
	return !f.Hidden && f.Kind.IsScalar()
}

// Get reads the field from rec.
func (f Field) Get(rec types.Record) (types.Value, error) {
	if f.get == nil {
		return types.Value{}, fmt.Errorf("%w: field %s has no accessor", types.ErrInvalidSchema, f.Name)
	}
	return f.get(rec)
}

// Set writes v into the field on rec. The value kind must match the field.
func (f Field) Set(rec types.Record, v types.Value) error {
	if f.set == nil {
		return fmt.Errorf("%w: field %s has no accessor", types.ErrInvalidSchema, f.Name)
	}
	if v.Kind() != f.Kind {
		return fmt.Errorf("%w: field %s is %s, got %s", types.ErrTypeMismatch, f.Name, f.Kind, v.Kind())
	}
	return f.set(rec, v)
}

// Label is the CSV header cell for the field, "<name> - <kind>".
func (f Field) Label() string {
	return f.Name + " - " + f.Kind.String()
}

// Hide returns a copy of the field that is not exported.
func (f Field) Hide() Field {
	f.Hidden = true
	return f
}

// TypeDef declares a record type. Fields lists only the fields declared
// directly on the type, in declaration order. Base names the parent type;
// it is empty only for the root.
//
// Up converts a record of this type to the embedded record its base-level
// fields operate on. A nil Up hands the same record to every level, which
// is what dynamic records need.
type TypeDef struct {
	Name   string
	Base   string
	Fields []Field
	New    func() types.Record
	Up     func(types.Record) (types.Record, error)
}

// Embedded builds a TypeDef.Up function for a struct D that embeds its base
// struct B.
//
//	Up: schema.Embedded(func(w *Weapon) *Item { return &w.Item })
func Embedded[D any, B any](base func(*D) *B) func(types.Record) (types.Record, error) {
	return func(rec types.Record) (types.Record, error) {
		d, err := concrete[D](rec, "<embedded>")
		if err != nil {
			return nil, err
		}
		b, ok := any(base(d)).(types.Record)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a record", types.ErrTypeMismatch, base(d))
		}
		return b, nil
	}
}

// Registry maps type names to their declarations.
type Registry struct {
	mu    sync.RWMutex
	root  string
	types map[string]TypeDef
}

// NewRegistry returns a registry whose root type is types.RootType,
// pre-registered with no fields.
func NewRegistry() *Registry {
	r := &Registry{
		root:  types.RootType,
		types: make(map[string]TypeDef),
	}
	r.types[types.RootType] = TypeDef{
		Name: types.RootType,
		New:  func() types.Record { return &types.Asset{} },
	}
	return r
}

// Root returns the root type name.
func (r *Registry) Root() string { return r.root }

// Register adds or replaces a type declaration. A non-root type with an empty
// Base derives from the root. The base must already be registered and the
// chain must not loop back to def.
func (r *Registry) Register(def TypeDef) error {
	if def.Name == "" {
		return fmt.Errorf("%w: %w", types.ErrInvalidSchema, types.ErrTypeNameEmpty)
	}
	if def.Name == r.root {
		def.Base = ""
	} else if def.Base == "" {
		def.Base = r.root
	}

	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: type %s: %w", types.ErrInvalidSchema, def.Name, types.ErrFieldNameEmpty)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: type %s declares field %s twice", types.ErrInvalidSchema, def.Name, f.Name)
		}
		seen[f.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for base := def.Base; base != ""; {
		if base == def.Name {
			return fmt.Errorf("%w: type %s derives from itself", types.ErrInvalidSchema, def.Name)
		}
		parent, ok := r.types[base]
		if !ok {
			return fmt.Errorf("%w: base %s of %s", types.ErrSchemaNotFound, base, def.Name)
		}
		if base == r.root {
			break
		}
		base = parent.Base
	}

	r.types[def.Name] = def
	return nil
}

// Lookup returns the declaration for name.
func (r *Registry) Lookup(name string) (TypeDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.types[name]
	if !ok {
		return TypeDef{}, fmt.Errorf("%w: %s", types.ErrSchemaNotFound, name)
	}
	return def, nil
}

// Names returns the registered type names in sorted order, root included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New allocates an empty record of the named type.
func (r *Registry) New(name string) (types.Record, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if def.New == nil {
		return nil, fmt.Errorf("%w: type %s has no constructor", types.ErrInvalidSchema, name)
	}
	return def.New(), nil
}

// DiscoverFields returns the exported scalar fields of rec's runtime type:
// the type's own fields first, then each base level in turn, ending with
// the root. The result is never nil.
func (r *Registry) DiscoverFields(rec types.Record) ([]Field, error) {
	if rec == nil {
		return nil, types.ErrSchemaUnavailable
	}
	return r.FieldsOf(rec.RecordType())
}

// FieldsOf is DiscoverFields for a type name.
func (r *Registry) FieldsOf(typeName string) ([]Field, error) {
	return r.collect(typeName, Field.Exported)
}

// AllFields returns every declared field of the type chain, exported or not,
// in discovery order. Stores use it to persist hidden fields.
func (r *Registry) AllFields(typeName string) ([]Field, error) {
	return r.collect(typeName, func(Field) bool { return true })
}

func (r *Registry) collect(typeName string, keep func(Field) bool) ([]Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := []Field{}
	var view func(types.Record) (types.Record, error)
	name := typeName
	for name != "" {
		def, ok := r.types[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrSchemaNotFound, name)
		}
		for _, f := range def.Fields {
			if keep(f) {
				fields = append(fields, f.through(view))
			}
		}
		if name == r.root {
			break
		}
		view = compose(view, def.Up)
		name = def.Base
	}
	return fields, nil
}

// through binds the field's accessors behind view.
func (f Field) through(view func(types.Record) (types.Record, error)) Field {
	if view == nil {
		return f
	}
	if get := f.get; get != nil {
		f.get = func(rec types.Record) (types.Value, error) {
			base, err := view(rec)
			if err != nil {
				return types.Value{}, err
			}
			return get(base)
		}
	}
	if set := f.set; set != nil {
		f.set = func(rec types.Record, v types.Value) error {
			base, err := view(rec)
			if err != nil {
				return err
			}
			return set(base, v)
		}
	}
	return f
}

func compose(outer, inner func(types.Record) (types.Record, error)) func(types.Record) (types.Record, error) {
	switch {
	case inner == nil:
		return outer
	case outer == nil:
		return inner
	}
	return func(rec types.Record) (types.Record, error) {
		mid, err := outer(rec)
		if err != nil {
			return nil, err
		}
		return inner(mid)
	}
}
