package schema

import (
	"fmt"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// DynamicType builds a TypeDef for a configuration-declared type. Its records
// are *types.DynamicRecord and field values live in the record's Values map
// as text. A missing entry reads as the kind's zero value.
func DynamicType(tc types.TypeConfig) (TypeDef, error) {
	fields := make([]Field, 0, len(tc.Fields))
	for _, fc := range tc.Fields {
		kind, err := types.ParseKind(fc.Kind)
		if err != nil {
			return TypeDef{}, fmt.Errorf("type %s field %s: %w", tc.Name, fc.Name, err)
		}
		f := dynamicField(fc.Name, kind)
		f.Hidden = fc.Hidden
		fields = append(fields, f)
	}
	name := tc.Name
	return TypeDef{
		Name:   name,
		Base:   tc.Base,
		Fields: fields,
		New:    func() types.Record { return types.NewDynamicRecord(name) },
	}, nil
}

func dynamicField(name string, kind types.Kind) Field {
	f := Field{Name: name, Kind: kind}
	if !kind.IsScalar() {
		return f
	}
	f.get = func(rec types.Record) (types.Value, error) {
		dr, ok := rec.(*types.DynamicRecord)
		if !ok {
			return types.Value{}, fmt.Errorf("%w: field %s expects *types.DynamicRecord, got %T", types.ErrTypeMismatch, name, rec)
		}
		text, ok := dr.Values[name]
		if !ok {
			return types.ZeroValue(kind), nil
		}
		return types.ParseValue(kind, text)
	}
	f.set = func(rec types.Record, v types.Value) error {
		dr, ok := rec.(*types.DynamicRecord)
		if !ok {
			return fmt.Errorf("%w: field %s expects *types.DynamicRecord, got %T", types.ErrTypeMismatch, name, rec)
		}
		if dr.Values == nil {
			dr.Values = make(map[string]string)
		}
		dr.Values[name] = v.Format()
		return nil
	}
	return f
}

// RegisterConfig registers every declared type. Declarations may appear in
// any order; a type is registered once its base is known. Declaring the root
// type replaces the root's field list.
func RegisterConfig(r *Registry, decls []types.TypeConfig) error {
	pending := make([]types.TypeConfig, len(decls))
	copy(pending, decls)

	for len(pending) > 0 {
		var next []types.TypeConfig
		for _, tc := range pending {
			base := tc.Base
			if base == "" {
				base = r.Root()
			}
			if tc.Name != r.Root() && !r.has(base) {
				next = append(next, tc)
				continue
			}
			def, err := DynamicType(tc)
			if err != nil {
				return err
			}
			if err := r.Register(def); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			return fmt.Errorf("%w: base %s of %s", types.ErrSchemaNotFound, next[0].Base, next[0].Name)
		}
		pending = next
	}
	return nil
}

func (r *Registry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}
