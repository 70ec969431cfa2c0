package schema

import (
	"fmt"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// Typed field constructors. Each takes a pointer accessor into the concrete
// record struct T, so one function serves both reading and writing.
//
//	schema.StringField("name", func(it *Item) *string { return &it.Name })

// StringField declares a string field.
func StringField[T any](name string, ptr func(*T) *string) Field {
	return scalarField(name, types.KindString, ptr, types.StringValue, types.Value.AsString)
}

// BoolField declares a bool field.
func BoolField[T any](name string, ptr func(*T) *bool) Field {
	return scalarField(name, types.KindBool, ptr, types.BoolValue, types.Value.AsBool)
}

// IntField declares an int32 field.
func IntField[T any](name string, ptr func(*T) *int32) Field {
	return scalarField(name, types.KindInt, ptr, types.IntValue, types.Value.AsInt)
}

// LongField declares an int64 field.
func LongField[T any](name string, ptr func(*T) *int64) Field {
	return scalarField(name, types.KindLong, ptr, types.LongValue, types.Value.AsLong)
}

// FloatField declares a float32 field.
func FloatField[T any](name string, ptr func(*T) *float32) Field {
	return scalarField(name, types.KindFloat, ptr, types.FloatValue, types.Value.AsFloat)
}

// DoubleField declares a float64 field.
func DoubleField[T any](name string, ptr func(*T) *float64) Field {
	return scalarField(name, types.KindDouble, ptr, types.DoubleValue, types.Value.AsDouble)
}

// ObjectField declares a non-scalar field. It is part of the type's
// declaration but never exported.
func ObjectField(name string) Field {
	return Field{Name: name, Kind: types.KindUnsupported}
}

func scalarField[T any, V any](
	name string,
	kind types.Kind,
	ptr func(*T) *V,
	wrap func(V) types.Value,
	unwrap func(types.Value) V,
) Field {
	return Field{
		Name: name,
		Kind: kind,
		get: func(rec types.Record) (types.Value, error) {
			t, err := concrete[T](rec, name)
			if err != nil {
				return types.Value{}, err
			}
			return wrap(*ptr(t)), nil
		},
		set: func(rec types.Record, v types.Value) error {
			t, err := concrete[T](rec, name)
			if err != nil {
				return err
			}
			*ptr(t) = unwrap(v)
			return nil
		},
	}
}

func concrete[T any](rec types.Record, field string) (*T, error) {
	t, ok := any(rec).(*T)
	if !ok {
		var want *T
		return nil, fmt.Errorf("%w: field %s expects %T, got %T", types.ErrTypeMismatch, field, want, rec)
	}
	return t, nil
}
