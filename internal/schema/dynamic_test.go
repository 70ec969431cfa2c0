package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

func TestRegisterConfigOutOfOrder(t *testing.T) {
	r := NewRegistry()
	err := RegisterConfig(r, []types.TypeConfig{
		{Name: "Weapon", Base: "Item", Fields: []types.FieldConfig{
			{Name: "damage", Kind: "float"},
		}},
		{Name: "Item", Fields: []types.FieldConfig{
			{Name: "name", Kind: "string"},
			{Name: "power", Kind: "int"},
			{Name: "secret", Kind: "string", Hidden: true},
			{Name: "mesh", Kind: "object"},
		}},
	})
	require.NoError(t, err)

	fields, err := r.FieldsOf("Weapon")
	require.NoError(t, err)
	assert.Equal(t, []string{"damage", "name", "power"}, fieldNames(fields))
	assert.Equal(t, types.KindFloat, fields[0].Kind)
	assert.Equal(t, types.KindInt, fields[2].Kind)
}

func TestRegisterConfigRootFields(t *testing.T) {
	r := NewRegistry()
	err := RegisterConfig(r, []types.TypeConfig{
		{Name: types.RootType, Fields: []types.FieldConfig{{Name: "guid", Kind: "string"}}},
		{Name: "Item", Fields: []types.FieldConfig{{Name: "name", Kind: "string"}}},
	})
	require.NoError(t, err)

	fields, err := r.FieldsOf("Item")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "guid"}, fieldNames(fields))
}

func TestRegisterConfigMissingBase(t *testing.T) {
	r := NewRegistry()
	err := RegisterConfig(r, []types.TypeConfig{
		{Name: "Weapon", Base: "Item"},
	})
	assert.True(t, errors.Is(err, types.ErrSchemaNotFound))
}

func TestRegisterConfigBadKind(t *testing.T) {
	r := NewRegistry()
	err := RegisterConfig(r, []types.TypeConfig{
		{Name: "Item", Fields: []types.FieldConfig{{Name: "when", Kind: "date"}}},
	})
	assert.True(t, errors.Is(err, types.ErrInvalidKind))
}

func TestDynamicFieldAccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterConfig(r, []types.TypeConfig{
		{Name: "Item", Fields: []types.FieldConfig{
			{Name: "name", Kind: "string"},
			{Name: "power", Kind: "int32"},
			{Name: "rare", Kind: "bool"},
		}},
	}))

	rec, err := r.New("Item")
	require.NoError(t, err)
	dr, ok := rec.(*types.DynamicRecord)
	require.True(t, ok)
	assert.Equal(t, "Item", dr.RecordType())

	fields, err := r.DiscoverFields(rec)
	require.NoError(t, err)

	// Unset values read as zero.
	v, err := fields[1].Get(rec)
	require.NoError(t, err)
	assert.Equal(t, types.IntValue(0), v)

	require.NoError(t, fields[0].Set(rec, types.StringValue("Sword")))
	require.NoError(t, fields[1].Set(rec, types.IntValue(10)))
	require.NoError(t, fields[2].Set(rec, types.BoolValue(true)))
	assert.Equal(t, map[string]string{"name": "Sword", "power": "10", "rare": "true"}, dr.Values)

	v, err = fields[1].Get(rec)
	require.NoError(t, err)
	assert.Equal(t, int32(10), v.AsInt())

	_, err = fields[0].Get(&types.Asset{})
	assert.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestDynamicFieldCorruptValue(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterConfig(r, []types.TypeConfig{
		{Name: "Item", Fields: []types.FieldConfig{{Name: "power", Kind: "int32"}}},
	}))

	rec := types.NewDynamicRecord("Item")
	rec.Values["power"] = "lots"

	fields, err := r.DiscoverFields(rec)
	require.NoError(t, err)
	_, err = fields[0].Get(rec)
	assert.Error(t, err)
}
