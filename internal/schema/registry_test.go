package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

type item struct {
	types.Asset
	Name  string
	Power int32
	Notes string
	Icon  []byte
}

func (*item) RecordType() string { return "Item" }

type weapon struct {
	item
	Damage    float32
	TwoHanded bool
}

func (*weapon) RecordType() string { return "Weapon" }

type potion struct {
	types.Asset
	Heal float64
}

func (*potion) RecordType() string { return "Potion" }

// newTestRegistry registers Item (derived from the root) and Weapon
// (derived from Item).
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(TypeDef{
		Name: "Item",
		Fields: []Field{
			StringField("name", func(i *item) *string { return &i.Name }),
			IntField("power", func(i *item) *int32 { return &i.Power }),
			StringField("notes", func(i *item) *string { return &i.Notes }).Hide(),
			ObjectField("icon"),
		},
		New: func() types.Record { return &item{} },
	}))
	require.NoError(t, r.Register(TypeDef{
		Name: "Weapon",
		Base: "Item",
		Fields: []Field{
			FloatField("damage", func(w *weapon) *float32 { return &w.Damage }),
			BoolField("twoHanded", func(w *weapon) *bool { return &w.TwoHanded }),
		},
		New: func() types.Record { return &weapon{} },
		Up:  Embedded(func(w *weapon) *item { return &w.item }),
	}))
	return r
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestDiscoverFieldsOrder(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		rec  types.Record
		want []string
	}{
		{"base type", &item{}, []string{"name", "power"}},
		{"derived fields first", &weapon{}, []string{"damage", "twoHanded", "name", "power"}},
		{"root has no fields", &types.Asset{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := r.DiscoverFields(tt.rec)
			require.NoError(t, err)
			require.NotNil(t, fields)
			assert.Equal(t, tt.want, fieldNames(fields))
		})
	}
}

func TestDiscoverFieldsDeterministic(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.DiscoverFields(&weapon{})
	require.NoError(t, err)
	second, err := r.DiscoverFields(&weapon{Damage: 3})
	require.NoError(t, err)

	assert.Equal(t, fieldNames(first), fieldNames(second))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
	}
}

func TestDiscoverFieldsUsesRuntimeType(t *testing.T) {
	r := newTestRegistry(t)

	var rec types.Record = &weapon{}
	fields, err := r.DiscoverFields(rec)
	require.NoError(t, err)
	assert.Len(t, fields, 4)
}

func TestDiscoverFieldsErrors(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.DiscoverFields(nil)
	assert.True(t, errors.Is(err, types.ErrSchemaUnavailable))

	_, err = r.DiscoverFields(&potion{})
	assert.True(t, errors.Is(err, types.ErrSchemaNotFound))
}

func TestAllFieldsIncludesHidden(t *testing.T) {
	r := newTestRegistry(t)

	fields, err := r.AllFields("Weapon")
	require.NoError(t, err)
	assert.Equal(t, []string{"damage", "twoHanded", "name", "power", "notes", "icon"}, fieldNames(fields))
}

func TestFieldAccessorsThroughBase(t *testing.T) {
	r := newTestRegistry(t)

	w := &weapon{item: item{Name: "Axe", Power: 7}, Damage: 2.5, TwoHanded: true}
	fields, err := r.DiscoverFields(w)
	require.NoError(t, err)

	got := make(map[string]string, len(fields))
	for _, f := range fields {
		v, err := f.Get(w)
		require.NoError(t, err)
		got[f.Name] = v.Format()
	}
	assert.Equal(t, map[string]string{
		"damage":    "2.5",
		"twoHanded": "true",
		"name":      "Axe",
		"power":     "7",
	}, got)

	require.NoError(t, fields[2].Set(w, types.StringValue("Halberd")))
	require.NoError(t, fields[3].Set(w, types.IntValue(9)))
	assert.Equal(t, "Halberd", w.Name)
	assert.Equal(t, int32(9), w.Power)
}

func TestFieldSetKindMismatch(t *testing.T) {
	r := newTestRegistry(t)

	fields, err := r.DiscoverFields(&item{})
	require.NoError(t, err)

	err = fields[0].Set(&item{}, types.IntValue(1))
	assert.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestFieldWrongRecordType(t *testing.T) {
	r := newTestRegistry(t)

	fields, err := r.DiscoverFields(&item{})
	require.NoError(t, err)

	_, err = fields[0].Get(&potion{})
	assert.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestFieldLabel(t *testing.T) {
	f := IntField("power", func(i *item) *int32 { return &i.Power })
	assert.Equal(t, "power - int32", f.Label())
	assert.Equal(t, "name - string", StringField("name", func(i *item) *string { return &i.Name }).Label())
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		def     TypeDef
		wantErr error
	}{
		{
			name:    "empty name",
			def:     TypeDef{},
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "unknown base",
			def:     TypeDef{Name: "Shield", Base: "Armor"},
			wantErr: types.ErrSchemaNotFound,
		},
		{
			name: "duplicate field",
			def: TypeDef{Name: "Shield", Fields: []Field{
				ObjectField("x"), ObjectField("x"),
			}},
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "self derivation",
			def:     TypeDef{Name: "Shield", Base: "Shield"},
			wantErr: types.ErrInvalidSchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.def)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRegisterRejectsCycle(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(TypeDef{Name: "Item", Base: "Weapon"})
	assert.True(t, errors.Is(err, types.ErrInvalidSchema))

	fields, err := r.FieldsOf("Item")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "power"}, fieldNames(fields))
}

func TestRegistryNewAndNames(t *testing.T) {
	r := newTestRegistry(t)

	rec, err := r.New("Weapon")
	require.NoError(t, err)
	assert.IsType(t, &weapon{}, rec)

	_, err = r.New("Potion")
	assert.True(t, errors.Is(err, types.ErrSchemaNotFound))

	assert.Equal(t, []string{"Asset", "Item", "Weapon"}, r.Names())
}
