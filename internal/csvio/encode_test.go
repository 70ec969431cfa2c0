package csvio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

func sword() *testItem {
	return &testItem{Asset: types.Asset{InstanceID: 1001, Path: "/assets/sword.item"}, Name: "Sword", Power: 10}
}

func shield() *testItem {
	return &testItem{Asset: types.Asset{InstanceID: 1002, Path: "/assets/shield.item"}, Name: "Shield", Power: 5}
}

const itemSheet = "Class,InstanceID, Path,name - string,power - int32,\n" +
	"Item,1001,/assets/sword.item,\"Sword\",10,\n" +
	"Item,1002,/assets/shield.item,\"Shield\",5,\n"

func TestEncodeItemExample(t *testing.T) {
	reg := newItemRegistry(t)

	data, err := Encode(reg, []types.Record{sword(), shield()})
	require.NoError(t, err)
	assert.Equal(t, itemSheet, string(data))
}

func TestEncodeColumnAlignment(t *testing.T) {
	reg := newItemRegistry(t)

	data, err := Encode(reg, []types.Record{sword(), shield()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Len(t, Cells(l), MetaColumns+2, "line %q", l)
		assert.True(t, strings.HasSuffix(l, ","), "line %q should be comma terminated", l)
	}
}

func TestEncodeUnquotedScalars(t *testing.T) {
	reg := newItemRegistry(t)

	gem := &testGem{Asset: types.Asset{InstanceID: 7, Path: "gems/ruby.asset"}, Carat: 1.25, Cut: true}
	data, err := Encode(reg, []types.Record{gem})
	require.NoError(t, err)
	assert.Equal(t,
		"Class,InstanceID, Path,carat - float64,cut - bool,\n"+
			"Gem,7,gems/ruby.asset,1.25,true,\n",
		string(data))
}

func TestEncodeNoFields(t *testing.T) {
	reg := newItemRegistry(t)

	data, err := Encode(reg, []types.Record{&types.Asset{InstanceID: 3, Path: "a.asset"}})
	require.NoError(t, err)
	assert.Equal(t, "Class,InstanceID, Path,\nAsset,3,a.asset,\n", string(data))
}

func TestEncodeEmpty(t *testing.T) {
	_, err := Encode(newItemRegistry(t), nil)
	assert.True(t, errors.Is(err, types.ErrSchemaUnavailable))
}

func TestEncodeHeterogeneousIsCallerError(t *testing.T) {
	reg := newItemRegistry(t)

	gem := &testGem{Asset: types.Asset{Path: "gems/ruby.asset"}}
	_, err := Encode(reg, []types.Record{sword(), gem})
	assert.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestEncodeUnknownType(t *testing.T) {
	reg := newItemRegistry(t)

	_, err := Encode(reg, []types.Record{types.NewDynamicRecord("Nope")})
	assert.True(t, errors.Is(err, types.ErrSchemaNotFound))
}
