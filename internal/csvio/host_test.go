package csvio

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// testItem mirrors the Item record used throughout the codec tests.
type testItem struct {
	types.Asset
	Name  string
	Power int32
}

func (*testItem) RecordType() string { return "Item" }

type testGem struct {
	types.Asset
	Carat float64
	Cut   bool
}

func (*testGem) RecordType() string { return "Gem" }

func newItemRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Register(schema.TypeDef{
		Name: "Item",
		Fields: []schema.Field{
			schema.StringField("name", func(i *testItem) *string { return &i.Name }),
			schema.IntField("power", func(i *testItem) *int32 { return &i.Power }),
		},
		New: func() types.Record { return &testItem{} },
	}))
	require.NoError(t, r.Register(schema.TypeDef{
		Name: "Gem",
		Fields: []schema.Field{
			schema.DoubleField("carat", func(g *testGem) *float64 { return &g.Carat }),
			schema.BoolField("cut", func(g *testGem) *bool { return &g.Cut }),
		},
		New: func() types.Record { return &testGem{} },
	}))
	return r
}

// memHost is an in-memory types.Host keyed by path.
type memHost struct {
	reg       *schema.Registry
	records   map[string]types.Record
	dirty     map[string]bool
	created   []types.Record
	persisted int
	nextID    int64
}

func newMemHost(reg *schema.Registry, recs ...types.Record) *memHost {
	h := &memHost{
		reg:     reg,
		records: make(map[string]types.Record),
		dirty:   make(map[string]bool),
		nextID:  5000,
	}
	for _, r := range recs {
		h.records[r.Meta().Path] = r
	}
	return h
}

func (h *memHost) FindRecords(_ context.Context, typeName string) ([]types.Record, error) {
	var out []types.Record
	for _, r := range h.records {
		if r.RecordType() == typeName {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().Path < out[j].Meta().Path })
	return out, nil
}

func (h *memHost) Resolve(_ context.Context, typeName, path string) (types.Record, error) {
	r, ok := h.records[path]
	if !ok || r.RecordType() != typeName {
		return nil, types.ErrNotFound
	}
	return r, nil
}

func (h *memHost) Create(typeName string) (types.Record, error) {
	return h.reg.New(typeName)
}

func (h *memHost) MarkDirty(rec types.Record) {
	h.dirty[rec.Meta().Path] = true
}

func (h *memHost) MarkForCreation(_ context.Context, rec types.Record, suggested string) (string, error) {
	if _, taken := h.records[suggested]; taken {
		return "", fmt.Errorf("%w: %s", types.ErrPathTaken, suggested)
	}
	h.nextID++
	rec.Meta().InstanceID = h.nextID
	rec.Meta().Path = suggested
	h.records[suggested] = rec
	h.created = append(h.created, rec)
	return suggested, nil
}

func (h *memHost) Persist(context.Context, types.Record) error {
	h.persisted++
	return nil
}

func (h *memHost) PersistAll(context.Context) error {
	h.persisted += len(h.dirty) + len(h.created)
	return nil
}
