package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// assetRow is one line of assets.jsonl and one row of the assets table.
// Data holds the record's own fields; identity lives in the other columns.
type assetRow struct {
	AssetID    string          `json:"asset_id"`
	InstanceID int64           `json:"instance_id"`
	TypeName   string          `json:"type_name"`
	Path       string          `json:"path"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// timestamp formats t the way the store records created_at and updated_at.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// encodeRecord marshals the record body for the data column.
func encodeRecord(rec types.Record) (json.RawMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %s: %w", rec.RecordType(), rec.Meta().Path, err)
	}
	return data, nil
}

// hydrate builds a live record from a stored row.
func hydrate(reg *schema.Registry, row assetRow) (types.Record, error) {
	rec, err := reg.New(row.TypeName)
	if err != nil {
		return nil, err
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, rec); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", row.TypeName, row.Path, err)
		}
	}
	// Dynamic records carry their type in the body; the column wins.
	if d, ok := rec.(*types.DynamicRecord); ok {
		d.Type = row.TypeName
		if d.Values == nil {
			d.Values = make(map[string]string)
		}
	}
	meta := rec.Meta()
	meta.InstanceID = row.InstanceID
	meta.Path = row.Path
	return rec, nil
}
