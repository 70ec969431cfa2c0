package sqlite

// Schema DDL for the asset index. The index is rebuilt from assets.jsonl on
// every attach, so it carries no migrations.
const (
	createAssets = `CREATE TABLE assets (
    asset_id TEXT PRIMARY KEY,
    instance_id INTEGER NOT NULL UNIQUE,
    type_name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createAssetsTypeIndex = `CREATE INDEX idx_assets_type ON assets (type_name, path);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createAssets,
	createAssetsTypeIndex,
}

// firstInstanceID is the instance ID given to the first committed record of
// an empty store.
const firstInstanceID = 1001
