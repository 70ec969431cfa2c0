// Package sqlite implements the asset store: records live in assets.jsonl,
// the source of truth, and are indexed in a SQLite database rebuilt from it
// on every attach.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// assetsDB is the index file inside the data directory.
const assetsDB = "assets.db"

// Backend implements types.Host over SQLite and JSONL.
type Backend struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	db       *sql.DB
	reg      *schema.Registry
	now      func() time.Time

	cache   map[string]types.Record // identity map keyed by path
	dirty   map[string]types.Record // resolved records awaiting PersistAll
	created map[string]types.Record // records marked for creation, not yet committed
	nextID  int64
}

// NewBackend creates a detached store whose records are typed by reg.
// Call Attach with a Config to initialize.
func NewBackend(reg *schema.Registry) *Backend {
	return &Backend{
		reg: reg,
		now: time.Now,
	}
}

// Registry returns the schema registry the store hydrates records with.
func (b *Backend) Registry() *schema.Registry {
	return b.reg
}

// Attach opens the store in config.DataDir. The directory is created if
// needed, assets.db is recreated, and assets.jsonl is loaded into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The index is derived data; start from an empty file every time.
	dbPath := filepath.Join(dataDir, assetsDB)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONL(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadJSONL(db, filepath.Join(dataDir, assetsJSONL)); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	var maxID int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(instance_id), ?) FROM assets`, firstInstanceID-1).Scan(&maxID); err != nil {
		db.Close()
		return fmt.Errorf("reading instance ids: %w", err)
	}

	config.DataDir = dataDir
	b.config = config
	b.db = db
	b.nextID = maxID + 1
	b.cache = make(map[string]types.Record)
	b.dirty = make(map[string]types.Record)
	b.created = make(map[string]types.Record)
	b.attached = true
	return nil
}

// Detach commits outstanding changes and closes the index. After Detach all
// operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.persistAllLocked(context.Background()); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.cache, b.dirty, b.created = nil, nil, nil
	return nil
}

// loadJSONL inserts every well-formed line of the JSONL file into the index
// in one transaction. Lines that fail to decode or violate a constraint are
// skipped so a hand-edited file never blocks attach.
func loadJSONL(db *sql.DB, path string) error {
	lines, err := readJSONL(path)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertAssetSQL)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, line := range lines {
		var row assetRow
		if err := json.Unmarshal(line, &row); err != nil {
			continue
		}
		if row.TypeName == "" || row.Path == "" || row.InstanceID == 0 {
			continue
		}
		if row.AssetID == "" {
			row.AssetID = generateUUID()
		}
		if len(row.Data) == 0 {
			row.Data = json.RawMessage("{}")
		}
		if _, err := stmt.Exec(row.AssetID, row.InstanceID, row.TypeName, row.Path,
			string(row.Data), row.CreatedAt, row.UpdatedAt); err != nil {
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// generateUUID generates a new UUID v7 for asset IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
