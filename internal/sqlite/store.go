package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

const (
	rowColumns = `asset_id, instance_id, type_name, path, data, created_at, updated_at`

	insertAssetSQL = `INSERT INTO assets (` + rowColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	updateAssetSQL = `UPDATE assets SET instance_id = ?, type_name = ?, data = ?, updated_at = ? WHERE path = ?`
)

// FindRecords returns every committed record of typeName ordered by path.
// Records already loaded in this session are returned as the same pointers.
func (b *Backend) FindRecords(ctx context.Context, typeName string) ([]types.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	rows, err := b.queryRows(ctx, `SELECT `+rowColumns+` FROM assets WHERE type_name = ? ORDER BY path`, typeName)
	if err != nil {
		return nil, err
	}
	recs := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := b.recordLocked(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Resolve returns the record of typeName stored at p. Returns ErrNotFound
// when nothing is stored there or the stored record has another type.
func (b *Backend) Resolve(ctx context.Context, typeName, p string) (types.Record, error) {
	rec, err := b.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if rec.RecordType() != typeName {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", types.ErrNotFound, p, rec.RecordType(), typeName)
	}
	return rec, nil
}

// Get returns the record stored at p whatever its type, including records
// marked for creation but not yet committed.
func (b *Backend) Get(ctx context.Context, p string) (types.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrNotFound)
	}
	if rec, ok := b.cache[p]; ok {
		return rec, nil
	}
	rows, err := b.queryRows(ctx, `SELECT `+rowColumns+` FROM assets WHERE path = ?`, p)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, p)
	}
	return b.recordLocked(rows[0])
}

// Create allocates an uncommitted record of typeName.
func (b *Backend) Create(typeName string) (types.Record, error) {
	return b.reg.New(typeName)
}

// MarkDirty queues rec for the next PersistAll. Records without a path and
// records already marked for creation are ignored.
func (b *Backend) MarkDirty(rec types.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached || rec == nil {
		return
	}
	p := rec.Meta().Path
	if p == "" {
		return
	}
	if _, pending := b.created[p]; pending {
		return
	}
	b.dirty[p] = rec
	if _, ok := b.cache[p]; !ok {
		b.cache[p] = rec
	}
}

// MarkForCreation gives rec a unique path derived from suggestedPath and the
// next instance ID. When suggestedPath is taken, " 1", " 2", ... is inserted
// before the extension. The record is committed by PersistAll.
func (b *Backend) MarkForCreation(ctx context.Context, rec types.Record, suggestedPath string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}
	p, err := cleanAssetPath(suggestedPath)
	if err != nil {
		return "", err
	}
	p, err = b.uniquePathLocked(ctx, p)
	if err != nil {
		return "", err
	}

	meta := rec.Meta()
	meta.Path = p
	meta.InstanceID = b.nextID
	b.nextID++
	b.created[p] = rec
	b.cache[p] = rec
	return p, nil
}

// Persist writes rec immediately and rewrites assets.jsonl.
func (b *Backend) Persist(ctx context.Context, rec types.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	p := rec.Meta().Path
	if p == "" {
		return fmt.Errorf("%w: record has no path", types.ErrInvalidPath)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := b.upsertLocked(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", p, err)
	}
	delete(b.dirty, p)
	delete(b.created, p)
	b.cache[p] = rec
	return b.rewriteJSONLLocked(ctx)
}

// PersistAll commits every record marked for creation and every dirty
// record in one transaction, then rewrites assets.jsonl.
func (b *Backend) PersistAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	return b.persistAllLocked(ctx)
}

func (b *Backend) persistAllLocked(ctx context.Context) error {
	if len(b.created) == 0 && len(b.dirty) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, set := range []map[string]types.Record{b.created, b.dirty} {
		for _, p := range sortedKeys(set) {
			if err := b.upsertLocked(ctx, tx, set[p]); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	b.created = make(map[string]types.Record)
	b.dirty = make(map[string]types.Record)
	return b.rewriteJSONLLocked(ctx)
}

// Delete removes the record at p from the store and the identity map.
func (b *Backend) Delete(ctx context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	res, err := b.db.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, p)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", p, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_, pending := b.created[p]
	delete(b.cache, p)
	delete(b.dirty, p)
	delete(b.created, p)
	if n == 0 {
		if pending {
			return nil
		}
		return fmt.Errorf("%w: %s", types.ErrNotFound, p)
	}
	return b.rewriteJSONLLocked(ctx)
}

// upsertLocked writes rec into the index, inserting it when its path has no
// row yet.
func (b *Backend) upsertLocked(ctx context.Context, tx *sql.Tx, rec types.Record) error {
	meta := rec.Meta()
	if meta.InstanceID == 0 {
		meta.InstanceID = b.nextID
		b.nextID++
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	now := timestamp(b.now())

	res, err := tx.ExecContext(ctx, updateAssetSQL, meta.InstanceID, rec.RecordType(), string(data), now, meta.Path)
	if err != nil {
		return fmt.Errorf("updating %s: %w", meta.Path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, insertAssetSQL, generateUUID(), meta.InstanceID, rec.RecordType(),
		meta.Path, string(data), now, now); err != nil {
		return fmt.Errorf("inserting %s: %w", meta.Path, err)
	}
	return nil
}

// rewriteJSONLLocked replaces assets.jsonl with the committed index
// contents ordered by path.
func (b *Backend) rewriteJSONLLocked(ctx context.Context) error {
	rows, err := b.queryRows(ctx, `SELECT `+rowColumns+` FROM assets ORDER BY path`)
	if err != nil {
		return err
	}
	lines := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", row.Path, err)
		}
		lines = append(lines, line)
	}
	return writeJSONL(filepath.Join(b.config.DataDir, assetsJSONL), lines)
}

func (b *Backend) queryRows(ctx context.Context, query string, args ...any) ([]assetRow, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var out []assetRow
	for rows.Next() {
		var row assetRow
		var data string
		if err := rows.Scan(&row.AssetID, &row.InstanceID, &row.TypeName, &row.Path,
			&data, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		row.Data = json.RawMessage(data)
		out = append(out, row)
	}
	return out, rows.Err()
}

// recordLocked returns the identity-mapped record for row, hydrating it on
// first access.
func (b *Backend) recordLocked(row assetRow) (types.Record, error) {
	if rec, ok := b.cache[row.Path]; ok {
		return rec, nil
	}
	rec, err := hydrate(b.reg, row)
	if err != nil {
		return nil, err
	}
	b.cache[row.Path] = rec
	return rec, nil
}

// uniquePathLocked returns p, or the first of "stem 1.ext", "stem 2.ext", ...
// that is neither stored nor pending creation.
func (b *Backend) uniquePathLocked(ctx context.Context, p string) (string, error) {
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	candidate := p
	for n := 1; ; n++ {
		taken, err := b.pathTakenLocked(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s %d%s", stem, n, ext)
	}
}

func (b *Backend) pathTakenLocked(ctx context.Context, p string) (bool, error) {
	if _, ok := b.created[p]; ok {
		return true, nil
	}
	var one int
	err := b.db.QueryRowContext(ctx, `SELECT 1 FROM assets WHERE path = ?`, p).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking path %s: %w", p, err)
	}
	return true, nil
}

// unsheetable lists characters a path cannot hold: sheets write the path
// cell unquoted on a single line.
const unsheetable = ",\"\r\n"

// cleanAssetPath normalizes a suggested path to slash form.
func cleanAssetPath(p string) (string, error) {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidPath, p)
	}
	if strings.ContainsAny(p, unsheetable) {
		return "", fmt.Errorf("%w: %q contains a comma, quote, or line break", types.ErrInvalidPath, p)
	}
	return path.Clean(p), nil
}

func sortedKeys(m map[string]types.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
