package csvio

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// ImportRequest describes one sheet to apply.
type ImportRequest struct {
	TypeName string // record type rows are resolved and created as
	File     string // file name used in error messages
	Data     []byte // sheet contents
	AssetDir string // directory for suggested paths of new records
}

// PendingRecord is a row whose path did not resolve. The record has been
// allocated and filled in but has no identity yet.
type PendingRecord struct {
	Line          int
	Record        types.Record
	SuggestedPath string
}

// ImportResult summarizes an import. Applied counts rows written onto
// existing records; rows that need a new record are in Pending instead.
type ImportResult struct {
	Rows    int
	Applied int
	Pending []PendingRecord
}

// Import applies every data row of req.Data to host records. The header line
// is skipped without validation. For each row the path cell is resolved; a
// match is marked dirty and updated, a miss allocates a new record that is
// returned in Pending for the caller to place.
//
// A malformed row stops the import with a *types.RowError. Rows applied
// before it stay applied and the partial result is returned alongside.
func Import(ctx context.Context, host types.Host, reg *schema.Registry, req ImportRequest) (ImportResult, error) {
	var res ImportResult
	header := true
	for i, line := range splitLines(req.Data) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		res.Rows++
		if err := importRow(ctx, host, reg, req, i+1, line, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func importRow(ctx context.Context, host types.Host, reg *schema.Registry, req ImportRequest, lineNo int, line string, res *ImportResult) error {
	rowErr := func(col int, err error) error {
		return &types.RowError{File: req.File, Line: lineNo, Column: col, Err: err}
	}

	cells := Cells(line)
	if len(cells) < MetaColumns {
		return rowErr(-1, fmt.Errorf("%d cells, want at least %d", len(cells), MetaColumns))
	}

	recPath := strings.TrimSpace(cells[ColPath])
	existing := true
	rec, err := resolve(ctx, host, req.TypeName, recPath)
	if errors.Is(err, types.ErrNotFound) {
		existing = false
		rec, err = host.Create(req.TypeName)
	}
	if err != nil {
		return fmt.Errorf("%s:%d: %w", req.File, lineNo, err)
	}

	fields, err := reg.DiscoverFields(rec)
	if err != nil {
		return fmt.Errorf("%s:%d: %w", req.File, lineNo, err)
	}
	if len(cells) != MetaColumns+len(fields) {
		return rowErr(-1, fmt.Errorf("%d cells, want %d", len(cells), MetaColumns+len(fields)))
	}

	values := make([]types.Value, len(fields))
	for j, f := range fields {
		col := MetaColumns + j
		v, err := parseCell(f.Kind, cells[col])
		if err != nil {
			return rowErr(col, fmt.Errorf("field %s: %w", f.Name, err))
		}
		values[j] = v
	}

	if existing {
		host.MarkDirty(rec)
	}
	for j, f := range fields {
		if err := f.Set(rec, values[j]); err != nil {
			return rowErr(MetaColumns+j, err)
		}
	}

	if existing {
		res.Applied++
		return nil
	}
	suggested := recPath
	if suggested == "" {
		suggested = path.Join(req.AssetDir, req.TypeName+".asset")
	}
	res.Pending = append(res.Pending, PendingRecord{
		Line:          lineNo,
		Record:        rec,
		SuggestedPath: suggested,
	})
	return nil
}

func resolve(ctx context.Context, host types.Host, typeName, recPath string) (types.Record, error) {
	if recPath == "" {
		return nil, types.ErrNotFound
	}
	return host.Resolve(ctx, typeName, recPath)
}

// parseCell converts one cell to a value of kind. A string cell loses one
// surrounding quote pair; a quote left inside means the value was written
// with an embedded quote and cannot be recovered.
func parseCell(kind types.Kind, cell string) (types.Value, error) {
	if kind != types.KindString {
		return types.ParseValue(kind, cell)
	}
	s := cell
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if strings.Contains(s, `"`) {
		return types.Value{}, types.ErrQuoteInString
	}
	return types.StringValue(s), nil
}
