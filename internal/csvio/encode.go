package csvio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// HeaderPrefix is the fixed start of every header line. The space before
// Path is part of the format.
const HeaderPrefix = "Class,InstanceID, Path,"

// Header returns the header line for fields, newline included.
func Header(fields []schema.Field) string {
	var b strings.Builder
	b.WriteString(HeaderPrefix)
	for _, f := range fields {
		b.WriteString(f.Label())
		b.WriteByte(',')
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatCell renders one field value. Strings are wrapped in double quotes.
func FormatCell(v types.Value) string {
	if v.Kind() == types.KindString {
		return `"` + v.AsString() + `"`
	}
	return v.Format()
}

// Encode renders records as a sheet. The schema is discovered from the
// first record and applied to every row; a later record that the schema
// cannot read is a caller error. Returns ErrSchemaUnavailable when records
// is empty.
func Encode(reg *schema.Registry, records []types.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, types.ErrSchemaUnavailable
	}
	fields, err := reg.DiscoverFields(records[0])
	if err != nil {
		return nil, fmt.Errorf("discover fields: %w", err)
	}

	var b strings.Builder
	b.WriteString(Header(fields))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("record %d: %w", i, types.ErrSchemaUnavailable)
		}
		meta := rec.Meta()
		b.WriteString(rec.RecordType())
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(meta.InstanceID, 10))
		b.WriteByte(',')
		b.WriteString(meta.Path)
		b.WriteByte(',')
		for _, f := range fields {
			v, err := f.Get(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d (%s): %w", i, meta.Path, err)
			}
			b.WriteString(FormatCell(v))
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
