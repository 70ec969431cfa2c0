package types

// RootType is the name of the designated root record type. Schema discovery
// scans the root type and never descends past it.
const RootType = "Asset"

// Record is a host-managed object with a runtime type name and exported
// scalar fields. Concrete record types embed Asset.
type Record interface {
	// RecordType returns the runtime type name used for schema lookup and
	// written to the Class column.
	RecordType() string

	// Meta returns the host-owned identity of the record.
	Meta() *Asset
}

// Asset is the root record type. The Host owns both fields: InstanceID is
// assigned when the record is committed and Path is its identity token.
type Asset struct {
	InstanceID int64  `json:"-"`
	Path       string `json:"-"`
}

// RecordType returns RootType. Derived types override it.
func (a *Asset) RecordType() string { return RootType }

// Meta returns the asset itself.
func (a *Asset) Meta() *Asset { return a }

// DynamicRecord is a record whose type is declared in configuration rather
// than in Go. Values hold the textual form of each field keyed by name.
type DynamicRecord struct {
	Asset
	Type   string            `json:"type"`
	Values map[string]string `json:"values"`
}

// NewDynamicRecord returns an empty record of the named type.
func NewDynamicRecord(typeName string) *DynamicRecord {
	return &DynamicRecord{
		Type:   typeName,
		Values: make(map[string]string),
	}
}

// RecordType returns the declared type name.
func (r *DynamicRecord) RecordType() string { return r.Type }
