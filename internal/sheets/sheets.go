// Package sheets runs the export and import workflow between a record host
// and the per-type CSV sheets under a sheet root.
//
// Sheets live at <CSVRoot>/<Type>/. Export always writes <Type>.csv there;
// import reads every file in that directory matching Options.Pattern. Rows
// whose path has no record are either reported as deferred or, with
// CreateMissing, committed as new records, after which the sheet is
// re-exported so the new identities show up in it.
package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/mesh-intelligence/assetcsv/internal/csvio"
	"github.com/mesh-intelligence/assetcsv/internal/logging"
	"github.com/mesh-intelligence/assetcsv/internal/paths"
	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Service.
type Options struct {
	// CSVRoot is the directory holding one subdirectory per record type.
	CSVRoot string

	// AssetDir is where records for path-less rows are suggested to go.
	AssetDir string

	// CreateMissing commits rows that match no record as new records.
	// When false such rows are logged and reported as deferred.
	CreateMissing bool

	// Pattern selects the files Import reads; doublestar syntax relative
	// to the type directory. Empty means "*.csv".
	Pattern string

	// Debounce overrides DefaultDebounce for Watch.
	Debounce time.Duration

	// OnImport, when set, receives the outcome of every import Watch runs.
	OnImport func(ImportReport, error)
}

func (o Options) pattern() string {
	if o.Pattern == "" {
		return types.DefaultImportPattern
	}
	return o.Pattern
}

func (o Options) debounce() time.Duration {
	if o.Debounce <= 0 {
		return DefaultDebounce
	}
	return o.Debounce
}

// ExportReport describes one written sheet.
type ExportReport struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	Bytes int    `json:"bytes"`
}

// FileReport describes the import of one sheet.
type FileReport struct {
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
	Applied  int    `json:"applied"`
	Created  int    `json:"created"`
	Deferred int    `json:"deferred"`
	Error    string `json:"error,omitempty"`
}

// ImportReport aggregates an import run over one or more sheets.
type ImportReport struct {
	Type       string        `json:"type"`
	Files      []FileReport  `json:"files"`
	Rows       int           `json:"rows"`
	Applied    int           `json:"applied"`
	Created    int           `json:"created"`
	Deferred   int           `json:"deferred"`
	Reexported *ExportReport `json:"reexported,omitempty"`
}

func (r *ImportReport) add(f FileReport) {
	r.Files = append(r.Files, f)
	r.Rows += f.Rows
	r.Applied += f.Applied
	r.Created += f.Created
	r.Deferred += f.Deferred
}

// Service exports and imports sheets for the records of a host.
type Service struct {
	host   types.Host
	reg    *schema.Registry
	fs     afero.Fs
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	written map[string]string // content hash of each sheet last written by Export
}

// New returns a Service. A nil fsys uses the OS file system. A nil logger
// makes the service log through the logger carried by each call's context
// (see logging.NewContext).
func New(host types.Host, reg *schema.Registry, fsys afero.Fs, opts Options, logger *slog.Logger) *Service {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Service{
		host:    host,
		reg:     reg,
		fs:      fsys,
		opts:    opts,
		logger:  logger,
		written: make(map[string]string),
	}
}

// SheetDir returns the directory holding the sheets of typeName.
func (s *Service) SheetDir(typeName string) string {
	return paths.SheetDir(s.opts.CSVRoot, typeName)
}

// SheetFile returns the export path of typeName.
func (s *Service) SheetFile(typeName string) string {
	return paths.SheetFile(s.opts.CSVRoot, typeName)
}

// Export writes every record of typeName to its sheet. A type without
// records gets a header-only sheet.
func (s *Service) Export(ctx context.Context, typeName string) (ExportReport, error) {
	log := logging.WithFields(s.withLogger(ctx), "type", typeName)
	fields, err := s.reg.FieldsOf(typeName)
	if err != nil {
		return ExportReport{}, err
	}
	recs, err := s.host.FindRecords(ctx, typeName)
	if err != nil {
		return ExportReport{}, fmt.Errorf("finding %s records: %w", typeName, err)
	}

	data := []byte(csvio.Header(fields))
	if len(recs) > 0 {
		if data, err = csvio.Encode(s.reg, recs); err != nil {
			return ExportReport{}, fmt.Errorf("encoding %s: %w", typeName, err)
		}
	}

	path := s.SheetFile(typeName)
	log.Debug("starting export", "path", path)
	if err := csvio.WriteFile(s.fs, path, data); err != nil {
		return ExportReport{}, err
	}
	s.remember(path, data)

	log.Info("completed export",
		"rows", len(recs),
		"path", path,
		"size", humanize.Bytes(uint64(len(data))))
	return ExportReport{Type: typeName, Path: path, Rows: len(recs), Bytes: len(data)}, nil
}

// Import reads every matching sheet of typeName, applies the rows, commits
// changes, and re-exports the sheet when records were created. Changes are
// committed even when a sheet fails; the failures are joined into the
// returned error.
func (s *Service) Import(ctx context.Context, typeName string) (ImportReport, error) {
	ctx = s.withLogger(ctx)
	if _, err := s.reg.Lookup(typeName); err != nil {
		return ImportReport{Type: typeName}, err
	}
	files, err := csvio.ListFiles(s.fs, s.SheetDir(typeName), s.opts.pattern())
	if err != nil {
		return ImportReport{Type: typeName}, err
	}
	if len(files) == 0 {
		logging.FromContext(ctx).Warn("no sheets to import", "type", typeName, "dir", s.SheetDir(typeName), "pattern", s.opts.pattern())
	}
	return s.run(ctx, typeName, files)
}

// ImportFile imports a single sheet of typeName.
func (s *Service) ImportFile(ctx context.Context, typeName, path string) (ImportReport, error) {
	ctx = s.withLogger(ctx)
	if _, err := s.reg.Lookup(typeName); err != nil {
		return ImportReport{Type: typeName}, err
	}
	return s.run(ctx, typeName, []string{path})
}

func (s *Service) run(ctx context.Context, typeName string, files []string) (ImportReport, error) {
	report := ImportReport{Type: typeName}
	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		fr, err := s.importFile(ctx, typeName, file)
		if err != nil {
			fr.Error = err.Error()
			errs = append(errs, err)
		}
		report.add(fr)
	}

	if err := s.host.PersistAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s records: %w", types.ErrCommitFailed, typeName, err))
	}

	if report.Created > 0 {
		logging.FromContext(ctx).Info("re-exporting sheet as new records were created", "type", typeName, "created", report.Created)
		exp, err := s.Export(ctx, typeName)
		if err != nil {
			errs = append(errs, err)
		} else {
			report.Reexported = &exp
		}
	}
	return report, errors.Join(errs...)
}

func (s *Service) importFile(ctx context.Context, typeName, file string) (FileReport, error) {
	fr := FileReport{Path: file}
	log := logging.WithFields(ctx, "type", typeName, "file", file)

	data, err := csvio.ReadFile(s.fs, file)
	if err != nil {
		return fr, err
	}
	log.Debug("starting import")

	res, importErr := csvio.Import(ctx, s.host, s.reg, csvio.ImportRequest{
		TypeName: typeName,
		File:     file,
		Data:     data,
		AssetDir: s.opts.AssetDir,
	})
	fr.Rows = res.Rows
	fr.Applied = res.Applied

	var errs []error
	if importErr != nil {
		log.Error("import stopped", "error", importErr)
		errs = append(errs, importErr)
	}
	for _, p := range res.Pending {
		if !s.opts.CreateMissing {
			log.Warn("row matches no record; deferred", "line", p.Line, "path", p.SuggestedPath)
			fr.Deferred++
			continue
		}
		assigned, err := s.host.MarkForCreation(ctx, p.Record, p.SuggestedPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s:%d: creating record: %w", file, p.Line, err))
			continue
		}
		log.Info("creating a new record", "line", p.Line, "path", assigned)
		fr.Created++
	}

	log.Info("completed import",
		"rows", fr.Rows,
		"applied", fr.Applied,
		"created", fr.Created,
		"deferred", fr.Deferred)
	return fr, errors.Join(errs...)
}

// withLogger returns ctx carrying the service's own logger, if it has one.
func (s *Service) withLogger(ctx context.Context) context.Context {
	if s.logger == nil {
		return ctx
	}
	return logging.NewContext(ctx, s.logger)
}

// remember records the hash of a sheet this service wrote so Watch can
// ignore the resulting file events.
func (s *Service) remember(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[path] = contentHash(data)
}

// changed reports whether data differs from what this service last saw at
// path, and records it as seen.
func (s *Service) changed(path string, data []byte) bool {
	h := contentHash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written[path] == h {
		return false
	}
	s.written[path] = h
	return true
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
