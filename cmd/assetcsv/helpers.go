package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/assetcsv/internal/paths"
	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/internal/sheets"
	"github.com/mesh-intelligence/assetcsv/internal/sqlite"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// buildRegistry registers the root type and every type declared in config.
func (a *app) buildRegistry() (*schema.Registry, error) {
	reg := schema.NewRegistry()
	if err := schema.RegisterConfig(reg, a.cfg.Types); err != nil {
		return nil, fmt.Errorf("declare types: %w", err)
	}
	return reg, nil
}

// attachBackend resolves the data directory, creates the asset store, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	reg, err := a.buildRegistry()
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
	if err != nil {
		return nil, systemError(fmt.Errorf("resolve data dir: %w", err))
	}

	cfg := a.cfg
	cfg.DataDir = dataDir
	backend := sqlite.NewBackend(reg)
	if err := backend.Attach(cfg); err != nil {
		return nil, systemError(fmt.Errorf("attach store: %w", err))
	}
	a.logger.Debug("store attached", "data_dir", dataDir)
	return backend, nil
}

// detach closes the store at the end of a command. A failed flush is a
// system error joined onto the command's own error.
func (a *app) detach(backend *sqlite.Backend, err *error) {
	if derr := backend.Detach(); derr != nil {
		*err = errors.Join(*err, systemError(fmt.Errorf("detach store: %w", derr)))
	}
}

// sheetOptions resolves the sheet root and import settings from config.
func (a *app) sheetOptions() (sheets.Options, error) {
	csvRoot, err := paths.ResolveCSVDir("", a.cfg.CSVDir, types.DefaultCSVDir)
	if err != nil {
		return sheets.Options{}, systemError(fmt.Errorf("resolve csv dir: %w", err))
	}
	return sheets.Options{
		CSVRoot:       csvRoot,
		AssetDir:      a.cfg.AssetDir,
		CreateMissing: a.cfg.CreateMissing,
		Pattern:       a.cfg.ImportPattern,
	}, nil
}

// newService builds the sheet workflow over an attached store. It logs
// through the logger setup placed on the command context.
func (a *app) newService(backend *sqlite.Backend, opts sheets.Options) *sheets.Service {
	return sheets.New(backend, backend.Registry(), afero.NewOsFs(), opts, nil)
}

// sheetTypes returns args, or every declared type when args is empty.
func (a *app) sheetTypes(reg *schema.Registry, args []string) []string {
	if len(args) > 0 {
		return args
	}
	var names []string
	for _, n := range reg.Names() {
		if n != reg.Root() {
			names = append(names, n)
		}
	}
	return names
}

// recordView is the printable form of a record.
type recordView struct {
	Type       string            `json:"type"`
	InstanceID int64             `json:"instance_id"`
	Path       string            `json:"path"`
	Fields     map[string]string `json:"fields"`
	Hidden     []string          `json:"hidden,omitempty"`
}

// viewOf renders every scalar field of rec, hidden ones included.
func viewOf(reg *schema.Registry, rec types.Record) (recordView, error) {
	fields, err := reg.AllFields(rec.RecordType())
	if err != nil {
		return recordView{}, err
	}
	view := recordView{
		Type:       rec.RecordType(),
		InstanceID: rec.Meta().InstanceID,
		Path:       rec.Meta().Path,
		Fields:     make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if !f.Kind.IsScalar() {
			continue
		}
		v, err := f.Get(rec)
		if err != nil {
			return recordView{}, err
		}
		view.Fields[f.Name] = v.Format()
		if f.Hidden {
			view.Hidden = append(view.Hidden, f.Name)
		}
	}
	return view, nil
}

// applyAssignments sets each name=value pair on rec.
func applyAssignments(reg *schema.Registry, rec types.Record, assignments []string) error {
	if len(assignments) == 0 {
		return nil
	}
	fields, err := reg.AllFields(rec.RecordType())
	if err != nil {
		return err
	}
	byName := make(map[string]schema.Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	for _, a := range assignments {
		name, text, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid assignment %q, want field=value", a)
		}
		f, ok := byName[name]
		if !ok || !f.Kind.IsScalar() {
			return fmt.Errorf("%w: type %s has no scalar field %s", types.ErrInvalidSchema, rec.RecordType(), name)
		}
		v, err := types.ParseValue(f.Kind, text)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if err := f.Set(rec, v); err != nil {
			return err
		}
	}
	return nil
}

// suggestedPath turns a record name into a store path under assetDir.
// Names that already look like paths are used as given.
func suggestedPath(assetDir, name string) string {
	if strings.Contains(name, "/") || strings.HasSuffix(name, ".asset") {
		return name
	}
	return path.Join(assetDir, name+".asset")
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
