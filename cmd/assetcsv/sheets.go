package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/assetcsv/internal/sheets"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [type...]",
		Short: "Write records to their CSV sheets",
		Long: `Write every record of each type to <csv_dir>/<Type>/<Type>.csv, replacing
the previous sheet. With no arguments every declared type is exported.`,
		RunE: a.runExport,
	}
}

func (a *app) runExport(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	opts, err := a.sheetOptions()
	if err != nil {
		return err
	}
	svc := a.newService(backend, opts)

	reports := []sheets.ExportReport{}
	for _, typeName := range a.sheetTypes(backend.Registry(), args) {
		report, err := svc.Export(cmd.Context(), typeName)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()
	if a.jsonOut {
		return printJSON(out, reports)
	}
	for _, r := range reports {
		fmt.Fprintf(out, "Exported %d %s record(s) to %s (%s)\n", r.Rows, r.Type, r.Path, humanize.Bytes(uint64(r.Bytes)))
	}
	return nil
}

func (a *app) newImportCmd() *cobra.Command {
	var createMissing bool
	var pattern string

	cmd := &cobra.Command{
		Use:   "import [type...]",
		Short: "Apply CSV sheets to the stored records",
		Long: `Read every sheet matching the import pattern in <csv_dir>/<Type>/ and
update the record at each row's path. Rows whose path matches no record are
reported as deferred unless --create-missing is given, in which case they
become new records and the sheet is re-exported. With no arguments every
declared type is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("create-missing") {
				a.cfg.CreateMissing = createMissing
			}
			if pattern != "" {
				a.cfg.ImportPattern = pattern
			}
			return a.runImport(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&createMissing, "create-missing", false, "create records for rows that match none (default from config create_missing)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob selecting sheets in each type directory (default from config import_pattern)")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	opts, err := a.sheetOptions()
	if err != nil {
		return err
	}
	svc := a.newService(backend, opts)

	reports := []sheets.ImportReport{}
	var errs []error
	for _, typeName := range a.sheetTypes(backend.Registry(), args) {
		report, err := svc.Import(cmd.Context(), typeName)
		if err != nil {
			err = fmt.Errorf("import %s: %w", typeName, err)
			if errors.Is(err, types.ErrCommitFailed) {
				err = systemError(err)
			}
			errs = append(errs, err)
		}
		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()
	if a.jsonOut {
		if err := printJSON(out, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printImportReport(out, r)
		}
	}
	return errors.Join(errs...)
}

func printImportReport(out io.Writer, r sheets.ImportReport) {
	fmt.Fprintf(out, "Imported %s: %d row(s), %d applied, %d created, %d deferred\n",
		r.Type, r.Rows, r.Applied, r.Created, r.Deferred)
	for _, f := range r.Files {
		if f.Error != "" {
			fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Error)
		}
	}
	if r.Reexported != nil {
		fmt.Fprintf(out, "  re-exported %s\n", r.Reexported.Path)
	}
}

func (a *app) newWatchCmd() *cobra.Command {
	var createMissing bool

	cmd := &cobra.Command{
		Use:   "watch <type>",
		Short: "Import a type's sheets whenever they change",
		Long: `Watch <csv_dir>/<Type>/ and import each sheet when it is saved. Runs until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("create-missing") {
				a.cfg.CreateMissing = createMissing
			}
			return a.runWatch(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&createMissing, "create-missing", false, "create records for rows that match none")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	opts, err := a.sheetOptions()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	opts.OnImport = func(r sheets.ImportReport, _ error) {
		if a.jsonOut {
			_ = printJSON(out, r)
			return
		}
		printImportReport(out, r)
	}
	svc := a.newService(backend, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return svc.Watch(ctx, args[0])
}

func (a *app) newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <type>",
		Short: "Print the path of a type's sheet",
		Long: `Print the path of <csv_dir>/<Type>/<Type>.csv, exporting it first when it
does not exist yet.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runOpen,
	}
}

func (a *app) runOpen(cmd *cobra.Command, args []string) (err error) {
	typeName := args[0]

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	if _, err := backend.Registry().Lookup(typeName); err != nil {
		return err
	}
	opts, err := a.sheetOptions()
	if err != nil {
		return err
	}
	svc := a.newService(backend, opts)

	path := svc.SheetFile(typeName)
	exported := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := svc.Export(cmd.Context(), typeName); err != nil {
			return err
		}
		exported = true
	}

	if a.jsonOut {
		return printJSON(cmd.OutOrStdout(), map[string]any{"type": typeName, "path": path, "exported": exported})
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
