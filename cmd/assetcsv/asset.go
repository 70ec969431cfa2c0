package main

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/assetcsv/internal/logging"
	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

func (a *app) newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage records in the asset store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <type> <name> [field=value...]",
			Short: "Create a record",
			Long: `Create a record of the given type. The name becomes the path
<asset_dir>/<name>.asset unless it already contains a slash or ends in
.asset. A taken path gets a numeric suffix.

Example:
  assetcsv asset add Item sword name=Sword power=10`,
			Args: cobra.MinimumNArgs(2),
			RunE: a.runAssetAdd,
		},
		&cobra.Command{
			Use:   "list <type>",
			Short: "List records of a type",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runAssetList,
		},
		&cobra.Command{
			Use:   "show <path>",
			Short: "Show a record with all of its fields",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runAssetShow,
		},
		&cobra.Command{
			Use:   "set <path> field=value...",
			Short: "Update fields of a record",
			Args:  cobra.MinimumNArgs(2),
			RunE:  a.runAssetSet,
		},
		&cobra.Command{
			Use:   "delete <path>",
			Short: "Delete a record",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runAssetDelete,
		},
	)
	return cmd
}

func (a *app) runAssetAdd(cmd *cobra.Command, args []string) (err error) {
	typeName, name := args[0], args[1]

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	rec, err := backend.Create(typeName)
	if err != nil {
		return err
	}
	if err := applyAssignments(backend.Registry(), rec, args[2:]); err != nil {
		return err
	}
	path, err := backend.MarkForCreation(cmd.Context(), rec, suggestedPath(a.cfg.AssetDir, name))
	if err != nil {
		return err
	}
	if err := backend.PersistAll(cmd.Context()); err != nil {
		return systemError(err)
	}
	logging.FromContext(cmd.Context()).Info("record created", "type", typeName, "path", path, "instance_id", rec.Meta().InstanceID)

	return a.printRecord(cmd, backend.Registry(), rec)
}

func (a *app) runAssetList(cmd *cobra.Command, args []string) (err error) {
	typeName := args[0]

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	reg := backend.Registry()
	fields, err := reg.FieldsOf(typeName)
	if err != nil {
		return err
	}
	recs, err := backend.FindRecords(cmd.Context(), typeName)
	if err != nil {
		return err
	}

	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		v, err := viewOf(reg, rec)
		if err != nil {
			return err
		}
		views = append(views, v)
	}

	out := cmd.OutOrStdout()
	if a.jsonOut {
		return printJSON(out, views)
	}
	if len(views) == 0 {
		fmt.Fprintf(out, "No %s records found.\n", typeName)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "INSTANCE ID\tPATH")
	for _, f := range fields {
		fmt.Fprintf(w, "\t%s", f.Name)
	}
	fmt.Fprintln(w)
	for _, v := range views {
		fmt.Fprintf(w, "%d\t%s", v.InstanceID, v.Path)
		for _, f := range fields {
			fmt.Fprintf(w, "\t%s", v.Fields[f.Name])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %d record(s)\n", len(views))
	return nil
}

func (a *app) runAssetShow(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	rec, err := backend.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return a.printRecord(cmd, backend.Registry(), rec)
}

func (a *app) runAssetSet(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	rec, err := backend.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := applyAssignments(backend.Registry(), rec, args[1:]); err != nil {
		return err
	}
	backend.MarkDirty(rec)
	if err := backend.PersistAll(cmd.Context()); err != nil {
		return systemError(err)
	}
	return a.printRecord(cmd, backend.Registry(), rec)
}

func (a *app) runAssetDelete(cmd *cobra.Command, args []string) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer a.detach(backend, &err)

	if err := backend.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	if a.jsonOut {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// printRecord prints rec as JSON or as an aligned field listing.
func (a *app) printRecord(cmd *cobra.Command, reg *schema.Registry, rec types.Record) error {
	view, err := viewOf(reg, rec)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if a.jsonOut {
		return printJSON(out, view)
	}

	names := make([]string, 0, len(view.Fields))
	for name := range view.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	hidden := make(map[string]bool, len(view.Hidden))
	for _, h := range view.Hidden {
		hidden[h] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Type:\t%s\n", view.Type)
	fmt.Fprintf(w, "InstanceID:\t%s\n", strconv.FormatInt(view.InstanceID, 10))
	fmt.Fprintf(w, "Path:\t%s\n", view.Path)
	for _, name := range names {
		suffix := ""
		if hidden[name] {
			suffix = " (hidden)"
		}
		fmt.Fprintf(w, "%s:\t%s%s\n", name, view.Fields[name], suffix)
	}
	return w.Flush()
}
