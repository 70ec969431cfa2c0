package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// typeView describes a declared record type and its sheet columns.
type typeView struct {
	Name    string   `json:"name"`
	Base    string   `json:"base,omitempty"`
	Columns []string `json:"columns"`
	Hidden  []string `json:"hidden,omitempty"`
}

func (a *app) newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List declared record types and their sheet columns",
		Long: `List every record type declared in config.yaml with the columns its sheet
carries after the Class, InstanceID, and Path columns. Columns run from the
type's own fields through each base type to the root.`,
		Args: cobra.NoArgs,
		RunE: a.runTypes,
	}
}

func (a *app) runTypes(cmd *cobra.Command, args []string) error {
	reg, err := a.buildRegistry()
	if err != nil {
		return err
	}

	var views []typeView
	for _, name := range a.sheetTypes(reg, nil) {
		def, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		all, err := reg.AllFields(name)
		if err != nil {
			return err
		}
		view := typeView{Name: name, Base: def.Base, Columns: []string{}}
		for _, f := range all {
			if f.Exported() {
				view.Columns = append(view.Columns, f.Label())
			} else {
				view.Hidden = append(view.Hidden, f.Name)
			}
		}
		views = append(views, view)
	}

	out := cmd.OutOrStdout()
	if a.jsonOut {
		if views == nil {
			views = []typeView{}
		}
		return printJSON(out, views)
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "No types declared.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tBASE\tCOLUMNS")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Base, strings.Join(v.Columns, ", "))
	}
	return w.Flush()
}
