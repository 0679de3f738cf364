package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-electrolux/internal/naming"
)

type resolveOptions struct {
	statePath     string
	model         string
	name          string
	overridesPath string
	format        string
}

func newResolveCmd() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve [capabilities.json]",
		Short: "Print the entities an appliance would expose",
		Long: `resolve maps a capability tree, as returned by the appliance cloud's
info endpoint, to entities without contacting the cloud. With no
capabilities file the entities are inferred from the catalog and the state
document given with --state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var capsPath string
			if len(args) == 1 {
				capsPath = args[0]
			}
			return runResolve(cmd.OutOrStdout(), capsPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.statePath, "state", "", "State document JSON file")
	cmd.Flags().StringVar(&opts.model, "model", "", "Appliance model, selects the model catalog")
	cmd.Flags().StringVar(&opts.name, "name", "Appliance", "Appliance display name")
	cmd.Flags().StringVar(&opts.overridesPath, "overrides", "", "Catalog overrides YAML file")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: table, json")
	return cmd
}

// runResolve builds a throwaway appliance state and writes its readings.
func runResolve(out io.Writer, capsPath string, opts resolveOptions) error {
	if capsPath == "" && opts.statePath == "" {
		return fmt.Errorf("a capabilities file or --state is required")
	}
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var caps capability.Registry
	if capsPath != "" {
		if err := readJSON(capsPath, &caps); err != nil {
			return err
		}
		// The info endpoint wraps the tree; accept either shape.
		if inner, ok := caps["capabilities"].(map[string]any); ok {
			caps = inner
		}
	}
	doc := map[string]any{}
	if opts.statePath != "" {
		if err := readJSON(opts.statePath, &doc); err != nil {
			return err
		}
	}

	catalogs, err := loadCatalogs(config.CatalogConfig{OverridesFile: opts.overridesPath})
	if err != nil {
		return err
	}

	st := appliance.NewState(appliance.Options{
		ID:      "offline",
		Name:    opts.name,
		Model:   opts.model,
		Catalog: catalogs.ForModel(opts.model),
		Factory: entity.NewFactory(naming.MustDefault()),
	})
	st.Setup(caps, doc)
	st.UpdateMissingEntities()

	readings := st.ReadAll()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(readings)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tKIND\tNAME\tVALUE\tUNIT\tCATEGORY")
	for _, r := range readings {
		value := "-"
		if r.Value != nil {
			value = fmt.Sprint(r.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Key, r.Kind, r.Name, value, r.Unit, r.Category)
	}
	return tw.Flush()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
