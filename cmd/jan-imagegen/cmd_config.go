package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janhq/jan-imagegen/pkg/config/codegen"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
		Long:  `Inspect the effective configuration, print its JSON Schema, or print the defaults.`,
	}

	var format string
	var provenance, showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}
			cfg := *loader.Get()
			if !showSecrets && cfg.API.APIKey != "" {
				cfg.API.APIKey = "********"
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				if err := codegen.WriteYAML(out, &cfg, ""); err != nil {
					return err
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
			if provenance {
				fmt.Fprintln(out)
				fmt.Fprint(out, loader.Provenance())
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	showCmd.Flags().BoolVar(&provenance, "provenance", false, "Also print which source set each value")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the API key unmasked")

	var schemaDir string
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schemaDir != "" {
				if err := codegen.GenerateJSONSchema(schemaDir); err != nil {
					return fmt.Errorf("generate JSON schema: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", schemaDir)
				return nil
			}
			return codegen.WriteJSONSchema(cmd.OutOrStdout())
		},
	}
	schemaCmd.Flags().StringVarP(&schemaDir, "output", "o", "", "Write schema files to this directory instead of stdout")

	var defaultsFile string
	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if defaultsFile == "" {
				return codegen.WriteDefaultsYAML(cmd.OutOrStdout())
			}
			f, err := os.Create(defaultsFile)
			if err != nil {
				return fmt.Errorf("create %s: %w", defaultsFile, err)
			}
			defer f.Close()
			if err := codegen.WriteDefaultsYAML(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Defaults written to %s\n", defaultsFile)
			return nil
		},
	}
	defaultsCmd.Flags().StringVarP(&defaultsFile, "output", "o", "", "Write to this file instead of stdout")

	cmd.AddCommand(showCmd, schemaCmd, defaultsCmd)
	return cmd
}
