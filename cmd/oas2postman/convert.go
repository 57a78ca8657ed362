package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/oas2postman/internal/generator"
	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
	"github.com/yourorg/oas2postman/pkg/types"
)

func newConvertCmd(g *globals) *cobra.Command {
	var input, output, baseURL, format string
	var strict, stableID, noHistory bool
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an OpenAPI document into a Postman collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stable-id") {
				cfg.Convert.StableID = stableID
			}
			if format == "" {
				format = cfg.Convert.OutputFormat
			}
			format, err = postman.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutputPath(input, format)
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			opts := generator.Options{Logger: logger}
			if g.verbose {
				opts.OnProgress = func(stage string) { fmt.Fprintln(cmd.OutOrStdout(), "-", stage) }
			}
			if !noHistory {
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				if st != nil {
					defer st.Close()
					opts.Store = st
				}
			}

			out, err := generator.Generate(cmd.Context(), generator.Request{
				Source:  types.SourceCLI,
				Input:   input,
				Data:    data,
				Output:  output,
				BaseURL: baseURL,
				Format:  format,
				Strict:  strict,
			}, cfg, opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, warning := range out.Result.Warnings {
				fmt.Fprintln(w, "warning:", warning)
			}
			stats := out.Result.Stats
			fmt.Fprintf(w, "wrote %s (%d folders, %d requests", output, stats.Folders, stats.Requests)
			if stats.Items != stats.Requests {
				fmt.Fprintf(w, ", %d items", stats.Items)
			}
			if stats.Skipped > 0 {
				fmt.Fprintf(w, ", %d skipped", stats.Skipped)
			}
			fmt.Fprintln(w, ")")
			if out.Run.ID != "" {
				fmt.Fprintln(w, "run", out.Run.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "OpenAPI document (JSON or YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "collection file (default <input>.postman_collection.<format>)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL overriding the document servers")
	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml")
	cmd.Flags().BoolVar(&strict, "strict", false, "run full OpenAPI validation first")
	cmd.Flags().BoolVar(&stableID, "stable-id", false, "derive the collection id from title and version")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func defaultOutputPath(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".postman_collection." + format
}

func newValidateCmd(g *globals) *cobra.Command {
	var input string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a document can be converted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			doc, data, err := openapi.Load(input)
			if err != nil {
				return err
			}
			if err := openapi.CheckRequired(doc); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := openapi.CheckVersion(doc); err != nil {
				fmt.Fprintln(w, "warning:", err)
			}
			if strict || cfg.Convert.Strict {
				if err := openapi.ValidateStrict(cmd.Context(), data, input); err != nil {
					return err
				}
			}
			ops := 0
			for _, pi := range doc.Paths.Items {
				ops += len(pi.Operations)
			}
			fmt.Fprintf(w, "ok: %s (%d paths, %d operations)\n", input, doc.Paths.Len(), ops)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "OpenAPI document (JSON or YAML)")
	cmd.Flags().BoolVar(&strict, "strict", false, "run full OpenAPI validation")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
