package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/pkg/adapters/loader"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [definition-id...]",
	Short: "Check SOP definitions for structural problems",
	Long: `Checks that each definition has exactly one start node, at least one end node,
that every status is connected and every action references existing statuses.
Catalog mismatches are reported as warnings and do not fail validation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openDefinitions(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		files, _ := cmd.Flags().GetStringSlice("file")
		if len(files) > 0 {
			return validateFiles(out, eng, files)
		}

		ids := args
		if len(ids) == 0 {
			if ids, err = eng.Definitions(cmd.Context()); err != nil {
				return err
			}
		}
		if len(ids) == 0 {
			fmt.Fprintln(out, "No definitions found.")
			return nil
		}

		failed := false
		for _, id := range ids {
			report, err := eng.Validate(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !printReport(out, id, report) {
				failed = true
			}
		}
		if failed {
			return errInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringSliceP("file", "f", nil, "Validate definition files instead of the loaded directory")
}

func validateFiles(out io.Writer, eng *sopflow.Engine, files []string) error {
	failed := false
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		def, err := loader.Decode(data, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if err != nil {
			fmt.Fprintf(out, "❌ %s\n   - %v\n", path, err)
			failed = true
			continue
		}
		if !printReport(out, def.ID, eng.ValidateDefinition(def)) {
			failed = true
		}
	}
	if failed {
		return errInvalid
	}
	return nil
}

func printReport(out io.Writer, id string, report sopflow.Report) bool {
	if report.Valid {
		fmt.Fprintf(out, "✅ %s\n", id)
	} else {
		fmt.Fprintf(out, "❌ %s\n", id)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(out, "   - %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "   ⚠ %s\n", w)
	}
	return report.Valid
}
