package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/internal/cli"
	"github.com/aretw0/sopflow/internal/presentation/tui"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var caseCmd = &cobra.Command{
	Use:     "case",
	Aliases: []string{"cases"},
	Short:   "Open, move and inspect cases",
	Long:    `A case is one running instance of a SOP. Cases live in the configured store.`,
}

var caseNewCmd = &cobra.Command{
	Use:   "new <definition-id>",
	Short: "Open a new case on the start status of a definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		color, _ := cmd.Flags().GetString("color")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		obj, err := app.Engine.Open(cmd.Context(), args[0], name, color)
		if err != nil {
			return err
		}
		def, err := app.Engine.Definition(cmd.Context(), obj.DefinitionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.StatusLine(def, obj))
		return nil
	},
}

var caseMoveCmd = &cobra.Command{
	Use:   "move <case-id> <action-id>",
	Short: "Take an action on a case",
	Long: `Moves the case along an action leaving its current status. Required fields are
given as --field Name=value (values are parsed as YAML scalars, so numbers and
booleans keep their type) and documents as --doc "Name".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, _ := cmd.Flags().GetString("actor")
		role, _ := cmd.Flags().GetString("role")
		docs, _ := cmd.Flags().GetStringArray("doc")
		rawFields, _ := cmd.Flags().GetStringArray("field")

		fields, err := parseFields(rawFields)
		if err != nil {
			return err
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Engine.Move(cmd.Context(), args[0], sopflow.TransitionRequest{
			EdgeID:            args[1],
			FieldValues:       fields,
			DocumentsAttached: docs,
			Actor:             actor,
			Role:              role,
		})
		var terr *domain.TransitionError
		if errors.As(err, &terr) {
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "❌ %s\n", terr.Message)
			for _, m := range terr.Missing {
				fmt.Fprintf(out, "   - %s\n", m)
			}
			return errors.New("transition rejected")
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		cli.SystemMessage(out, "%s: %s → %s", res.Entry.Action, res.Entry.FromStatusLabel, res.Entry.ToStatusLabel)
		for _, line := range tui.NotificationLines(res.Object.Name, res.Entry) {
			fmt.Fprintf(out, "  %s\n", line)
		}
		if res.Object.IsComplete {
			cli.SystemMessage(out, "Case complete.")
		}
		return nil
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Show where a case is, what it can do next and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		obj, err := app.Engine.Case(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			data, err := json.MarshalIndent(obj, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling case: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		def, err := app.Engine.Definition(cmd.Context(), obj.DefinitionID)
		if err != nil {
			return err
		}
		return tui.Write(cmd.OutOrStdout(), tui.CaseReport(def, obj, role))
	},
}

var caseLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		ids, err := app.Engine.Cases(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No cases found.")
			return nil
		}
		for _, id := range ids {
			obj, err := app.Engine.Case(ctx, id)
			if err != nil {
				app.Logger.Warn("skipping unreadable case", "case_id", id, "error", err)
				continue
			}
			def, err := app.Engine.Definition(ctx, obj.DefinitionID)
			if err != nil {
				fmt.Fprintf(out, "%s  %s  (unknown SOP %s)\n", obj.ID, obj.Name, obj.DefinitionID)
				continue
			}
			fmt.Fprintln(out, tui.StatusLine(def, obj))
		}
		return nil
	},
}

var caseRmCmd = &cobra.Command{
	Use:   "rm <case-id>...",
	Short: "Remove one or more cases",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		hasError := false
		for _, id := range args {
			if err := app.Engine.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				hasError = true
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed case '%s'\n", id)
		}
		if hasError {
			return errors.New("some cases could not be removed")
		}
		return nil
	},
}

var caseProgressCmd = &cobra.Command{
	Use:   "progress <case-id>",
	Short: "Estimate how far a case is from an end status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		p, err := app.Engine.Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d%% (%d/%d)\n", p.Percentage, p.Steps, p.Total)
		return nil
	},
}

var caseExportCmd = &cobra.Command{
	Use:   "export <case-id>",
	Short: "Export the audit trail of a case as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		w := cmd.OutOrStdout()
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return app.Engine.ExportCSV(cmd.Context(), args[0], w)
	},
}

func init() {
	rootCmd.AddCommand(caseCmd)
	caseCmd.AddCommand(caseNewCmd, caseMoveCmd, caseShowCmd, caseLsCmd, caseRmCmd, caseProgressCmd, caseExportCmd)

	caseNewCmd.Flags().StringP("name", "n", "", "Display name of the case")
	caseNewCmd.Flags().String("color", "", "Display color of the case")

	caseMoveCmd.Flags().StringP("actor", "a", os.Getenv("USER"), "Who takes the action")
	caseMoveCmd.Flags().StringP("role", "r", "", "Role the actor acts in")
	caseMoveCmd.Flags().StringArray("field", nil, "Required field as Name=value (repeatable)")
	caseMoveCmd.Flags().StringArray("doc", nil, "Name of an attached document (repeatable)")

	caseShowCmd.Flags().StringP("role", "r", "", "Only list actions this role may take")
	caseShowCmd.Flags().Bool("json", false, "Print the raw case as JSON")

	caseExportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}

// parseFields turns Name=value pairs into field values. Values are decoded
// as YAML scalars; anything that does not parse stays a string.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected Name=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		switch v.(type) {
		case map[string]any, []any:
			v = raw
		}
		fields[name] = v
	}
	return fields, nil
}
