package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <definition-id>",
	Short: "Export the SOP as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the definition. With --case the statuses the
case visited and its current status are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caseID, _ := cmd.Flags().GetString("case")
		if caseID == "" {
			eng, err := openDefinitions(cmd)
			if err != nil {
				return err
			}
			out, err := eng.Graph(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		out, err := app.Engine.Graph(cmd.Context(), args[0], caseID)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("case", "", "Highlight the path of this case")
}
