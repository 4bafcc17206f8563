package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldquote/quotesync/internal/domain/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow <status>",
	Short: "Show the actions available for a quote status",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflow,
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	raw := args[0]
	st := workflow.Normalize(raw)
	primary := workflow.PrimaryAction(raw)
	secondary := workflow.SecondaryActions(raw)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"status":    st,
			"meta":      workflow.MetaFor(raw),
			"primary":   primary,
			"secondary": secondary,
			"manual":    workflow.ManualOptions(raw),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", workflow.Label(st), st)
	if primary == nil {
		fmt.Fprintln(out, "no next step")
	} else {
		fmt.Fprintf(out, "next: %s -> %s\n", primary.Label, primary.Next)
	}
	for _, a := range secondary {
		fmt.Fprintf(out, "also: %s -> %s\n", a.Label, a.Next)
	}
	return nil
}
