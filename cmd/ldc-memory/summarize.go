package main

import (
	"github.com/spf13/cobra"
)

func newSummarizeCmd() *cobra.Command {
	var workspace, agent string
	var all bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize recent conversation for a workspace agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				n, err := a.engine.SummarizeActive(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"created": n})
			}

			result, err := a.engine.SummarizeIfDue(cmd.Context(), workspace, agent)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace ID")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Agent type")
	cmd.Flags().BoolVar(&all, "all", false, "Summarize every pair with recent activity")
	cmd.MarkFlagsOneRequired("workspace", "all")
	cmd.MarkFlagsRequiredTogether("workspace", "agent")
	cmd.MarkFlagsMutuallyExclusive("workspace", "all")

	return cmd
}
