package main

import (
	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var workspace, agent string
	var all bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate proactive suggestions from workspace signals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				n, err := a.engine.SuggestActive(cmd.Context(), agent)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"created": n})
			}

			result, err := a.engine.GenerateSuggestions(cmd.Context(), workspace, agent)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace ID")
	cmd.Flags().StringVarP(&agent, "agent", "a", "proactive", "Agent type recorded as the producer")
	cmd.Flags().BoolVar(&all, "all", false, "Generate for every workspace with recent activity")
	cmd.MarkFlagsOneRequired("workspace", "all")
	cmd.MarkFlagsMutuallyExclusive("workspace", "all")

	return cmd
}
