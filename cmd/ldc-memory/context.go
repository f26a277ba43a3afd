package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	var workspace, agent, additional string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the context an agent would receive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			assembled, err := a.engine.AssembleContext(cmd.Context(), workspace, agent, additional)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), assembled)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), assembled.Text)
			return err
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace ID")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Agent type")
	cmd.Flags().StringVar(&additional, "additional", "", "Caller-supplied context appended verbatim")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}
