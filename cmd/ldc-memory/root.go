package main

import (
	"github.com/spf13/cobra"
)

const rootLongDesc string = `ldc-memory keeps conversation memory for workspace agents and proposes
proactive suggestions from workspace activity.

Run the engine using:
  ldc-memory serve       Run the HTTP API (and the scheduler when enabled)
  ldc-memory summarize   Summarize one workspace/agent pair now
  ldc-memory suggest     Generate suggestions for one workspace now
  ldc-memory context     Print the assembled context for an agent
  ldc-memory mcp         Serve the memory tools over MCP (stdio)
  ldc-memory backup      Snapshot the SQLite database`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ldc-memory",
		Short:        "Agent memory and proactive suggestion engine",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSummarizeCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newContextCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newBackupCmd())

	return cmd
}
