package mcp

func prop(typ, desc string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": desc}
}

func schema(required []string, props map[string]interface{}) map[string]interface{} {
	s := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// buildToolsList returns the MCP tool definitions.
func buildToolsList() []MCPTool {
	workspace := prop("string", "Workspace ID")
	agent := prop("string", "Agent type, e.g. grants or crm")

	return []MCPTool{
		{
			Name:        "append_turn",
			Description: "Record one conversation turn (user or assistant) for a workspace agent.",
			InputSchema: schema([]string{"workspace_id", "agent_type", "session_id", "role", "content"}, map[string]interface{}{
				"workspace_id": workspace,
				"agent_type":   agent,
				"session_id":   prop("string", "Conversation session ID"),
				"role":         map[string]interface{}{"type": "string", "enum": []string{"user", "assistant"}},
				"content":      prop("string", "Turn text"),
			}),
		},
		{
			Name: "get_context",
			Description: "Assemble the context block for an agent: custom instructions, scope, " +
				"conversation memory, recent turns, open suggestions and any additional context.",
			InputSchema: schema([]string{"workspace_id", "agent_type"}, map[string]interface{}{
				"workspace_id":       workspace,
				"agent_type":         agent,
				"additional_context": prop("string", "Appended verbatim at the end"),
			}),
		},
		{
			Name:        "summarize",
			Description: "Summarize the last week of conversation when enough turns exist. Reports why nothing was produced otherwise.",
			InputSchema: schema([]string{"workspace_id", "agent_type"}, map[string]interface{}{
				"workspace_id": workspace,
				"agent_type":   agent,
			}),
		},
		{
			Name:        "list_suggestions",
			Description: "List unexpired suggestions, most urgent first.",
			InputSchema: schema([]string{"workspace_id"}, map[string]interface{}{
				"workspace_id": workspace,
				"status":       map[string]interface{}{"type": "string", "enum": []string{"new", "seen", "acted", "dismissed"}},
				"agent_type":   prop("string", "Only suggestions from this producer"),
				"limit":        prop("integer", "Max results (default 10)"),
			}),
		},
		{
			Name:        "generate_suggestions",
			Description: "Scan workspace signals (overdue tasks, deadlines, proposals, contacts, activity) and store new proactive suggestions.",
			InputSchema: schema([]string{"workspace_id"}, map[string]interface{}{
				"workspace_id": workspace,
				"agent_type":   prop("string", "Producer recorded on the suggestions (default proactive)"),
			}),
		},
		{
			Name:        "mark_suggestion",
			Description: "Mark a suggestion seen, acted or dismissed. Acted and dismissed are final.",
			InputSchema: schema([]string{"id", "status"}, map[string]interface{}{
				"id":     prop("string", "Suggestion ID"),
				"status": map[string]interface{}{"type": "string", "enum": []string{"seen", "acted", "dismissed"}},
			}),
		},
		{
			Name:        "get_settings",
			Description: "Read the workspace context settings (defaults when never saved).",
			InputSchema: schema([]string{"workspace_id"}, map[string]interface{}{
				"workspace_id": workspace,
			}),
		},
		{
			Name:        "update_settings",
			Description: "Change workspace context settings. Only fields present in update change.",
			InputSchema: schema([]string{"workspace_id", "update"}, map[string]interface{}{
				"workspace_id": workspace,
				"update": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"context_mode":                 map[string]interface{}{"type": "string", "enum": []string{"full", "focused", "minimal"}},
						"include_cross_workspace":      prop("boolean", ""),
						"include_conversation_history": prop("boolean", ""),
						"include_suggestions":          prop("boolean", ""),
						"max_history_messages":         prop("integer", "Must be positive"),
						"max_history_days":             prop("integer", "Must be positive"),
						"excluded_workspace_ids":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"custom_instructions":          prop("string", ""),
					},
				},
			}),
		},
	}
}
