// Package llm provides the completion-oracle clients (OpenAI, Anthropic,
// Ollama), the system instructions sent to them, and defensive parsers that
// turn their best-effort JSON replies into typed results.
package llm

// SummarySystemPrompt instructs the oracle to compress a conversation
// transcript into a single JSON object.
const SummarySystemPrompt = `You maintain long-term memory for an AI assistant used by a nonprofit ministry team.
Summarize the conversation transcript you are given.

Respond with ONLY a JSON object, no prose and no markdown, in exactly this shape:
{
  "summary": "2-4 sentence prose summary of what was discussed",
  "key_topics": ["short topic", "..."],
  "key_decisions": ["decision that was made", "..."],
  "action_items": ["follow-up someone committed to", "..."]
}

Use empty arrays when there is nothing to report. Do not invent facts.`

// SuggestionSystemPrompt instructs the oracle to turn workspace signals into
// a short list of proactive suggestions.
const SuggestionSystemPrompt = `You are a proactive assistant for a nonprofit ministry operations team.
You are given a snapshot of workspace signals: overdue and upcoming tasks, funding deadlines,
open proposals, cooling relationships and recent activity.

Propose 3 to 5 concrete, non-obvious suggestions that would help the team this week.

Respond with ONLY a JSON array, no prose and no markdown. Each element:
{
  "type": "opportunity" | "reminder" | "insight" | "warning" | "recommendation",
  "title": "short imperative title",
  "content": "1-3 sentences explaining what to do and why",
  "priority": "low" | "medium" | "high" | "urgent",
  "trigger_reason": "which signal prompted this",
  "related_entity": {"type": "task" | "opportunity" | "proposal" | "contact", "id": "..."},
  "action": {"type": "short_action_name", "parameters": {}},
  "expires_in_days": 7
}

related_entity, action and expires_in_days are optional. Only reference ids that appear in the signals.`
