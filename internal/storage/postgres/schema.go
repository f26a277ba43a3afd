// Package postgres provides a PostgreSQL implementation of storage.Store.
package postgres

// Schema creates the tables this engine owns. Statements are idempotent and
// applied on every open.
//
// Operational collections read by the signal queries (tasks, opportunities,
// proposals, contacts, activity_log, workspaces) belong to other subsystems
// and are not created here; when one is missing its signals are empty.
const Schema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    workspace_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_turns_partition
    ON conversation_turns(workspace_id, agent_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_turns_created_at
    ON conversation_turns(created_at);

CREATE TABLE IF NOT EXISTS memory_summaries (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    workspace_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    key_topics TEXT[] NOT NULL DEFAULT '{}',
    key_decisions TEXT[] NOT NULL DEFAULT '{}',
    action_items TEXT[] NOT NULL DEFAULT '{}',
    period_start TIMESTAMPTZ NOT NULL,
    period_end TIMESTAMPTZ NOT NULL,
    source_message_count INTEGER NOT NULL DEFAULT 0,
    model TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_summaries_partition
    ON memory_summaries(workspace_id, agent_type, created_at DESC);

CREATE TABLE IF NOT EXISTS context_settings (
    workspace_id TEXT PRIMARY KEY,
    context_mode TEXT NOT NULL DEFAULT 'full'
        CHECK (context_mode IN ('full', 'focused', 'minimal')),
    include_cross_workspace BOOLEAN NOT NULL DEFAULT TRUE,
    include_conversation_history BOOLEAN NOT NULL DEFAULT TRUE,
    include_suggestions BOOLEAN NOT NULL DEFAULT TRUE,
    max_history_messages INTEGER NOT NULL DEFAULT 50,
    max_history_days INTEGER NOT NULL DEFAULT 30,
    excluded_workspace_ids TEXT[] NOT NULL DEFAULT '{}',
    custom_instructions TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS suggestions (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    workspace_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    suggestion_type TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium'
        CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
    trigger_reason TEXT,
    related_entity_type TEXT,
    related_entity_id TEXT,
    action_type TEXT,
    action_params JSONB,
    status TEXT NOT NULL DEFAULT 'new'
        CHECK (status IN ('new', 'seen', 'acted', 'dismissed')),
    expires_at TIMESTAMPTZ,
    dedupe_key TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    seen_at TIMESTAMPTZ,
    acted_at TIMESTAMPTZ,
    dismissed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_suggestions_workspace_status
    ON suggestions(workspace_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_suggestions_dedupe
    ON suggestions(workspace_id, dedupe_key, created_at)
    WHERE dedupe_key IS NOT NULL;
`
