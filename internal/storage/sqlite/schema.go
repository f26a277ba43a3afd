package sqlite

// Schema creates every table the store reads or writes. Statements are
// idempotent and applied on every open.
//
// Timestamps are stored as fixed-width UTC text (see formatTime) so that
// string comparison orders them chronologically. Task, opportunity and
// proposal dates are plain YYYY-MM-DD strings.
const Schema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	workspace_id TEXT NOT NULL,
	agent_type TEXT NOT NULL,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content TEXT NOT NULL,
	metadata TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_partition
	ON conversation_turns(workspace_id, agent_type, created_at);
CREATE INDEX IF NOT EXISTS idx_turns_created_at
	ON conversation_turns(created_at);

CREATE TABLE IF NOT EXISTS memory_summaries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	workspace_id TEXT NOT NULL,
	agent_type TEXT NOT NULL,
	summary TEXT NOT NULL,
	key_topics TEXT NOT NULL DEFAULT '[]',
	key_decisions TEXT NOT NULL DEFAULT '[]',
	action_items TEXT NOT NULL DEFAULT '[]',
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL,
	source_message_count INTEGER NOT NULL DEFAULT 0,
	model TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summaries_partition
	ON memory_summaries(workspace_id, agent_type, created_at);

CREATE TABLE IF NOT EXISTS context_settings (
	workspace_id TEXT PRIMARY KEY,
	context_mode TEXT NOT NULL DEFAULT 'full'
		CHECK (context_mode IN ('full', 'focused', 'minimal')),
	include_cross_workspace INTEGER NOT NULL DEFAULT 1,
	include_conversation_history INTEGER NOT NULL DEFAULT 1,
	include_suggestions INTEGER NOT NULL DEFAULT 1,
	max_history_messages INTEGER NOT NULL DEFAULT 50,
	max_history_days INTEGER NOT NULL DEFAULT 30,
	excluded_workspace_ids TEXT NOT NULL DEFAULT '[]',
	custom_instructions TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS suggestions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
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
	action_params TEXT,
	status TEXT NOT NULL DEFAULT 'new'
		CHECK (status IN ('new', 'seen', 'acted', 'dismissed')),
	expires_at TEXT,
	dedupe_key TEXT,
	created_at TEXT NOT NULL,
	seen_at TEXT,
	acted_at TEXT,
	dismissed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_suggestions_workspace_status
	ON suggestions(workspace_id, status, created_at);
CREATE INDEX IF NOT EXISTS idx_suggestions_dedupe
	ON suggestions(workspace_id, dedupe_key, created_at);

-- Collections below are owned by other subsystems. They are created here so
-- a standalone SQLite deployment has somewhere to read signals from.

CREATE TABLE IF NOT EXISTS workspaces (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'todo',
	due_date TEXT,
	assigned_to TEXT
);

CREATE TABLE IF NOT EXISTS opportunities (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	title TEXT NOT NULL,
	funder TEXT,
	status TEXT NOT NULL DEFAULT 'tracking',
	deadline TEXT
);

CREATE TABLE IF NOT EXISTS proposals (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	deadline TEXT
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	name TEXT NOT NULL,
	organization TEXT,
	relationship_status TEXT,
	last_contacted_at TEXT
);

CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	activity_type TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT,
	created_at TEXT NOT NULL
);
`
