// Package sqlite implements the persistent store for Manifest: the
// feature tree, acceptance criteria, the ephemeral session/task layer,
// implementation notes, and the append-only feature history, all in one
// embedded SQLite database.
package sqlite

// Base DDL for all tables. Foreign keys are declared for documentation
// but not pragma-enforced: ownership and acyclicity are write-time checks
// in the engine, and a deleted feature must leave its active session row
// behind for operator inspection rather than cascade it away.
const (
	createFeatures = `CREATE TABLE IF NOT EXISTS features (
    id TEXT PRIMARY KEY,
    parent_id TEXT REFERENCES features(id),
    title TEXT NOT NULL,
    story TEXT,
    details TEXT,
    state TEXT NOT NULL DEFAULT 'proposed'
        CHECK (state IN ('proposed', 'specified', 'implemented', 'deprecated')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createCriteria = `CREATE TABLE IF NOT EXISTS criteria (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL REFERENCES features(id),
    description TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'complete', 'blocked')),
    verification TEXT NOT NULL DEFAULT 'manual'
        CHECK (verification IN ('manual', 'test')),
    test_file TEXT,
    blocked_reason TEXT,
    completed_at TEXT,
    created_at TEXT NOT NULL
);`

	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL,
    goal TEXT NOT NULL,
    status TEXT NOT NULL
        CHECK (status IN ('active', 'completed', 'failed')),
    created_at TEXT NOT NULL,
    completed_at TEXT
);`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    parent_id TEXT REFERENCES tasks(id),
    title TEXT NOT NULL,
    scope TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'running', 'completed', 'failed')),
    agent_type TEXT NOT NULL
        CHECK (agent_type IN ('claude', 'gemini', 'codex')),
    worktree_path TEXT,
    branch TEXT,
    created_at TEXT NOT NULL
);`

	createNotes = `CREATE TABLE IF NOT EXISTS implementation_notes (
    id TEXT PRIMARY KEY,
    feature_id TEXT REFERENCES features(id),
    task_id TEXT REFERENCES tasks(id),
    content TEXT NOT NULL,
    files_changed TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    CHECK ((feature_id IS NULL) != (task_id IS NULL))
);`

	createHistory = `CREATE TABLE IF NOT EXISTS feature_history (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL REFERENCES features(id),
    session_id TEXT,
    summary TEXT NOT NULL,
    criteria_completed TEXT NOT NULL DEFAULT '[]',
    files_changed TEXT NOT NULL DEFAULT '[]',
    author TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createIndexes = `CREATE INDEX IF NOT EXISTS idx_features_parent ON features(parent_id);
CREATE INDEX IF NOT EXISTS idx_criteria_feature ON criteria(feature_id);
CREATE INDEX IF NOT EXISTS idx_sessions_feature ON sessions(feature_id);
CREATE INDEX IF NOT EXISTS idx_tasks_session ON tasks(session_id);
CREATE INDEX IF NOT EXISTS idx_notes_feature ON implementation_notes(feature_id);
CREATE INDEX IF NOT EXISTS idx_notes_task ON implementation_notes(task_id);
CREATE INDEX IF NOT EXISTS idx_history_feature ON feature_history(feature_id);

-- At most one active session per feature. The lifecycle manager checks
-- this inside the write transaction too; the index is the backstop.
CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_session
    ON sessions(feature_id) WHERE status = 'active';`
)

// schemaDDL is executed in order on Attach.
var schemaDDL = []string{
	createFeatures,
	createCriteria,
	createSessions,
	createTasks,
	createNotes,
	createHistory,
	createIndexes,
}

// migration is one additive schema change: a nullable (or defaulted)
// column added to an existing table. Applied idempotently at Attach by
// inspecting the live table shape.
type migration struct {
	table  string
	column string
	ddl    string
}

// migrations, in order of introduction. Entries are never removed.
var migrations = []migration{
	{
		table:  "feature_history",
		column: "commit_refs",
		ddl:    `ALTER TABLE feature_history ADD COLUMN commit_refs TEXT NOT NULL DEFAULT '[]'`,
	},
}
