package store

// migration is a single versioned schema change.
type migration struct {
	version int
	sql     string
}

// migrations are applied in order; each runs at most once per database.
var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				priority TEXT NOT NULL,
				assignee_id TEXT NOT NULL DEFAULT '',
				assignee_name TEXT NOT NULL DEFAULT '',
				due_date TIMESTAMP,
				created_at TIMESTAMP,
				updated_at TIMESTAMP,
				organization_id TEXT NOT NULL DEFAULT '',
				fetched_at TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
			CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);

			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}
