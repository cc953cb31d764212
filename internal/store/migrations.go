package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL DEFAULT '',
	message              TEXT NOT NULL DEFAULT '',
	type                 TEXT NOT NULL DEFAULT 'info',
	received_at          DATETIME NOT NULL,
	is_read              INTEGER NOT NULL DEFAULT 0,
	tag                  TEXT NOT NULL DEFAULT '',
	user_notification_id TEXT NOT NULL DEFAULT '',
	position             INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notifications_is_read ON notifications(is_read);
CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
