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

CREATE TABLE IF NOT EXISTS emails (
	id           TEXT PRIMARY KEY,
	subject      TEXT NOT NULL,
	created      DATETIME NOT NULL,
	to_address   TEXT NOT NULL,
	from_address TEXT NOT NULL,
	loaded       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	read         INTEGER NOT NULL DEFAULT 0,
	tags         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS attachments (
	id         TEXT PRIMARY KEY,
	email_id   TEXT NOT NULL,
	filename   TEXT NOT NULL,
	media_type TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (email_id) REFERENCES emails (id)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_emails_identity
	ON emails(subject, created, to_address, from_address);
CREATE INDEX IF NOT EXISTS idx_attachments_email
	ON attachments(email_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
