package store

// schemaVersionV1 is the first session/snapshot layout.
const schemaVersionV1 = 1

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS counter_state (
	session_id   TEXT NOT NULL,
	node_id      TEXT NOT NULL,
	count        REAL NOT NULL,
	trigger_high INTEGER NOT NULL,
	PRIMARY KEY (session_id, node_id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	sample_rate INTEGER NOT NULL,
	beats       INTEGER NOT NULL,
	tempo       REAL NOT NULL,
	payload     BLOB NOT NULL,
	created_at  TEXT NOT NULL
);
`
