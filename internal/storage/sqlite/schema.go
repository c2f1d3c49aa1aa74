package sqlite

// Schema creates the tables and indexes for the SQLite backend.
// Entity payloads are stored as JSON keyed by (user_id, kind, id); the
// name and anchor_at columns are denormalized from the payload so the
// lookup queries never have to parse JSON.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	anchor_at  TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at TIMESTAMP,
	PRIMARY KEY (user_id, kind, id)
);

CREATE INDEX IF NOT EXISTS idx_entities_name
	ON entities(user_id, kind, name);

CREATE INDEX IF NOT EXISTS idx_entities_anchor
	ON entities(user_id, kind, anchor_at)
	WHERE anchor_at IS NOT NULL AND deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS entity_links (
	user_id      TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	related_kind TEXT NOT NULL,
	related_id   TEXT NOT NULL,
	strength     REAL NOT NULL DEFAULT 1.0,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, entity_id, related_kind, related_id)
);

CREATE INDEX IF NOT EXISTS idx_entity_links_entity
	ON entity_links(user_id, entity_id, strength);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	timestamp       TIMESTAMP NOT NULL,
	deleted_at      TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, timestamp);

CREATE TABLE IF NOT EXISTS interactions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	action       TEXT NOT NULL,
	entity_kind  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	display_name TEXT NOT NULL,
	timestamp    TIMESTAMP NOT NULL,
	context      TEXT,
	deleted_at   TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_interactions_user
	ON interactions(user_id, timestamp);
`
