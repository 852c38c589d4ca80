package postgres

import (
	"context"
	"fmt"
)

// schemaDDL is applied at startup by every service; all statements are
// idempotent so concurrent starts are safe.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS news (
	id           BIGINT PRIMARY KEY,
	url          TEXT NOT NULL,
	ts           TIMESTAMPTZ NOT NULL,
	content_path TEXT NOT NULL DEFAULT '',
	skipped      BOOLEAN NOT NULL DEFAULT FALSE,
	failed       BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS news_pending_idx ON news (ts)
	WHERE content_path = '' AND NOT skipped AND NOT failed;

CREATE TABLE IF NOT EXISTS categories_catalog (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS news_categories (
	news_id  BIGINT NOT NULL REFERENCES news(id),
	category TEXT NOT NULL REFERENCES categories_catalog(name),
	PRIMARY KEY (news_id, category)
);

CREATE TABLE IF NOT EXISTS daily_indexes (
	day  DATE PRIMARY KEY,
	path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS index_gaps (
	gap_start DATE PRIMARY KEY,
	gap_end   DATE NOT NULL,
	CHECK (gap_start < gap_end)
);

CREATE TABLE IF NOT EXISTS smart_categories (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	ignore      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS notifier_news (
	article_id BIGINT PRIMARY KEY REFERENCES news(id),
	ts         TIMESTAMPTZ NOT NULL,
	relation   TEXT NOT NULL,
	category   TEXT NOT NULL REFERENCES smart_categories(name),
	skip       BOOLEAN NOT NULL DEFAULT FALSE,
	failed     BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS notifier_news_ts_idx ON notifier_news (ts);

CREATE TABLE IF NOT EXISTS notifier_summaries (
	article_id BIGINT NOT NULL REFERENCES notifier_news(article_id),
	lang       TEXT NOT NULL,
	path       TEXT NOT NULL,
	PRIMARY KEY (article_id, lang)
);

CREATE TABLE IF NOT EXISTS notifier_sent (
	article_id BIGINT PRIMARY KEY,
	sent_at    TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("op=schema.ensure: %w", err)
	}
	return nil
}
