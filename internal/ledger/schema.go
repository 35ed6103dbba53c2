package ledger

import (
	"context"
	"fmt"
)

// The ledger schema. A modification's publication status lives in a single
// nullable applied_page_id column: NULL means unapplied, a page id means
// applied to that page. This keeps "applied" and "to which page" from ever
// disagreeing.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sites (
		id           BIGSERIAL PRIMARY KEY,
		logical_name TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id         BIGSERIAL PRIMARY KEY,
		site_id    BIGINT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		slug       TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (site_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS modifications (
		id              BIGSERIAL PRIMARY KEY,
		site_id         BIGINT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		page_id         BIGINT REFERENCES pages(id) ON DELETE SET NULL,
		user_id         BIGINT,
		title           TEXT NOT NULL DEFAULT '',
		prompt          TEXT NOT NULL,
		original_html   TEXT NOT NULL DEFAULT '',
		modified_html   TEXT NOT NULL,
		metadata        JSONB NOT NULL DEFAULT '{}'::jsonb,
		applied_page_id BIGINT REFERENCES pages(id) ON DELETE SET NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_modifications_site_page
		ON modifications (site_id, page_id)`,
	`CREATE TABLE IF NOT EXISTS prompt_history (
		id              BIGSERIAL PRIMARY KEY,
		site_id         BIGINT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		user_id         BIGINT,
		modification_id BIGINT REFERENCES modifications(id) ON DELETE SET NULL,
		prompt          TEXT NOT NULL,
		response        TEXT NOT NULL DEFAULT '',
		success         BOOLEAN NOT NULL DEFAULT false,
		error_message   TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prompt_history_site
		ON prompt_history (site_id, created_at)`,
}

// EnsureSchema creates the ledger tables if they do not exist. It is safe to
// run on every startup.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
