package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("ledger: not found")

// ErrAlreadyApplied is returned when Apply is called on a modification that
// is already live on a page.
var ErrAlreadyApplied = errors.New("ledger: modification already applied")

// DBPool abstracts pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Ledger provides the PostgreSQL implementation of the modification record.
type Ledger struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a ledger instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Ledger, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Ledger{
		pool: pool,
		log:  logger.Named("ledger"),
	}, nil
}

// CreateModification records a new, unapplied modification and returns it
// with its assigned id and timestamp.
func (l *Ledger) CreateModification(ctx context.Context, m Modification) (Modification, error) {
	meta, err := jsonAPI.Marshal(m.Metadata)
	if err != nil {
		return Modification{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `
        INSERT INTO modifications (site_id, page_id, user_id, title, prompt, original_html, modified_html, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at;
    `
	row := l.pool.QueryRow(ctx, query,
		m.SiteID, m.PageID, m.UserID, m.Title, m.Prompt, m.OriginalHTML, m.ModifiedHTML, meta)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return Modification{}, fmt.Errorf("failed to insert modification: %w", err)
	}

	m.Publish = Unapplied()
	return m, nil
}

// AttachStoragePath records where the modified HTML was persisted. The path
// lives inside the metadata document so the row stays self-describing.
func (l *Ledger) AttachStoragePath(ctx context.Context, modificationID int64, path string) error {
	query := `
        UPDATE modifications
        SET metadata = jsonb_set(metadata, '{storage_path}', to_jsonb($2::text))
        WHERE id = $1;
    `
	tag, err := l.pool.Exec(ctx, query, modificationID, path)
	if err != nil {
		return fmt.Errorf("failed to attach storage path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPromptAttempt appends one row to the prompt history. Failed attempts
// carry an error message and no modification reference.
func (l *Ledger) RecordPromptAttempt(ctx context.Context, a PromptAttempt) (int64, error) {
	query := `
        INSERT INTO prompt_history (site_id, user_id, modification_id, prompt, response, success, error_message)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id;
    `
	var id int64
	row := l.pool.QueryRow(ctx, query,
		a.SiteID, a.UserID, a.ModificationID, a.Prompt, a.Response, a.Success, a.ErrorMessage)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to record prompt attempt: %w", err)
	}
	return id, nil
}

const modificationColumns = `id, site_id, page_id, user_id, title, prompt, original_html, modified_html, metadata, applied_page_id, created_at`

func scanModification(row pgx.Row) (Modification, error) {
	var m Modification
	var meta []byte
	var appliedPageID *int64

	err := row.Scan(&m.ID, &m.SiteID, &m.PageID, &m.UserID, &m.Title, &m.Prompt,
		&m.OriginalHTML, &m.ModifiedHTML, &meta, &appliedPageID, &m.CreatedAt)
	if err != nil {
		return Modification{}, err
	}

	if len(meta) > 0 {
		if err := jsonAPI.Unmarshal(meta, &m.Metadata); err != nil {
			return Modification{}, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	if appliedPageID != nil {
		m.Publish = AppliedTo(*appliedPageID)
	}
	return m, nil
}

// GetModification fetches a single modification by id.
func (l *Ledger) GetModification(ctx context.Context, id int64) (Modification, error) {
	query := `SELECT ` + modificationColumns + ` FROM modifications WHERE id = $1;`
	m, err := scanModification(l.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Modification{}, ErrNotFound
		}
		return Modification{}, fmt.Errorf("failed to get modification: %w", err)
	}
	return m, nil
}

// ListModifications returns a site's modifications, newest first, optionally
// narrowed to one page.
func (l *Ledger) ListModifications(ctx context.Context, siteID int64, pageID *int64, limit int) ([]Modification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + modificationColumns + ` FROM modifications WHERE site_id = $1`
	args := []any{siteID}
	if pageID != nil {
		query += ` AND page_id = $2`
		args = append(args, *pageID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d;`, limit)

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query modifications: %w", err)
	}
	defer rows.Close()

	var out []Modification
	for rows.Next() {
		m, err := scanModification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan modification row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// ListPromptHistory returns a site's prompt attempts, newest first.
func (l *Ledger) ListPromptHistory(ctx context.Context, siteID int64, limit int) ([]PromptAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
        SELECT id, site_id, user_id, modification_id, prompt, response, success, error_message, created_at
        FROM prompt_history
        WHERE site_id = $1
        ORDER BY created_at DESC
        LIMIT %d;
    `, limit)

	rows, err := l.pool.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt history: %w", err)
	}
	defer rows.Close()

	var out []PromptAttempt
	for rows.Next() {
		var a PromptAttempt
		err := rows.Scan(&a.ID, &a.SiteID, &a.UserID, &a.ModificationID,
			&a.Prompt, &a.Response, &a.Success, &a.ErrorMessage, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt history row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// CreateSite registers a new site namespace.
func (l *Ledger) CreateSite(ctx context.Context, logicalName, displayName string) (Site, error) {
	s := Site{LogicalName: logicalName, DisplayName: displayName}
	query := `
        INSERT INTO sites (logical_name, display_name)
        VALUES ($1, $2)
        RETURNING id, created_at;
    `
	row := l.pool.QueryRow(ctx, query, logicalName, displayName)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Site{}, fmt.Errorf("failed to insert site: %w", err)
	}
	return s, nil
}

// GetSite fetches a site by id.
func (l *Ledger) GetSite(ctx context.Context, id int64) (Site, error) {
	var s Site
	query := `SELECT id, logical_name, display_name, created_at FROM sites WHERE id = $1;`
	err := l.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.LogicalName, &s.DisplayName, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Site{}, ErrNotFound
		}
		return Site{}, fmt.Errorf("failed to get site: %w", err)
	}
	return s, nil
}

// CreatePage adds a page to a site.
func (l *Ledger) CreatePage(ctx context.Context, p Page) (Page, error) {
	query := `
        INSERT INTO pages (site_id, slug, title, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at;
    `
	row := l.pool.QueryRow(ctx, query, p.SiteID, p.Slug, p.Title, p.Content)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Page{}, fmt.Errorf("failed to insert page: %w", err)
	}
	return p, nil
}

// GetPage fetches a page by id.
func (l *Ledger) GetPage(ctx context.Context, id int64) (Page, error) {
	var p Page
	query := `SELECT id, site_id, slug, title, content, created_at, updated_at FROM pages WHERE id = $1;`
	err := l.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SiteID, &p.Slug, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("failed to get page: %w", err)
	}
	return p, nil
}

// Apply makes a modification live on a page. The page content update and the
// ledger state change happen in one transaction: either both land or neither
// does. Applying an already applied modification is rejected.
func (l *Ledger) Apply(ctx context.Context, modificationID, pageID int64) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			l.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	var modifiedHTML string
	var appliedPageID *int64
	selectQuery := `
        SELECT modified_html, applied_page_id
        FROM modifications
        WHERE id = $1
        FOR UPDATE;
    `
	err = tx.QueryRow(ctx, selectQuery, modificationID).Scan(&modifiedHTML, &appliedPageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock modification: %w", err)
	}
	if appliedPageID != nil {
		return ErrAlreadyApplied
	}

	pageQuery := `
        UPDATE pages
        SET content = $2, updated_at = now()
        WHERE id = $1;
    `
	tag, err := tx.Exec(ctx, pageQuery, pageID, modifiedHTML)
	if err != nil {
		return fmt.Errorf("failed to update page content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	markQuery := `
        UPDATE modifications
        SET applied_page_id = $2
        WHERE id = $1;
    `
	if _, err := tx.Exec(ctx, markQuery, modificationID, pageID); err != nil {
		return fmt.Errorf("failed to mark modification applied: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.log.Info("Modification applied",
		zap.Int64("modification_id", modificationID),
		zap.Int64("page_id", pageID))
	return nil
}
