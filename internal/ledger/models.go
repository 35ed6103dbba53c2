// Package ledger records every agent-driven HTML modification in PostgreSQL
// and owns the atomic transition that applies a modification to a live page.
package ledger

import (
	"time"
)

// PublishState is the two-state publication status of a modification. A
// modification is either unapplied or applied to exactly one page; there is
// no way to represent "published but to nothing".
type PublishState struct {
	Applied bool
	PageID  int64
}

// Unapplied is the state of every freshly recorded modification.
func Unapplied() PublishState { return PublishState{} }

// AppliedTo marks a modification as live on the given page.
func AppliedTo(pageID int64) PublishState {
	return PublishState{Applied: true, PageID: pageID}
}

// Metadata carries the processing facts captured alongside a modification.
type Metadata struct {
	Validation  map[string]any `json:"validation,omitempty"`
	SizeBefore  int            `json:"size_before"`
	SizeAfter   int            `json:"size_after"`
	SessionID   string         `json:"session_id,omitempty"`
	StoragePath string         `json:"storage_path,omitempty"`
}

// Modification is one recorded agent edit: the prompt, the original and
// modified HTML, and where (if anywhere) the result went live.
type Modification struct {
	ID           int64        `json:"id"`
	SiteID       int64        `json:"site_id"`
	PageID       *int64       `json:"page_id,omitempty"`
	UserID       *int64       `json:"user_id,omitempty"`
	Title        string       `json:"title,omitempty"`
	Prompt       string       `json:"prompt"`
	OriginalHTML string       `json:"original_html"`
	ModifiedHTML string       `json:"modified_html"`
	Metadata     Metadata     `json:"metadata"`
	Publish      PublishState `json:"publish"`
	CreatedAt    time.Time    `json:"created_at"`
}

// PromptAttempt is one row of the prompt history: every invocation attempt,
// successful or not, with the raw response when one exists.
type PromptAttempt struct {
	ID             int64     `json:"id"`
	SiteID         int64     `json:"site_id"`
	UserID         *int64    `json:"user_id,omitempty"`
	ModificationID *int64    `json:"modification_id,omitempty"`
	Prompt         string    `json:"prompt"`
	Response       string    `json:"response,omitempty"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Site is a tenant namespace for pages and modifications.
type Site struct {
	ID          int64     `json:"id"`
	LogicalName string    `json:"logical_name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page is a live page whose content the apply transition replaces.
type Page struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
