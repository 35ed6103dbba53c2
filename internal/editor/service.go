// Package editor coordinates the agent pipeline, the modification ledger and
// page storage into the end-user editing operations.
package editor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageweaver/pageweaver/internal/htmlproc"
	"github.com/pageweaver/pageweaver/internal/ledger"
	"github.com/pageweaver/pageweaver/internal/storage"
)

// Pipeline is the HTML generation collaborator.
type Pipeline interface {
	Modify(ctx context.Context, existingHTML, prompt, sessionID string) (htmlproc.Result, error)
	Create(ctx context.Context, prompt, sessionID string) (htmlproc.Result, error)
}

// Recorder is the ledger collaborator.
type Recorder interface {
	CreateModification(ctx context.Context, m ledger.Modification) (ledger.Modification, error)
	RecordPromptAttempt(ctx context.Context, a ledger.PromptAttempt) (int64, error)
	AttachStoragePath(ctx context.Context, modificationID int64, path string) error
	GetSite(ctx context.Context, id int64) (ledger.Site, error)
	GetPage(ctx context.Context, id int64) (ledger.Page, error)
	GetModification(ctx context.Context, id int64) (ledger.Modification, error)
	ListModifications(ctx context.Context, siteID int64, pageID *int64, limit int) ([]ledger.Modification, error)
	ListPromptHistory(ctx context.Context, siteID int64, limit int) ([]ledger.PromptAttempt, error)
	Apply(ctx context.Context, modificationID, pageID int64) error
}

// PageWriter persists generated pages.
type PageWriter interface {
	Store(ctx context.Context, siteName, filename, html string, metadata map[string]any) (storage.StoredPage, error)
}

// ModifyRequest describes one modification of existing HTML.
type ModifyRequest struct {
	SiteID       int64
	PageID       *int64
	UserID       *int64
	Prompt       string
	ExistingHTML string
	SessionID    string
	// SaveTitle, when set, becomes the recorded modification title and the
	// result is persisted to page storage under a filename derived from it.
	SaveTitle string
}

// CreateRequest describes generation of a brand new page.
type CreateRequest struct {
	SiteID    int64
	UserID    *int64
	Prompt    string
	SessionID string
	SaveTitle string
}

// EditResult is the outcome of a successful modify or create operation.
type EditResult struct {
	Modification ledger.Modification `json:"modification"`
	Processing   htmlproc.Result     `json:"processing"`
	StoragePath  string              `json:"storage_path,omitempty"`
}

// Service implements the editing operations. Every prompt attempt lands in
// the history, successful or not; only successful ones produce a ledger
// modification.
type Service struct {
	pipeline Pipeline
	ledger   Recorder
	pages    PageWriter
	log      *zap.Logger
}

// NewService wires the editor from its collaborators.
func NewService(pipeline Pipeline, rec Recorder, pages PageWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pipeline: pipeline,
		ledger:   rec,
		pages:    pages,
		log:      logger.Named("editor"),
	}
}

// ModifyPage runs the pipeline against existing HTML and records the outcome.
func (s *Service) ModifyPage(ctx context.Context, req ModifyRequest) (EditResult, error) {
	result, err := s.pipeline.Modify(ctx, req.ExistingHTML, req.Prompt, req.SessionID)
	if err != nil {
		s.recordFailure(ctx, req.SiteID, req.UserID, req.Prompt, err)
		return EditResult{}, err
	}
	return s.recordSuccess(ctx, recordParams{
		siteID:       req.SiteID,
		pageID:       req.PageID,
		userID:       req.UserID,
		prompt:       req.Prompt,
		originalHTML: req.ExistingHTML,
		saveTitle:    req.SaveTitle,
	}, result)
}

// CreatePage generates a new page from a prompt and records the outcome.
func (s *Service) CreatePage(ctx context.Context, req CreateRequest) (EditResult, error) {
	result, err := s.pipeline.Create(ctx, req.Prompt, req.SessionID)
	if err != nil {
		s.recordFailure(ctx, req.SiteID, req.UserID, req.Prompt, err)
		return EditResult{}, err
	}
	return s.recordSuccess(ctx, recordParams{
		siteID:    req.SiteID,
		userID:    req.UserID,
		prompt:    req.Prompt,
		saveTitle: req.SaveTitle,
	}, result)
}

// ApplyResult is the post-transition view of an applied modification.
type ApplyResult struct {
	Page         ledger.Page         `json:"page"`
	Modification ledger.Modification `json:"modification"`
}

// Apply makes a recorded modification live on a page and returns the updated
// page and record.
func (s *Service) Apply(ctx context.Context, modificationID, pageID int64) (ApplyResult, error) {
	if err := s.ledger.Apply(ctx, modificationID, pageID); err != nil {
		return ApplyResult{}, err
	}

	page, err := s.ledger.GetPage(ctx, pageID)
	if err != nil {
		return ApplyResult{}, err
	}
	mod, err := s.ledger.GetModification(ctx, modificationID)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{Page: page, Modification: mod}, nil
}

// Modifications lists a site's recorded modifications.
func (s *Service) Modifications(ctx context.Context, siteID int64, pageID *int64, limit int) ([]ledger.Modification, error) {
	return s.ledger.ListModifications(ctx, siteID, pageID, limit)
}

// History lists a site's prompt attempts.
func (s *Service) History(ctx context.Context, siteID int64, limit int) ([]ledger.PromptAttempt, error) {
	return s.ledger.ListPromptHistory(ctx, siteID, limit)
}

type recordParams struct {
	siteID       int64
	pageID       *int64
	userID       *int64
	prompt       string
	originalHTML string
	saveTitle    string
}

func (s *Service) recordFailure(ctx context.Context, siteID int64, userID *int64, prompt string, cause error) {
	_, err := s.ledger.RecordPromptAttempt(ctx, ledger.PromptAttempt{
		SiteID:       siteID,
		UserID:       userID,
		Prompt:       prompt,
		Success:      false,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		s.log.Warn("Failed to record failed prompt attempt", zap.Error(err))
	}
}

func (s *Service) recordSuccess(ctx context.Context, p recordParams, result htmlproc.Result) (EditResult, error) {
	mod, err := s.ledger.CreateModification(ctx, ledger.Modification{
		SiteID:       p.siteID,
		PageID:       p.pageID,
		UserID:       p.userID,
		Title:        p.saveTitle,
		Prompt:       p.prompt,
		OriginalHTML: p.originalHTML,
		ModifiedHTML: result.HTML,
		Metadata: ledger.Metadata{
			Validation: validationMap(result.Validation),
			SizeBefore: result.SizeBefore,
			SizeAfter:  result.SizeAfter,
			SessionID:  result.SessionID,
		},
	})
	if err != nil {
		return EditResult{}, fmt.Errorf("failed to record modification: %w", err)
	}

	if _, err := s.ledger.RecordPromptAttempt(ctx, ledger.PromptAttempt{
		SiteID:         p.siteID,
		UserID:         p.userID,
		ModificationID: &mod.ID,
		Prompt:         p.prompt,
		Response:       result.HTML,
		Success:        true,
	}); err != nil {
		s.log.Warn("Failed to record prompt attempt", zap.Error(err))
	}

	out := EditResult{Modification: mod, Processing: result}

	if p.saveTitle != "" {
		path, err := s.saveToStorage(ctx, p.siteID, p.saveTitle, mod, result)
		if err != nil {
			s.log.Warn("Failed to persist generated page",
				zap.Int64("modification_id", mod.ID), zap.Error(err))
		} else {
			out.StoragePath = path
		}
	}

	return out, nil
}

// saveToStorage writes the generated HTML under the owning site's namespace
// and links the blob path back to the ledger row.
func (s *Service) saveToStorage(ctx context.Context, siteID int64, title string, mod ledger.Modification, result htmlproc.Result) (string, error) {
	site, err := s.ledger.GetSite(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve site: %w", err)
	}

	filename := fmt.Sprintf("%s-%d", Slugify(title), time.Now().Unix())
	stored, err := s.pages.Store(ctx, site.LogicalName, filename, result.HTML, map[string]any{
		"prompt":          mod.Prompt,
		"session_id":      result.SessionID,
		"modification_id": mod.ID,
		"validation":      validationMap(result.Validation),
	})
	if err != nil {
		return "", err
	}

	if err := s.ledger.AttachStoragePath(ctx, mod.ID, stored.Path); err != nil {
		s.log.Warn("Failed to link storage path to modification",
			zap.Int64("modification_id", mod.ID),
			zap.String("path", stored.Path), zap.Error(err))
	}
	return stored.Path, nil
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a page title into a filesystem and URL safe name.
func Slugify(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "page"
	}
	return slug
}

func validationMap(r htmlproc.ValidationReport) map[string]any {
	return map[string]any{
		"valid":    r.Valid,
		"errors":   r.Errors,
		"warnings": r.Warnings,
	}
}
