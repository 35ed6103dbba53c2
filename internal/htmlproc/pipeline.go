package htmlproc

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pageweaver/pageweaver/internal/config"
)

// Completion is a finished agent exchange.
type Completion struct {
	Text      string
	SessionID string
}

// Invoker is the generative agent collaborator. The pipeline makes exactly
// one invocation per run and propagates failures verbatim; retry policy, if
// any, belongs to the transport behind this interface.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, sessionID string) (Completion, error)
}

// Config is the immutable per-invocation pipeline configuration.
type Config struct {
	MaxHTMLSize    int
	SanitizeOutput bool
	MinifyOutput   bool
	AllowedTags    TagSet
}

// NewConfig converts the application processing section into pipeline form.
func NewConfig(pc config.ProcessingConfig) Config {
	return Config{
		MaxHTMLSize:    pc.MaxHTMLSize,
		SanitizeOutput: pc.SanitizeOutput,
		MinifyOutput:   pc.MinifyOutput,
		AllowedTags:    NewTagSet(pc.AllowedTags),
	}
}

// Templates holds the prompt templates. Modify must contain the {html} and
// {prompt} placeholders, Create only {prompt}.
type Templates struct {
	Modify string
	Create string
}

// Result is the immutable outcome of a successful pipeline run. Failures
// return an *Error instead; no partial Result is ever produced.
type Result struct {
	HTML       string           `json:"html"`
	SizeBefore int              `json:"size_before"`
	SizeAfter  int              `json:"size_after"`
	Validation ValidationReport `json:"validation"`
	SessionID  string           `json:"session_id"`
}

// Pipeline sequences extraction, sanitization, minification and validation
// around a single agent invocation. It is stateless and request-scoped: every
// call is independent and safe to run concurrently.
type Pipeline struct {
	cfg       Config
	templates Templates
	agent     Invoker
	log       *zap.Logger
}

// NewPipeline assembles a pipeline from its collaborators.
func NewPipeline(cfg Config, templates Templates, agent Invoker, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		templates: templates,
		agent:     agent,
		log:       logger.Named("pipeline"),
	}
}

// Modify transforms existing HTML according to a natural-language prompt.
// The size limit is a hard precondition checked before any agent call; the
// validation of the existing HTML is logged, never enforced.
func (p *Pipeline) Modify(ctx context.Context, existingHTML, prompt, sessionID string) (Result, error) {
	if len(existingHTML) > p.cfg.MaxHTMLSize {
		return Result{}, NewSizeExceededError(len(existingHTML), p.cfg.MaxHTMLSize)
	}

	if pre := Validate(existingHTML, p.cfg.AllowedTags); !pre.Valid {
		p.log.Warn("Invalid HTML provided for modification",
			zap.Strings("errors", pre.Errors))
	}

	full := strings.NewReplacer(
		"{html}", existingHTML,
		"{prompt}", prompt,
	).Replace(p.templates.Modify)

	return p.run(ctx, full, sessionID, len(existingHTML))
}

// Create generates new HTML from a natural-language prompt alone.
func (p *Pipeline) Create(ctx context.Context, prompt, sessionID string) (Result, error) {
	full := strings.ReplaceAll(p.templates.Create, "{prompt}", prompt)
	return p.run(ctx, full, sessionID, 0)
}

// errorCode pulls a machine-readable code out of a collaborator failure, when
// the transport attached one.
func errorCode(err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}

// run performs the shared agent-call-and-transform sequence. Sanitization
// runs before minification so the minifier never reasons about
// security-relevant structure, and the final validation reflects exactly
// what is persisted downstream.
func (p *Pipeline) run(ctx context.Context, fullPrompt, sessionID string, sizeBefore int) (Result, error) {
	completion, err := p.agent.Invoke(ctx, fullPrompt, sessionID)
	if err != nil {
		return Result{}, NewAgentFailureError(err, errorCode(err))
	}

	out := Extract(completion.Text)
	if out == "" {
		p.log.Warn("Agent response contained no extractable HTML",
			zap.String("session_id", completion.SessionID))
	}

	if p.cfg.SanitizeOutput {
		s := Sanitize(out)
		if !s.Transformed {
			p.log.Warn("HTML sanitization failed, keeping original",
				zap.String("session_id", completion.SessionID))
		}
		out = s.HTML
	}

	if p.cfg.MinifyOutput {
		m := Minify(out)
		if !m.Transformed {
			p.log.Warn("HTML minification failed, keeping original",
				zap.String("session_id", completion.SessionID))
		}
		out = m.HTML
	}

	report := Validate(out, p.cfg.AllowedTags)

	return Result{
		HTML:       out,
		SizeBefore: sizeBefore,
		SizeAfter:  len(out),
		Validation: report,
		SessionID:  completion.SessionID,
	}, nil
}
