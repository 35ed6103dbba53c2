package htmlproc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeInvoker is a canned agent collaborator that records every prompt.
type fakeInvoker struct {
	completion string
	sessionID  string
	err        error

	calls   int
	prompts []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt, sessionID string) (Completion, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return Completion{}, f.err
	}
	sid := f.sessionID
	if sid == "" {
		sid = sessionID
	}
	return Completion{Text: f.completion, SessionID: sid}, nil
}

func testPipeline(agent Invoker, cfg Config) *Pipeline {
	templates := Templates{
		Modify: "modify\n{html}\ninstructions\n{prompt}",
		Create: "create\ninstructions\n{prompt}",
	}
	return NewPipeline(cfg, templates, agent, zap.NewNop())
}

func defaultTestConfig() Config {
	return Config{
		MaxHTMLSize:    1024,
		SanitizeOutput: true,
		MinifyOutput:   false,
		AllowedTags:    testTagSet("iframe", "script", "h1"),
	}
}

func TestModifySizePrecondition(t *testing.T) {
	agent := &fakeInvoker{completion: "```html\n<p>x</p>\n```"}
	cfg := defaultTestConfig()
	cfg.MaxHTMLSize = 10
	p := testPipeline(agent, cfg)

	_, err := p.Modify(context.Background(), strings.Repeat("a", 11), "shrink it", "")

	require.Error(t, err)
	assert.Equal(t, KindSizeExceeded, KindOf(err))
	assert.Zero(t, agent.calls, "size check is a hard precondition; the agent must not be called")
}

func TestModifyHappyPath(t *testing.T) {
	agent := &fakeInvoker{
		completion: "Sure!\n```html\n<html><body><h1>New</h1></body></html>\n```",
		sessionID:  "session-abc",
	}
	p := testPipeline(agent, defaultTestConfig())

	existing := "<html><body><h1>Old</h1></body></html>"
	res, err := p.Modify(context.Background(), existing, "change the heading", "session-abc")
	require.NoError(t, err)

	assert.Contains(t, res.HTML, "<h1>New</h1>")
	assert.Equal(t, len(existing), res.SizeBefore)
	assert.Equal(t, len(res.HTML), res.SizeAfter)
	assert.Equal(t, "session-abc", res.SessionID)
	assert.True(t, res.Validation.Valid)

	require.Equal(t, 1, agent.calls)
	built := agent.prompts[0]
	assert.Contains(t, built, existing, "template must substitute the existing HTML")
	assert.Contains(t, built, "change the heading", "template must substitute the prompt")
}

func TestCreateSkipsSizeCheckAndHTMLPlaceholder(t *testing.T) {
	agent := &fakeInvoker{completion: "```html\n<html><body><p>made</p></body></html>\n```"}
	p := testPipeline(agent, defaultTestConfig())

	res, err := p.Create(context.Background(), "make a page", "")
	require.NoError(t, err)

	assert.Zero(t, res.SizeBefore)
	assert.Equal(t, len(res.HTML), res.SizeAfter)
	assert.NotContains(t, agent.prompts[0], "{prompt}")
	assert.Contains(t, agent.prompts[0], "make a page")
}

func TestAgentFailurePropagatesWithoutResult(t *testing.T) {
	agentErr := errors.New("throttled by upstream")
	agent := &fakeInvoker{err: agentErr}
	p := testPipeline(agent, defaultTestConfig())

	res, err := p.Modify(context.Background(), "<p>x</p>", "anything", "")

	require.Error(t, err)
	assert.Equal(t, KindAgentFailure, KindOf(err))
	assert.ErrorIs(t, err, agentErr, "the collaborator failure is propagated verbatim")
	assert.Zero(t, res, "no partial result on failure")
	assert.Equal(t, 1, agent.calls, "the pipeline never retries")
}

// codedError mimics a transport failure carrying a machine-readable code.
type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

func TestAgentFailureForwardsErrorCode(t *testing.T) {
	agent := &fakeInvoker{err: &codedError{msg: "access denied", code: "AccessDenied"}}
	p := testPipeline(agent, defaultTestConfig())

	_, err := p.Create(context.Background(), "page", "")
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindAgentFailure, pe.Kind)
	assert.Equal(t, "AccessDenied", pe.Code)
}

func TestSanitizeToggle(t *testing.T) {
	response := "```html\n<div onclick=\"x()\"><script>alert(1)</script>hi</div>\n```"

	t.Run("enabled removes dangerous constructs", func(t *testing.T) {
		agent := &fakeInvoker{completion: response}
		p := testPipeline(agent, defaultTestConfig())

		res, err := p.Create(context.Background(), "page", "")
		require.NoError(t, err)
		assert.NotContains(t, res.HTML, "onclick")
		assert.NotContains(t, res.HTML, "<script")
	})

	t.Run("disabled keeps output as extracted", func(t *testing.T) {
		agent := &fakeInvoker{completion: response}
		cfg := defaultTestConfig()
		cfg.SanitizeOutput = false
		p := testPipeline(agent, cfg)

		res, err := p.Create(context.Background(), "page", "")
		require.NoError(t, err)
		assert.Contains(t, res.HTML, "onclick")
		// The persisted validation still reflects the stored output.
		assert.Contains(t, res.Validation.Warnings, warnInlineHandlers)
		assert.Contains(t, res.Validation.Warnings, warnInlineScripts)
	})
}

func TestMinifyToggle(t *testing.T) {
	agent := &fakeInvoker{completion: "```html\n<div>\n  <!-- note -->\n  <p>spaced   out</p>\n</div>\n```"}
	cfg := defaultTestConfig()
	cfg.MinifyOutput = true
	p := testPipeline(agent, cfg)

	res, err := p.Create(context.Background(), "page", "")
	require.NoError(t, err)
	assert.NotContains(t, res.HTML, "<!--")
	assert.Contains(t, res.HTML, "<p>spaced out</p>")
}

func TestModifyLogsPreValidationWarning(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	agent := &fakeInvoker{completion: "```html\n<p>ok</p>\n```"}
	templates := Templates{Modify: "{html}\n{prompt}", Create: "{prompt}"}
	p := NewPipeline(defaultTestConfig(), templates, agent, zap.New(observedCore))

	// Empty existing HTML is invalid, but modification proceeds anyway.
	res, err := p.Modify(context.Background(), "", "fill the page", "")
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", res.HTML)

	require.Equal(t, 1, observedLogs.FilterMessage("Invalid HTML provided for modification").Len(),
		"pre-validation problems are logged, never enforced")
}

func TestEmptyAgentResponseFlowsIntoValidation(t *testing.T) {
	agent := &fakeInvoker{completion: "   "}
	cfg := defaultTestConfig()
	cfg.SanitizeOutput = false
	p := testPipeline(agent, cfg)

	res, err := p.Create(context.Background(), "page", "")
	require.NoError(t, err, "empty extraction is not fatal")
	assert.Empty(t, res.HTML)
	assert.False(t, res.Validation.Valid, "downstream validation reports it as invalid")
}
