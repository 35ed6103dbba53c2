package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pageweaver/pageweaver/internal/config"
)

type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitializeWritesToConsole(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "pageweaver-test",
	}, zapcore.Lock(zapcore.AddSync(buf)))

	logger := GetLogger()
	require.NotNil(t, logger)

	logger.Info("hello from test")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "hello from test")
	assert.Contains(t, out, "pageweaver-test")
}

func TestInitializeOnlyRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}

	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "one"}, zapcore.Lock(zapcore.AddSync(first)))
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "two"}, zapcore.Lock(zapcore.AddSync(second)))

	GetLogger().Info("routed to first writer")
	_ = GetLogger().Sync()

	assert.Contains(t, first.String(), "routed to first writer")
	assert.Empty(t, second.String())
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger, "fallback logger must never be nil")
}
