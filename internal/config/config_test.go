package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "pageweaver", cfg.Logger.ServiceName)
	assert.Equal(t, "fs", cfg.Storage.Backend)
	assert.Equal(t, 512*1024, cfg.Processing.MaxHTMLSize)
	assert.True(t, cfg.Processing.SanitizeOutput)
	assert.False(t, cfg.Processing.MinifyOutput)
	assert.Contains(t, cfg.Processing.AllowedTags, "div")
	assert.Contains(t, cfg.Prompts.ModifyHTML, "{html}")
	assert.Contains(t, cfg.Prompts.ModifyHTML, "{prompt}")
	assert.Contains(t, cfg.Prompts.CreateHTML, "{prompt}")

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "rejects non positive max html size",
			mutate:  func(c *Config) { c.Processing.MaxHTMLSize = 0 },
			wantErr: "max_html_size",
		},
		{
			name:    "rejects modify template without html placeholder",
			mutate:  func(c *Config) { c.Prompts.ModifyHTML = "do it: {prompt}" },
			wantErr: "{html}",
		},
		{
			name:    "rejects create template without prompt placeholder",
			mutate:  func(c *Config) { c.Prompts.CreateHTML = "just do something" },
			wantErr: "{prompt}",
		},
		{
			name:    "rejects unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "ftp" },
			wantErr: "storage.backend",
		},
		{
			name: "rejects azure backend without account url",
			mutate: func(c *Config) {
				c.Storage.Backend = "azure"
				c.Storage.Azure.AccountURL = ""
			},
			wantErr: "azure",
		},
		{
			name:    "rejects fs backend without root",
			mutate:  func(c *Config) { c.Storage.Root = "" },
			wantErr: "storage.root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")

	yaml := `
processing:
  max_html_size: 2048
  minify_output: true
storage:
  backend: azure
  azure:
    account_url: https://example.blob.core.windows.net
    container: pages
`
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 2048, cfg.Processing.MaxHTMLSize)
	assert.True(t, cfg.Processing.MinifyOutput)
	assert.Equal(t, "azure", cfg.Storage.Backend)
	assert.Equal(t, "pages", cfg.Storage.Azure.Container)
	// Defaults fill in everything the file omits.
	assert.Equal(t, "console", cfg.Logger.Format)
}
