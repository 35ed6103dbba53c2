// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Agent      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	Processing ProcessingConfig `mapstructure:"processing" yaml:"processing"`
	Prompts    PromptsConfig    `mapstructure:"prompts" yaml:"prompts"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// DatabaseConfig holds the ledger database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// StorageConfig selects and configures the artifact storage backend.
// Backend is either "fs" (local filesystem, default) or "azure" (blob storage).
type StorageConfig struct {
	Backend string             `mapstructure:"backend" yaml:"backend"`
	Root    string             `mapstructure:"root" yaml:"root"`
	Azure   AzureStorageConfig `mapstructure:"azure" yaml:"azure"`
}

// AzureStorageConfig holds the blob storage account details.
type AzureStorageConfig struct {
	AccountURL string `mapstructure:"account_url" yaml:"account_url"`
	Container  string `mapstructure:"container" yaml:"container"`
}

// AgentConfig holds the connection details for the generative agent runtime.
type AgentConfig struct {
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	AgentID        string        `mapstructure:"agent_id" yaml:"agent_id"`
	AgentAliasID   string        `mapstructure:"agent_alias_id" yaml:"agent_alias_id"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time" yaml:"max_elapsed_time"`
}

// ProcessingConfig tunes the HTML processing pipeline. It is read once per
// invocation and never mutated mid-run.
type ProcessingConfig struct {
	MaxHTMLSize    int      `mapstructure:"max_html_size" yaml:"max_html_size"`
	SanitizeOutput bool     `mapstructure:"sanitize_output" yaml:"sanitize_output"`
	MinifyOutput   bool     `mapstructure:"minify_output" yaml:"minify_output"`
	AllowedTags    []string `mapstructure:"allowed_tags" yaml:"allowed_tags"`
}

// PromptsConfig holds the prompt templates sent to the agent. The modify
// template must contain the {html} and {prompt} placeholders; the create
// template only {prompt}.
type PromptsConfig struct {
	ModifyHTML string `mapstructure:"modify_html" yaml:"modify_html"`
	CreateHTML string `mapstructure:"create_html" yaml:"create_html"`
}

// defaultAllowedTags is the advisory tag allowlist used when none is configured.
// Tags outside this list produce validation warnings, never hard rejections.
var defaultAllowedTags = []string{
	"html", "head", "body", "title", "meta", "link", "style", "script",
	"div", "span", "p", "a", "img", "br", "hr", "blockquote", "pre", "code",
	"h1", "h2", "h3", "h4", "h5", "h6", "strong", "em", "b", "i", "u", "small", "sup", "sub",
	"ul", "ol", "li", "dl", "dt", "dd",
	"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
	"form", "input", "button", "label", "select", "option", "textarea", "fieldset", "legend",
	"nav", "header", "footer", "section", "article", "aside", "main",
	"figure", "figcaption", "picture", "source", "video", "audio", "canvas", "svg", "iframe",
}

const (
	defaultModifyTemplate = "You are an expert web developer. Modify the following HTML according to the instructions.\n" +
		"Return only the complete modified HTML document inside a ```html code block.\n\n" +
		"Current HTML:\n{html}\n\nInstructions:\n{prompt}"

	defaultCreateTemplate = "You are an expert web developer. Create a complete HTML page according to the instructions.\n" +
		"Return only the complete HTML document inside a ```html code block.\n\n" +
		"Instructions:\n{prompt}"
)

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pageweaver")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Storage --
	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.root", "./artifacts")
	v.SetDefault("storage.azure.container", "pages")

	// -- Agent --
	v.SetDefault("agent.timeout", "90s")
	v.SetDefault("agent.max_elapsed_time", "2m")

	// -- Processing --
	v.SetDefault("processing.max_html_size", 512*1024)
	v.SetDefault("processing.sanitize_output", true)
	v.SetDefault("processing.minify_output", false)
	v.SetDefault("processing.allowed_tags", defaultAllowedTags)

	// -- Prompts --
	v.SetDefault("prompts.modify_html", defaultModifyTemplate)
	v.SetDefault("prompts.create_html", defaultCreateTemplate)
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults always unmarshal; a failure here is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("database.url", "PAGEWEAVER_DATABASE_URL")
	v.BindEnv("agent.api_key", "PAGEWEAVER_AGENT_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Processing.MaxHTMLSize <= 0 {
		return fmt.Errorf("processing.max_html_size must be a positive integer")
	}
	if !strings.Contains(c.Prompts.ModifyHTML, "{html}") || !strings.Contains(c.Prompts.ModifyHTML, "{prompt}") {
		return fmt.Errorf("prompts.modify_html must contain the {html} and {prompt} placeholders")
	}
	if !strings.Contains(c.Prompts.CreateHTML, "{prompt}") {
		return fmt.Errorf("prompts.create_html must contain the {prompt} placeholder")
	}
	switch c.Storage.Backend {
	case "fs":
		if c.Storage.Root == "" {
			return fmt.Errorf("storage.root is required for the fs backend")
		}
	case "azure":
		if c.Storage.Azure.AccountURL == "" || c.Storage.Azure.Container == "" {
			return fmt.Errorf("storage.azure.account_url and storage.azure.container are required for the azure backend")
		}
	default:
		return fmt.Errorf("storage.backend must be either %q or %q", "fs", "azure")
	}
	return nil
}
