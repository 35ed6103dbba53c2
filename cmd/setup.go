// -- cmd/setup.go --
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pageweaver/pageweaver/internal/agent"
	"github.com/pageweaver/pageweaver/internal/config"
	"github.com/pageweaver/pageweaver/internal/editor"
	"github.com/pageweaver/pageweaver/internal/htmlproc"
	"github.com/pageweaver/pageweaver/internal/ledger"
	"github.com/pageweaver/pageweaver/internal/observability"
	"github.com/pageweaver/pageweaver/internal/storage"
)

// app bundles the wired application components for command handlers.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
	pages  *storage.PageStore
	editor *editor.Service
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// agentInvoker adapts the agent client to the pipeline's Invoker contract.
type agentInvoker struct {
	client *agent.Client
}

func (a agentInvoker) Invoke(ctx context.Context, prompt, sessionID string) (htmlproc.Completion, error) {
	resp, err := a.client.Invoke(ctx, prompt, sessionID)
	if err != nil {
		return htmlproc.Completion{}, err
	}
	return htmlproc.Completion{Text: resp.Completion, SessionID: resp.SessionID}, nil
}

// newApp wires the full application: database, storage, agent, pipeline and
// editor. Callers must Close the returned app.
func newApp(ctx context.Context) (*app, error) {
	cfg := appCfg
	log := observability.GetLogger()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is not configured (set PAGEWEAVER_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	led, err := ledger.New(ctx, pool, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := led.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	objects, err := newObjectStore(cfg.Storage, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	pages := storage.NewPageStore(objects, log)

	pipe, err := newPipeline(cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		pool:   pool,
		ledger: led,
		pages:  pages,
		editor: editor.NewService(pipe, led, pages, log),
	}, nil
}

// newStorageApp wires only the storage layer, for commands that never touch
// the ledger or the agent.
func newStorageApp() (*app, error) {
	cfg := appCfg
	log := observability.GetLogger()

	objects, err := newObjectStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   log,
		pages: storage.NewPageStore(objects, log),
	}, nil
}

func newObjectStore(cfg config.StorageConfig, log *zap.Logger) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case "azure":
		return storage.NewAzureStore(cfg.Azure, log)
	default:
		return storage.NewFSStore(afero.NewOsFs(), cfg.Root), nil
	}
}

// printJSON renders command output as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newPipeline(cfg *config.Config, log *zap.Logger) (*htmlproc.Pipeline, error) {
	client, err := agent.NewClient(cfg.Agent, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent client: %w", err)
	}

	templates := htmlproc.Templates{
		Modify: cfg.Prompts.ModifyHTML,
		Create: cfg.Prompts.CreateHTML,
	}
	return htmlproc.NewPipeline(htmlproc.NewConfig(cfg.Processing), templates, agentInvoker{client}, log), nil
}
