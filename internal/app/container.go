package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	appconfig "github.com/doeshing/dexter/internal/application/config"
	"github.com/doeshing/dexter/internal/application/generation"
	"github.com/doeshing/dexter/internal/application/pipeline"
	"github.com/doeshing/dexter/internal/application/routing"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/infrastructure/ai"
	"github.com/doeshing/dexter/internal/infrastructure/config"
	contextcollector "github.com/doeshing/dexter/internal/infrastructure/context"
	"github.com/doeshing/dexter/internal/infrastructure/history"
	"github.com/doeshing/dexter/internal/infrastructure/plugins"
	"github.com/doeshing/dexter/internal/infrastructure/security"
	"github.com/doeshing/dexter/internal/pkg/filesystem"
	"github.com/doeshing/dexter/internal/pkg/logger"
	"github.com/doeshing/dexter/internal/ports"
)

// Options are the process-level switches the container is built from.
type Options struct {
	ConfigPath string
	Verbose    bool
	// WorkDir is the directory scanned for context and used as the tool cwd.
	WorkDir string
	// SessionLog writes every log line to ~/.dexter/logs/session-<id>.log.
	SessionLog bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Options        Options
	Config         domain.Config
	ConfigLoader   *config.FileLoader
	Logger         ports.Logger
	Session        *logger.Session
	Cache          *ai.ResponseCache
	RouterClient   *ai.Client
	ExecutorClient *ai.Client
	Router         *routing.Service
	Generator      *generation.Service
	Safety         *security.Guardrail
	Collector      *contextcollector.BasicCollector
	Plugins        *plugins.Registry
	HistoryStore   ports.HistoryRepository

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	c := &Container{Options: opts}

	c.Logger = logger.NewStd(opts.Verbose)
	if opts.SessionLog {
		session, err := logger.NewSession(filesystem.AppPath("logs"), opts.Verbose)
		if err != nil {
			c.Logger.Warn("session log unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			c.Session = session
			c.Logger = session
			c.closers = append(c.closers, session.Close)
		}
	}

	c.ConfigLoader = config.NewFileLoader(opts.ConfigPath)
	cfg, err := c.ConfigLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	for _, warning := range appconfig.Warnings(cfg) {
		c.Logger.Warn(warning, nil)
	}
	c.Config = cfg

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	c.Cache = ai.NewResponseCache(cfg.CacheCapacity())
	c.RouterClient = ai.NewRoleClient(cfg, domain.RoleRouter, ai.WithCache(c.Cache), ai.WithLogger(c.Logger))
	c.ExecutorClient = ai.NewRoleClient(cfg, domain.RoleExecutor, ai.WithCache(c.Cache), ai.WithLogger(c.Logger))
	c.Router = routing.NewService(c.RouterClient, c.Logger)
	c.Generator = generation.NewService(c.ExecutorClient, c.Logger)

	guardrail, err := security.NewGuardrail(cfg.Safety.RulesFile)
	if err != nil {
		c.Logger.Warn("ignoring safety rules file", map[string]interface{}{
			"path":  cfg.Safety.RulesFile,
			"error": err.Error(),
		})
		if guardrail, err = security.NewGuardrail(""); err != nil {
			return nil, err
		}
	}
	c.Safety = guardrail

	c.Collector = contextcollector.NewBasicCollector(workDir, domain.MaxContextFiles)
	c.Plugins = plugins.Default(plugins.NewRunner(workDir))
	c.HistoryStore = c.openHistory(cfg.History)
	return c, nil
}

// openHistory prefers SQLite and falls back to a JSONL file next to it.
// A disabled history yields a nil store.
func (c *Container) openHistory(settings domain.HistorySettings) ports.HistoryRepository {
	if !settings.Enabled {
		return nil
	}
	store, err := history.NewSQLiteStore(settings.Path)
	if err == nil {
		c.closers = append(c.closers, store.Close)
		return store
	}
	fallback := history.NewFileStore(settings.Path + ".jsonl")
	c.Logger.Warn("sqlite history unavailable, using jsonl", map[string]interface{}{
		"error": err.Error(),
		"path":  fallback.Path(),
	})
	return fallback
}

// NewMachine builds a pipeline state machine over the container's services.
func (c *Container) NewMachine(ctx context.Context) (*pipeline.Machine, error) {
	return pipeline.New(ctx, pipeline.Deps{
		Router:    c.Router,
		Generator: c.Generator,
		Safety:    c.Safety,
		Context:   c.Collector,
		Plugins:   c.Plugins.All(),
		Bridge:    c.ExecutorClient,
		History:   c.HistoryStore,
		Logger:    c.Logger,
	})
}

// Close releases the history database and session log.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Lazy builds the container on first use, so commands that only touch the
// config file still work when the config cannot be loaded.
type Lazy struct {
	opts *Options

	once      sync.Once
	container *Container
	err       error
}

// NewLazy binds to opts; flag parsing may still fill it in before Get.
func NewLazy(opts *Options) *Lazy {
	return &Lazy{opts: opts}
}

// Options returns the bound options.
func (l *Lazy) Options() Options { return *l.opts }

// Get builds the container once.
func (l *Lazy) Get(ctx context.Context) (*Container, error) {
	l.once.Do(func() {
		l.container, l.err = BuildContainer(ctx, *l.opts)
	})
	return l.container, l.err
}

// Close closes the container if it was built.
func (l *Lazy) Close() error {
	if l.container == nil {
		return nil
	}
	return l.container.Close()
}
