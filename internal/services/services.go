// Package services wires the process-wide collaborators once at init
// and hands them around explicitly; nothing in the module reaches for
// global state.
package services

import (
	"github.com/charmbracelet/log"

	"packmirror/internal/config"
	"packmirror/internal/db"
	"packmirror/internal/emitter"
	"packmirror/internal/engine"
	"packmirror/internal/queue"
	"packmirror/internal/registry"
	"packmirror/internal/vcs"
)

// Services bundles the shared dependencies of the API server, the
// worker, and the CLI.
type Services struct {
	Config   config.Config
	DB       *db.DB
	Queue    queue.Queue
	Registry *registry.Registry
	Engine   *engine.Engine
	Emitter  *emitter.Emitter
	Logger   *log.Logger
}

// New connects the database and the queue, then wires the engine and
// the emitter on top.
func New(cfg config.Config, logger *log.Logger) (*Services, error) {
	if logger == nil {
		logger = log.Default()
	}

	database, err := db.Connect(cfg.DBURL)
	if err != nil {
		return nil, err
	}

	q, err := queue.NewRedisQueue(cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, err
	}

	factory := &vcs.Factory{
		FallbackTokens:      cfg.GithubFallbackTokens,
		RequirePluginTokens: cfg.RequirePluginTokens,
	}

	return &Services{
		Config:   cfg,
		DB:       database,
		Queue:    q,
		Registry: registry.New(database),
		Engine:   engine.New(database, factory, q, logger),
		Emitter:  emitter.New(database, q, cfg.Webroot, logger),
		Logger:   logger,
	}, nil
}

// Close releases the database connection.
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
