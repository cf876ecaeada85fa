package api

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"packmirror/internal/auth"
	"packmirror/internal/config"
	"packmirror/internal/db"
	"packmirror/internal/queue"
	"packmirror/internal/registry"
)

// Store is the write-side slice of the database the handlers need.
// *db.DB satisfies it.
type Store interface {
	SavePackage(ctx context.Context, pkg *db.Package) error
	CreatePlugin(ctx context.Context, plugin *db.Plugin) error
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
}

// Server holds dependencies for API handlers
type Server struct {
	Registry *registry.Registry
	Store    Store
	Queue    queue.Queue
	Config   config.Config
	JWT      *auth.JWTManager
	Logger   *log.Logger
}

// NewServer wires the handler dependencies.
func NewServer(reg *registry.Registry, store Store, q queue.Queue, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Registry: reg,
		Store:    store,
		Queue:    q,
		Config:   cfg,
		JWT:      auth.NewJWTManager(cfg.JWTSecret, auth.DefaultTokenDuration),
		Logger:   logger,
	}
}

// RegisterRoutes sets up the provider tree and the registry API.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(s.panicRecoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	// static provider tree, shared with the emitter
	fileServer := http.FileServer(http.Dir(s.Config.Webroot))
	r.Path("/packages.json").Handler(fileServer).Methods("GET")
	r.PathPrefix("/p/").Handler(fileServer).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/login", s.loginHandler).Methods("POST")
	api.HandleFunc("/packages/{vendor}/{name}", s.getPackageHandler).Methods("GET")
	api.HandleFunc("/packages/{vendor}/{name}/versions", s.getVersionsHandler).Methods("GET")
	api.HandleFunc("/packages/{vendor}/{name}/latest", s.getLatestHandler).Methods("GET")
	api.HandleFunc("/packages/{vendor}/{name}/releases", s.getReleasesHandler).Methods("GET")

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/packages/{vendor}/{name}/update", s.triggerUpdateHandler).Methods("POST")
	protected.HandleFunc("/plugins", s.registerPluginHandler).Methods("POST")
	protected.HandleFunc("/dump", s.triggerDumpHandler).Methods("POST")
}
