package main

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"packmirror/internal/api"
	"packmirror/internal/config"
	"packmirror/internal/services"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}

	cfg := config.Load()
	logger := log.Default()

	svc, err := services.New(cfg, logger)
	if err != nil {
		log.Fatal("failed to wire services", "err", err)
	}
	defer svc.Close()

	if err := svc.DB.Health(); err != nil {
		log.Fatal("database health check failed", "err", err)
	}

	r := mux.NewRouter()
	server := api.NewServer(svc.Registry, svc.DB, svc.Queue, cfg, logger)
	server.RegisterRoutes(r)

	logger.Info("api server starting", "port", cfg.APIPort, "webroot", cfg.Webroot)
	log.Fatal(http.ListenAndServe(":"+cfg.APIPort, r))
}
