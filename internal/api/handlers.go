package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"packmirror/internal/auth"
	"packmirror/internal/db"
	"packmirror/internal/semver"
)

// healthHandler returns API health status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "packmirror-api",
	})
}

func packageName(r *http.Request) string {
	vars := mux.Vars(r)
	return vars["vendor"] + "/" + vars["name"]
}

func stabilityParam(r *http.Request) (semver.Stability, error) {
	raw := r.URL.Query().Get("stability")
	if raw == "" {
		return semver.StabilityStable, nil
	}
	return semver.ParseStabilityName(raw)
}

// getPackageHandler returns the stored package record.
func (s *Server) getPackageHandler(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.Registry.Package(r.Context(), packageName(r))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Package not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

// getVersionsHandler lists stored versions above the stability floor.
func (s *Server) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	min, err := stabilityParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown stability")
		return
	}

	name := packageName(r)
	exists, err := s.Registry.Exists(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Package not found")
		return
	}

	versions, err := s.Registry.Versions(r.Context(), name, min)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"versions": versions,
	})
}

// getLatestHandler returns the newest version above the stability floor.
func (s *Server) getLatestHandler(w http.ResponseWriter, r *http.Request) {
	min, err := stabilityParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown stability")
		return
	}

	name := packageName(r)
	latest, err := s.Registry.LatestVersion(r.Context(), name, min)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No matching version")
			return
		}
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    name,
		"version": latest,
	})
}

// getReleasesHandler returns full release rows for specific versions,
// or for everything stored when no versions are requested.
func (s *Server) getReleasesHandler(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)

	versions := splitCSV(r.URL.Query().Get("versions"))
	if len(versions) == 0 {
		all, err := s.Registry.Versions(r.Context(), name, semver.StabilityDev)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Lookup failed")
			return
		}
		versions = all
	}

	releases, err := s.Registry.Releases(r.Context(), name, versions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"releases": releases,
	})
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// triggerUpdateHandler enqueues a reconciliation job.
func (s *Server) triggerUpdateHandler(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)
	force := r.URL.Query().Get("force") == "true"

	exists, err := s.Registry.Exists(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Package not found")
		return
	}

	if err := s.Queue.EnqueueUpdate(r.Context(), name, force); err != nil {
		writeError(w, http.StatusInternalServerError, "Enqueue failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "package": name})
}

// registerPluginHandler creates a managed package with its plugin
// record and queues the first reconciliation.
func (s *Server) registerPluginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Repository string `json:"repository"`
		Type       string `json:"type"`
		VcsToken   string `json:"vcs_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Repository == "" {
		writeError(w, http.StatusBadRequest, "name and repository are required")
		return
	}
	if req.Type == "" {
		req.Type = "composer-plugin"
	}

	pkg := &db.Package{
		Name:       req.Name,
		Type:       req.Type,
		Repository: &req.Repository,
		Managed:    true,
	}
	if err := s.Store.SavePackage(r.Context(), pkg); err != nil {
		if errors.Is(err, db.ErrConflict) {
			writeError(w, http.StatusConflict, "Package already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Save failed")
		return
	}

	plugin := &db.Plugin{Name: req.Name}
	if req.VcsToken != "" {
		plugin.VcsToken = &req.VcsToken
	}
	if err := s.Store.CreatePlugin(r.Context(), plugin); err != nil {
		writeError(w, http.StatusInternalServerError, "Save failed")
		return
	}

	if err := s.Queue.EnqueueUpdate(r.Context(), req.Name, false); err != nil {
		writeError(w, http.StatusInternalServerError, "Enqueue failed")
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

// triggerDumpHandler queues a provider tree republication.
func (s *Server) triggerDumpHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Queue.EnqueueDump(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Enqueue failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// loginHandler exchanges operator credentials for a JWT.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := s.JWT.GenerateToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Token generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
	})
}
