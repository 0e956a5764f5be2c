package handler

import (
	"log/slog"
	"net/http"

	"mooki/internal/domain/services"
	"mooki/internal/httputil"
)

// TreeHandler serves the materialized folder forest.
type TreeHandler struct {
	tree   services.TreeMaterializer
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(tree services.TreeMaterializer, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		tree:   tree,
		logger: logger,
	}
}

// GetTree returns the nested folder forest, provisioning the root on first
// use. An empty forest means the tree is unavailable, not empty; the
// client treats it accordingly.
// GET /api/folders/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	forest := h.tree.GetAndEnsureRoot(r.Context())
	httputil.RespondJSON(w, http.StatusOK, forest)
}

// HealthCheck reports liveness.
// GET /health
func (h *TreeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
