package handler

import (
	"net/http"

	"go.uber.org/zap"
)

type permissionResponse struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// GetPermissions возвращает разделы, доступные роли текущего пользователя.
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	perms, err := h.permissions.ForRole(r.Context(), actor.Role)
	if err != nil {
		h.writeError(w, "list permissions", err, zap.String("role", string(actor.Role)))
		return
	}

	resp := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		resp = append(resp, permissionResponse{Path: p.Path, Title: p.Title})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CheckPermission сообщает, доступен ли раздел path роли текущего пользователя.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		h.badRequest(w, "path is required")
		return
	}

	allowed, err := h.permissions.HasPermission(r.Context(), path, actor.Role)
	if err != nil {
		h.writeError(w, "check permission", err, zap.String("path", path))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}
