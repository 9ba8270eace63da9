package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/sigecafe-server/internal/model"
	"github.com/mmeshcher/sigecafe-server/internal/service"
)

type signupRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// Signup регистрирует нового пользователя и открывает для него сессию.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	role := model.Role(req.Role)
	userID, err := h.service.RegisterUser(r.Context(), req.Name, req.Phone, req.Password, role)
	if err != nil {
		h.writeError(w, "register user", err)
		return
	}

	if role == "" {
		role = model.RoleProducer
	}
	identity := model.Identity{ID: userID, Role: role}
	if err := h.authMiddleware.SetAuthCookie(w, identity); err != nil {
		h.writeError(w, "set auth cookie", err, zap.Int64("userID", userID))
		return
	}

	h.writeJSON(w, http.StatusCreated, identityResponse{ID: identity.ID, Role: string(identity.Role)})
}

// Login выполняет аутентификацию пользователя и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	if req.Phone == "" || req.Password == "" {
		h.badRequest(w, "phone and password are required")
		return
	}

	identity, err := h.service.AuthenticateUser(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.writeErrorBody(w, http.StatusUnauthorized, "unauthenticated", "invalid phone or password")
			return
		}
		h.writeError(w, "login user", err)
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w, *identity); err != nil {
		h.writeError(w, "set auth cookie", err, zap.Int64("userID", identity.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, identityResponse{ID: identity.ID, Role: string(identity.Role)})
}

// Logout завершает сессию пользователя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	h.writeJSON(w, http.StatusOK, nil)
}
