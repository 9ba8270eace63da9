// Package handler содержит HTTP-обработчики API сервиса SigeCafé.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/sigecafe-server/internal/apperr"
	"github.com/mmeshcher/sigecafe-server/internal/middleware"
	"github.com/mmeshcher/sigecafe-server/internal/model"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, phone, password string, role model.Role) (int64, error)
	AuthenticateUser(ctx context.Context, phone, password string) (*model.Identity, error)
	GetOrderBook(ctx context.Context) (*model.OrderBook, error)
	GetBids(ctx context.Context) ([]model.Offer, error)
	GetAsks(ctx context.Context) ([]model.Offer, error)
	GetOffersByUser(ctx context.Context, userID int64) ([]model.Offer, error)
	CreateOffer(ctx context.Context, actor model.Identity, req model.CreateOfferRequest) (*model.Offer, error)
	CancelOffer(ctx context.Context, actor model.Identity, offerID int64) error
	GetCurrentPrice(ctx context.Context, force bool) (*model.CurrentPrice, error)
	GetPriceHistory(ctx context.Context, period string) ([]model.PriceQuote, error)
}

// Permissions определяет доступ к правам ролей.
type Permissions interface {
	ForRole(ctx context.Context, role model.Role) ([]model.Permission, error)
	HasPermission(ctx context.Context, path string, role model.Role) (bool, error)
}

// Handler реализует HTTP-обработчики API сервиса SigeCafé.
type Handler struct {
	service        Service
	permissions    Permissions
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, permissions Permissions, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		permissions:    permissions,
		logger:         logger,
		authMiddleware: auth,
	}
}

type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Message: message}); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeErrorBody(w http.ResponseWriter, status int, category, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: category, Message: message}); err != nil {
		h.logger.Error("encode error response error", zap.Error(err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, message string) {
	h.writeErrorBody(w, http.StatusBadRequest, string(apperr.KindValidation), message)
}

// writeError переводит ошибку бизнес-логики в HTTP-ответ.
// Подробности ошибок хранилища и внешних источников клиенту не передаются.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		h.writeErrorBody(w, http.StatusInternalServerError, string(apperr.KindInternal), http.StatusText(http.StatusInternalServerError))
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		h.writeErrorBody(w, http.StatusBadRequest, string(appErr.Kind), publicMessage(appErr))
	case apperr.KindAuthorization:
		h.logger.Info(op+" denied", append(fields, zap.String("reason", appErr.Field))...)
		h.writeErrorBody(w, http.StatusForbidden, string(appErr.Kind), publicMessage(appErr))
	case apperr.KindNotFound:
		h.writeErrorBody(w, http.StatusNotFound, string(appErr.Kind), appErr.Message)
	case apperr.KindConflict:
		h.writeErrorBody(w, http.StatusConflict, string(appErr.Kind), appErr.Message)
	default:
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		h.writeErrorBody(w, http.StatusInternalServerError, string(appErr.Kind), http.StatusText(http.StatusInternalServerError))
	}
}

func publicMessage(e *apperr.Error) string {
	if e.Field == "" {
		return e.Message
	}
	return e.Message + " (" + e.Field + ")"
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.writeErrorBody(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return model.Identity{}, false
	}
	return id, true
}
