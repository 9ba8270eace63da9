package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type offerResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"usuarioId"`
	UserName    string  `json:"usuarioNome"`
	UserRole    string  `json:"usuarioTipo"`
	CreatedByID int64   `json:"criadoPorId"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type orderBookResponse struct {
	Bids []offerResponse `json:"bids"`
	Asks []offerResponse `json:"asks"`
}

type createOfferRequest struct {
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	OnBehalfOf int64   `json:"usuarioId"`
}

func toOfferResponse(o model.Offer) offerResponse {
	return offerResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		UserName:    o.UserName,
		UserRole:    string(o.UserRole),
		CreatedByID: o.CreatedByID,
		Side:        string(o.Side),
		Price:       o.Price.InexactFloat64(),
		Quantity:    o.Quantity,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339),
	}
}

func toOfferResponses(offers []model.Offer) []offerResponse {
	resp := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, toOfferResponse(o))
	}
	return resp
}

// GetOffers возвращает книгу заявок либо одну её сторону (type=bids|asks).
func (h *Handler) GetOffers(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("type") {
	case "bids":
		bids, err := h.service.GetBids(r.Context())
		if err != nil {
			h.writeError(w, "get bids", err)
			return
		}
		h.writeJSON(w, http.StatusOK, toOfferResponses(bids))
	case "asks":
		asks, err := h.service.GetAsks(r.Context())
		if err != nil {
			h.writeError(w, "get asks", err)
			return
		}
		h.writeJSON(w, http.StatusOK, toOfferResponses(asks))
	case "":
		book, err := h.service.GetOrderBook(r.Context())
		if err != nil {
			h.writeError(w, "get order book", err)
			return
		}
		h.writeJSON(w, http.StatusOK, orderBookResponse{
			Bids: toOfferResponses(book.Bids),
			Asks: toOfferResponses(book.Asks),
		})
	default:
		h.badRequest(w, "type must be bids or asks")
	}
}

// GetMyOffers возвращает открытые предложения текущего пользователя.
func (h *Handler) GetMyOffers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	offers, err := h.service.GetOffersByUser(r.Context(), actor.ID)
	if err != nil {
		h.writeError(w, "get user offers", err, zap.Int64("userID", actor.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, toOfferResponses(offers))
}

// CreateOffer размещает новое предложение от имени текущего пользователя или указанного участника.
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	offer, err := h.service.CreateOffer(r.Context(), actor, model.CreateOfferRequest{
		Side:             model.OfferSide(req.Side),
		Price:            req.Price,
		Quantity:         req.Quantity,
		OnBehalfOfUserID: req.OnBehalfOf,
	})
	if err != nil {
		h.writeError(w, "create offer", err, zap.Int64("userID", actor.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, toOfferResponse(*offer))
}

// CancelOffer отменяет открытое предложение.
func (h *Handler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	offerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || offerID <= 0 {
		h.badRequest(w, "invalid offer id")
		return
	}

	if err := h.service.CancelOffer(r.Context(), actor, offerID); err != nil {
		h.writeError(w, "cancel offer", err, zap.Int64("userID", actor.ID), zap.Int64("offerID", offerID))
		return
	}

	h.writeMessage(w, http.StatusOK, "Offer cancelled successfully")
}
