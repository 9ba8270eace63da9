package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type currentPriceResponse struct {
	Arabica *float64 `json:"arabica"`
	Robusta *float64 `json:"robusta"`
	Date    string   `json:"date"`
}

type priceQuoteResponse struct {
	Date    string   `json:"date"`
	Arabica *float64 `json:"arabica"`
	Robusta *float64 `json:"robusta"`
	Source  string   `json:"source"`
}

func optionalFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

// GetCurrentPrice возвращает актуальные цены арабики и робусты. force=true обходит кэш.
func (h *Handler) GetCurrentPrice(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	price, err := h.service.GetCurrentPrice(r.Context(), force)
	if err != nil {
		h.writeError(w, "get current price", err)
		return
	}

	h.writeJSON(w, http.StatusOK, currentPriceResponse{
		Arabica: price.Arabica,
		Robusta: price.Robusta,
		Date:    price.Date.Format(time.RFC3339),
	})
}

// GetPriceHistory возвращает сохранённые котировки за период week, month или year.
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetPriceHistory(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.writeError(w, "get price history", err)
		return
	}

	resp := make([]priceQuoteResponse, 0, len(history))
	for _, q := range history {
		resp = append(resp, toPriceQuoteResponse(q))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func toPriceQuoteResponse(q model.PriceQuote) priceQuoteResponse {
	return priceQuoteResponse{
		Date:    q.Date.Format(time.RFC3339),
		Arabica: optionalFloat(q.Arabica),
		Robusta: optionalFloat(q.Robusta),
		Source:  q.Source,
	}
}
