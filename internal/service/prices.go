package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/sigecafe-server/internal/apperr"
	"github.com/mmeshcher/sigecafe-server/internal/cepea"
	"github.com/mmeshcher/sigecafe-server/internal/model"
	"github.com/mmeshcher/sigecafe-server/internal/repository"
)

// GetCurrentPrice возвращает актуальные цены арабики и робусты.
// Без force сначала используется сохранённая котировка моложе окна актуальности.
// Полученные из источника цены сохраняются, только если это не запасной результат.
func (s *Service) GetCurrentPrice(ctx context.Context, force bool) (*model.CurrentPrice, error) {
	if !force {
		cached, err := s.repo.LatestPriceQuoteSince(ctx, s.now().Add(-s.freshness))
		switch {
		case err == nil:
			return &model.CurrentPrice{
				Arabica: nullableFloat(cached.Arabica),
				Robusta: nullableFloat(cached.Robusta),
				Date:    cached.Date,
			}, nil
		case errors.Is(err, repository.ErrPriceQuoteNotFound):
		default:
			s.logger.Warn("price cache lookup failed", zap.Error(err))
		}
	}

	if s.prices == nil {
		return nil, apperr.ExternalSource(errors.New("price source not configured"))
	}

	q, err := s.prices.Fetch(ctx)
	if err != nil {
		return nil, apperr.ExternalSource(err)
	}

	if !q.IsFallback {
		quote := model.PriceQuote{
			Date:    q.Date,
			Arabica: decimal.NewNullDecimal(decimal.NewFromFloat(q.Arabica)),
			Robusta: decimal.NewNullDecimal(decimal.NewFromFloat(q.Robusta)),
			Source:  cepea.SourceLabel,
		}
		if err := s.repo.InsertPriceQuote(ctx, quote); err != nil {
			s.logger.Error("persist price quote error", zap.Error(err), zap.String("tier", q.Tier))
		}
	}

	arabica, robusta := q.Arabica, q.Robusta
	return &model.CurrentPrice{
		Arabica: &arabica,
		Robusta: &robusta,
		Date:    q.Date,
	}, nil
}

// GetPriceHistory возвращает котировки за период: week, month или year (по умолчанию).
func (s *Service) GetPriceHistory(ctx context.Context, period string) ([]model.PriceQuote, error) {
	now := s.now()

	var since time.Time
	switch period {
	case "", "year":
		since = now.AddDate(-1, 0, 0)
	case "month":
		since = now.AddDate(0, -1, 0)
	default:
		since = now.AddDate(0, 0, -7)
	}

	history, err := s.repo.GetPriceQuotesSince(ctx, since)
	if err != nil {
		return nil, apperr.Repository("get price history", err)
	}
	return history, nil
}

func nullableFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}
