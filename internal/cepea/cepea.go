// Package cepea получает рыночные цены кофе с сайта индикатора CEPEA/ESALQ.
//
// Источник нестабилен, поэтому цены запрашиваются упорядоченным списком стратегий:
// headless-браузер, HTTP-запрос с разбором HTML и статическое значение.
package cepea

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL адрес страницы индикатора кофе.
	DefaultURL = "https://www.cepea.org.br/br/indicador/cafe.aspx"
	// SourceLabel метка источника для сохранённых котировок.
	SourceLabel = "CEPEA/ESALQ"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
	acceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// ErrAllStrategiesFailed возвращается, если ни одна стратегия не вернула результат.
var ErrAllStrategiesFailed = errors.New("all price strategies failed")

// Quote содержит результат одной попытки получения цен.
type Quote struct {
	Arabica    float64
	Robusta    float64
	Date       time.Time
	IsFallback bool
	Tier       string
}

// Strategy описывает один способ получения цен.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context) (*Quote, error)
}

// Chain перебирает стратегии по порядку до первой успешной.
type Chain struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewChain создаёт цепочку стратегий в порядке приоритета.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		strategies: strategies,
		logger:     logger,
	}
}

// Fetch возвращает результат первой стратегии, завершившейся без ошибки, с пометкой уровня.
func (c *Chain) Fetch(ctx context.Context) (*Quote, error) {
	errs := make([]error, 0, len(c.strategies))

	for _, s := range c.strategies {
		q, err := s.Fetch(ctx)
		if err != nil {
			c.logger.Warn("price strategy failed", zap.String("tier", s.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		q.Tier = s.Name()
		if q.IsFallback {
			c.logger.Info("price strategy returned fallback result", zap.String("tier", s.Name()))
		}
		return q, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(errs...))
}
