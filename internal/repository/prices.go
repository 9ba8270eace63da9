package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type priceQuoteRow struct {
	ID        int64               `db:"id"`
	QuotedAt  time.Time           `db:"quoted_at"`
	Arabica   decimal.NullDecimal `db:"arabica"`
	Robusta   decimal.NullDecimal `db:"robusta"`
	Source    string              `db:"source"`
	CreatedAt time.Time           `db:"created_at"`
}

func (p priceQuoteRow) toModel() model.PriceQuote {
	return model.PriceQuote{
		ID:        p.ID,
		Date:      p.QuotedAt,
		Arabica:   p.Arabica,
		Robusta:   p.Robusta,
		Source:    p.Source,
		CreatedAt: p.CreatedAt,
	}
}

const priceQuoteColumns = `id, quoted_at, arabica, robusta, source, created_at`

// LatestPriceQuoteSince возвращает самую свежую котировку не старше указанного момента.
func (r *PostgresRepository) LatestPriceQuoteSince(ctx context.Context, since time.Time) (*model.PriceQuote, error) {
	row, err := collectOne[priceQuoteRow](ctx, r, ErrPriceQuoteNotFound,
		`SELECT `+priceQuoteColumns+`
		   FROM price_quotes
		  WHERE quoted_at >= $1
		  ORDER BY quoted_at DESC
		  LIMIT 1`,
		since,
	)
	if err != nil {
		if errors.Is(err, ErrPriceQuoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("select latest price quote: %w", err)
	}
	q := row.toModel()
	return &q, nil
}

// InsertPriceQuote сохраняет новую котировку.
func (r *PostgresRepository) InsertPriceQuote(ctx context.Context, q model.PriceQuote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO price_quotes (quoted_at, arabica, robusta, source) VALUES ($1, $2, $3, $4)`,
		q.Date, q.Arabica, q.Robusta, q.Source,
	)
	if err != nil {
		return fmt.Errorf("insert price quote: %w", err)
	}
	return nil
}

// GetPriceQuotesSince возвращает историю котировок начиная с указанного момента по возрастанию даты.
func (r *PostgresRepository) GetPriceQuotesSince(ctx context.Context, since time.Time) ([]model.PriceQuote, error) {
	rows, err := collect[priceQuoteRow](ctx, r,
		`SELECT `+priceQuoteColumns+`
		   FROM price_quotes
		  WHERE quoted_at >= $1
		  ORDER BY quoted_at ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("select price history: %w", err)
	}

	res := make([]model.PriceQuote, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toModel())
	}
	return res, nil
}
