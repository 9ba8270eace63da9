package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type offerRow struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	UserName  string          `db:"user_name"`
	UserRole  string          `db:"user_role"`
	CreatedBy *int64          `db:"created_by"`
	Side      string          `db:"side"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int64           `db:"quantity"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (o offerRow) toModel() model.Offer {
	createdBy := o.UserID
	if o.CreatedBy != nil {
		createdBy = *o.CreatedBy
	}
	return model.Offer{
		ID:          o.ID,
		UserID:      o.UserID,
		UserName:    o.UserName,
		UserRole:    model.Role(o.UserRole),
		CreatedByID: createdBy,
		Side:        model.OfferSide(o.Side),
		Price:       o.Price,
		Quantity:    o.Quantity,
		Status:      model.OfferStatus(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func offersFromRows(rows []offerRow) []model.Offer {
	res := make([]model.Offer, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toModel())
	}
	return res
}

const offerSelect = `SELECT o.id, o.user_id, u.name AS user_name, u.role AS user_role, o.created_by,
       o.side, o.price, o.quantity, o.status, o.created_at, o.updated_at
  FROM offers o
  JOIN users u ON u.id = o.user_id`

const (
	openOffersBySideQuery = offerSelect + `
 WHERE o.side = $1 AND o.status = $2
 ORDER BY o.price DESC, o.created_at ASC`

	openOffersByUserQuery = offerSelect + `
 WHERE o.user_id = $1 AND o.status = $2
 ORDER BY o.created_at DESC`
)

// GetOpenOffers возвращает открытые предложения указанной стороны по убыванию цены.
func (r *PostgresRepository) GetOpenOffers(ctx context.Context, side model.OfferSide) ([]model.Offer, error) {
	rows, err := collect[offerRow](ctx, r, openOffersBySideQuery, string(side), string(model.OfferStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("select open offers: %w", err)
	}
	return offersFromRows(rows), nil
}

// GetOpenOffersByUser возвращает открытые предложения пользователя, начиная с новых.
func (r *PostgresRepository) GetOpenOffersByUser(ctx context.Context, userID int64) ([]model.Offer, error) {
	rows, err := collect[offerRow](ctx, r, openOffersByUserQuery, userID, string(model.OfferStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("select user offers: %w", err)
	}
	return offersFromRows(rows), nil
}

// GetOpenOffer возвращает открытое предложение по идентификатору.
func (r *PostgresRepository) GetOpenOffer(ctx context.Context, id int64) (*model.Offer, error) {
	row, err := collectOne[offerRow](ctx, r, ErrOfferNotFound,
		offerSelect+`
 WHERE o.id = $1 AND o.status = $2`,
		id, string(model.OfferStatusOpen),
	)
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("select offer: %w", err)
	}
	o := row.toModel()
	return &o, nil
}

// CreateOffer сохраняет новое открытое предложение и возвращает его вместе с данными владельца.
func (r *PostgresRepository) CreateOffer(ctx context.Context, userID, createdBy int64, side model.OfferSide, price decimal.Decimal, quantity int64) (*model.Offer, error) {
	rows, err := r.pool.Query(ctx,
		`WITH o AS (
    INSERT INTO offers (user_id, created_by, side, price, quantity, status)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, user_id, created_by, side, price, quantity, status, created_at, updated_at
)
SELECT o.id, o.user_id, u.name AS user_name, u.role AS user_role, o.created_by,
       o.side, o.price, o.quantity, o.status, o.created_at, o.updated_at
  FROM o
  JOIN users u ON u.id = o.user_id`,
		userID, createdBy, string(side), price, quantity, string(model.OfferStatusOpen),
	)
	if err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[offerRow])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("insert offer: %w", err)
	}

	o := row.toModel()
	return &o, nil
}

// CancelOffer переводит открытое предложение в статус CANCELLED одной условной операцией.
// Возвращает ErrOfferNotFound, если предложение отсутствует или уже не открыто.
func (r *PostgresRepository) CancelOffer(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE offers SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, string(model.OfferStatusCancelled), string(model.OfferStatusOpen),
	)
	if err != nil {
		return fmt.Errorf("cancel offer: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOfferNotFound
	}

	return nil
}
