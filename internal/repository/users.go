package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type userRow struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Phone         string    `db:"phone"`
	PasswordHash  []byte    `db:"password_hash"`
	Role          string    `db:"role"`
	CooperativeID *int64    `db:"cooperative_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func (u userRow) toModel() *model.User {
	return &model.User{
		ID:            u.ID,
		Name:          u.Name,
		Phone:         u.Phone,
		PasswordHash:  u.PasswordHash,
		Role:          model.Role(u.Role),
		CooperativeID: u.CooperativeID,
		CreatedAt:     u.CreatedAt,
	}
}

const userColumns = `id, name, phone, password_hash, role, cooperative_id, created_at`

// CreateUser создаёт нового пользователя. Телефон должен быть уже приведён к каноническому виду.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, phone, password_hash, role, cooperative_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Name, u.Phone, u.PasswordHash, string(u.Role), u.CooperativeID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Phone)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByPhone возвращает пользователя по каноническому номеру телефона.
func (r *PostgresRepository) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	row, err := collectOne[userRow](ctx, r, ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE phone = $1`,
		phone,
	)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return row.toModel(), nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row, err := collectOne[userRow](ctx, r, ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return row.toModel(), nil
}
