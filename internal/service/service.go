// Package service реализует бизнес-логику сервиса SigeCafé.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/sigecafe-server/internal/apperr"
	"github.com/mmeshcher/sigecafe-server/internal/cepea"
	"github.com/mmeshcher/sigecafe-server/internal/model"
	"github.com/mmeshcher/sigecafe-server/internal/repository"
	"github.com/mmeshcher/sigecafe-server/internal/validation"
)

// DefaultPriceFreshness окно, в течение которого сохранённая котировка считается актуальной.
const DefaultPriceFreshness = 24 * time.Hour

// ErrInvalidCredentials возвращается при неверном телефоне или пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetOpenOffers(ctx context.Context, side model.OfferSide) ([]model.Offer, error)
	GetOpenOffersByUser(ctx context.Context, userID int64) ([]model.Offer, error)
	GetOpenOffer(ctx context.Context, id int64) (*model.Offer, error)
	CreateOffer(ctx context.Context, userID, createdBy int64, side model.OfferSide, price decimal.Decimal, quantity int64) (*model.Offer, error)
	CancelOffer(ctx context.Context, id int64) error
	LatestPriceQuoteSince(ctx context.Context, since time.Time) (*model.PriceQuote, error)
	InsertPriceQuote(ctx context.Context, q model.PriceQuote) error
	GetPriceQuotesSince(ctx context.Context, since time.Time) ([]model.PriceQuote, error)
}

// PriceSource описывает внешний источник рыночных цен.
type PriceSource interface {
	Fetch(ctx context.Context) (*cepea.Quote, error)
}

// Service содержит бизнес-логику сервиса SigeCafé.
type Service struct {
	repo      Repository
	prices    PriceSource
	logger    *zap.Logger
	freshness time.Duration
	now       func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием и источником цен.
func NewService(repo Repository, prices PriceSource, logger *zap.Logger, freshness time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if freshness <= 0 {
		freshness = DefaultPriceFreshness
	}
	return &Service{
		repo:      repo,
		prices:    prices,
		logger:    logger,
		freshness: freshness,
		now:       time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового производителя или покупателя.
func (s *Service) RegisterUser(ctx context.Context, name, phone, password string, role model.Role) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.Validation("name", "name is required")
	}

	canonical, ok := validation.CanonicalPhone(phone)
	if !ok {
		return 0, apperr.Validation("phone", "phone number is invalid")
	}

	if password == "" {
		return 0, apperr.Validation("password", "password is required")
	}

	if role == "" {
		role = model.RoleProducer
	}
	if _, natural := role.NaturalSide(); !natural {
		return 0, apperr.Validation("role", "only producers and buyers may sign up")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateUser(ctx, &model.User{
		Name:         name,
		Phone:        canonical,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, apperr.Conflict("user already exists", err)
		}
		return 0, apperr.Repository("create user", err)
	}
	return id, nil
}

// AuthenticateUser проверяет телефон и пароль пользователя и возвращает его идентичность.
func (s *Service) AuthenticateUser(ctx context.Context, phone, password string) (*model.Identity, error) {
	canonical, ok := validation.CanonicalPhone(phone)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetUserByPhone(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Repository("get user by phone", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &model.Identity{ID: u.ID, Role: u.Role}, nil
}

// StartPriceRefresh периодически прогревает кэш котировок по расписанию cron.
// Пустое расписание отключает обновление. Блокируется до отмены контекста.
func (s *Service) StartPriceRefresh(ctx context.Context, schedule string) error {
	if schedule == "" || s.prices == nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.GetCurrentPrice(ctx, false); err != nil {
			s.logger.Warn("scheduled price refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
