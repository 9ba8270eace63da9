package service

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/sigecafe-server/internal/apperr"
	"github.com/mmeshcher/sigecafe-server/internal/model"
	"github.com/mmeshcher/sigecafe-server/internal/repository"
	"github.com/mmeshcher/sigecafe-server/internal/validation"
)

// maxOfferPrice наибольшая цена, которую вмещает столбец offers.price NUMERIC(14,2).
var maxOfferPrice = decimal.RequireFromString("999999999999.99")

// GetOrderBook возвращает открытые предложения покупки и продажи, отсортированные по убыванию цены.
func (s *Service) GetOrderBook(ctx context.Context) (*model.OrderBook, error) {
	var book model.OrderBook

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		book.Bids, err = s.GetBids(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		book.Asks, err = s.GetAsks(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBids возвращает открытые предложения покупки.
func (s *Service) GetBids(ctx context.Context) ([]model.Offer, error) {
	bids, err := s.repo.GetOpenOffers(ctx, model.SideBuy)
	if err != nil {
		return nil, apperr.Repository("get bids", err)
	}
	return bids, nil
}

// GetAsks возвращает открытые предложения продажи.
func (s *Service) GetAsks(ctx context.Context) ([]model.Offer, error) {
	asks, err := s.repo.GetOpenOffers(ctx, model.SideSell)
	if err != nil {
		return nil, apperr.Repository("get asks", err)
	}
	return asks, nil
}

// GetOffersByUser возвращает открытые предложения пользователя.
func (s *Service) GetOffersByUser(ctx context.Context, userID int64) ([]model.Offer, error) {
	offers, err := s.repo.GetOpenOffersByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Repository("get user offers", err)
	}
	return offers, nil
}

// CreateOffer создаёт открытое предложение от имени actor или, для привилегированных ролей,
// от имени другого пользователя.
func (s *Service) CreateOffer(ctx context.Context, actor model.Identity, req model.CreateOfferRequest) (*model.Offer, error) {
	target, err := s.resolveTarget(ctx, actor, req.OnBehalfOfUserID)
	if err != nil {
		return nil, err
	}

	if !validation.IsPositiveFinite(req.Price) {
		return nil, apperr.Validation("price", "price must be greater than 0")
	}
	price := decimal.NewFromFloat(req.Price).Round(2)
	if !price.IsPositive() {
		return nil, apperr.Validation("price", "price must be at least 0.01")
	}
	if price.GreaterThan(maxOfferPrice) {
		return nil, apperr.Validation("price", "price must not exceed "+maxOfferPrice.StringFixed(2))
	}

	if !validation.IsPositiveFinite(req.Quantity) || req.Quantity >= math.MaxInt64 {
		return nil, apperr.Validation("quantity", "quantity must be greater than 0")
	}
	quantity := int64(math.Trunc(req.Quantity))
	if quantity <= 0 {
		return nil, apperr.Validation("quantity", "quantity must be at least 1")
	}

	side, err := resolveSide(actor, target, req.Side)
	if err != nil {
		return nil, err
	}

	offer, err := s.repo.CreateOffer(ctx, target.ID, actor.ID, side, price, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("target user not found", err)
		}
		return nil, apperr.Repository("create offer", err)
	}

	if target.ID != actor.ID {
		s.logger.Info("offer created on behalf of user",
			zap.Int64("offerID", offer.ID),
			zap.Int64("actorID", actor.ID),
			zap.String("actorRole", string(actor.Role)),
			zap.Int64("targetID", target.ID),
		)
	}

	return offer, nil
}

// resolveTarget определяет владельца нового предложения. Запрос от имени другого
// пользователя учитывается только для привилегированных ролей.
func (s *Service) resolveTarget(ctx context.Context, actor model.Identity, onBehalfOf int64) (model.Identity, error) {
	if onBehalfOf == 0 || onBehalfOf == actor.ID || !actor.Role.Privileged() {
		return actor, nil
	}

	u, err := s.repo.GetUserByID(ctx, onBehalfOf)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Identity{}, apperr.NotFound("target user not found", err)
		}
		return model.Identity{}, apperr.Repository("get target user", err)
	}

	return model.Identity{ID: u.ID, Role: u.Role}, nil
}

func resolveSide(actor, target model.Identity, requested model.OfferSide) (model.OfferSide, error) {
	if requested != "" {
		if !requested.Valid() {
			return "", apperr.Validation("side", "side must be BUY or SELL")
		}
		if !actor.Role.Privileged() && actor.ID == target.ID {
			if natural, ok := actor.Role.NaturalSide(); ok && natural != requested {
				return "", apperr.Authorization("side-mismatch", "role may only place "+string(natural)+" offers")
			}
		}
		return requested, nil
	}

	natural, ok := target.Role.NaturalSide()
	if !ok {
		return "", apperr.Validation("side-required", "side must be specified for this user type")
	}
	return natural, nil
}

// CancelOffer отменяет открытое предложение. Отменить его может владелец или привилегированная роль.
func (s *Service) CancelOffer(ctx context.Context, actor model.Identity, offerID int64) error {
	offer, err := s.repo.GetOpenOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return apperr.NotFound("offer not found or already cancelled/completed", err)
		}
		return apperr.Repository("get offer", err)
	}

	if offer.UserID != actor.ID && !actor.Role.Privileged() {
		return apperr.Authorization("not-owner", "you can only cancel your own offers")
	}

	if err := s.repo.CancelOffer(ctx, offerID); err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return apperr.NotFound("offer not found or already cancelled/completed", err)
		}
		return apperr.Repository("cancel offer", err)
	}

	return nil
}
