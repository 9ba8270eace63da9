package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/sigecafe-server/internal/apperr"
	"github.com/mmeshcher/sigecafe-server/internal/middleware"
	"github.com/mmeshcher/sigecafe-server/internal/model"
	"github.com/mmeshcher/sigecafe-server/internal/service"
)

type stubService struct {
	registerUserID int64
	registerErr    error
	registerRole   model.Role

	authIdentity *model.Identity
	authErr      error

	book    *model.OrderBook
	bookErr error
	bids    []model.Offer
	asks    []model.Offer

	userOffers  []model.Offer
	offersUser  int64
	createReq   model.CreateOfferRequest
	createActor model.Identity
	createResp  *model.Offer
	createErr   error

	cancelActor model.Identity
	cancelID    int64
	cancelErr   error

	price      *model.CurrentPrice
	priceErr   error
	priceForce bool

	history       []model.PriceQuote
	historyPeriod string
}

func (s *stubService) RegisterUser(ctx context.Context, name, phone, password string, role model.Role) (int64, error) {
	s.registerRole = role
	return s.registerUserID, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, phone, password string) (*model.Identity, error) {
	return s.authIdentity, s.authErr
}

func (s *stubService) GetOrderBook(ctx context.Context) (*model.OrderBook, error) {
	return s.book, s.bookErr
}

func (s *stubService) GetBids(ctx context.Context) ([]model.Offer, error) {
	return s.bids, nil
}

func (s *stubService) GetAsks(ctx context.Context) ([]model.Offer, error) {
	return s.asks, nil
}

func (s *stubService) GetOffersByUser(ctx context.Context, userID int64) ([]model.Offer, error) {
	s.offersUser = userID
	return s.userOffers, nil
}

func (s *stubService) CreateOffer(ctx context.Context, actor model.Identity, req model.CreateOfferRequest) (*model.Offer, error) {
	s.createActor = actor
	s.createReq = req
	return s.createResp, s.createErr
}

func (s *stubService) CancelOffer(ctx context.Context, actor model.Identity, offerID int64) error {
	s.cancelActor = actor
	s.cancelID = offerID
	return s.cancelErr
}

func (s *stubService) GetCurrentPrice(ctx context.Context, force bool) (*model.CurrentPrice, error) {
	s.priceForce = force
	return s.price, s.priceErr
}

func (s *stubService) GetPriceHistory(ctx context.Context, period string) ([]model.PriceQuote, error) {
	s.historyPeriod = period
	return s.history, nil
}

type stubPermissions struct {
	perms   []model.Permission
	allowed bool
	err     error
}

func (p *stubPermissions) ForRole(ctx context.Context, role model.Role) ([]model.Permission, error) {
	return p.perms, p.err
}

func (p *stubPermissions) HasPermission(ctx context.Context, path string, role model.Role) (bool, error) {
	return p.allowed, p.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

var (
	producer = model.Identity{ID: 2, Role: model.RoleProducer}
	admin    = model.Identity{ID: 1, Role: model.RoleAdministrator}
)

type testServer struct {
	router http.Handler
	auth   *middleware.AuthMiddleware
}

func newTestServer(t *testing.T, svc Service, perms Permissions) *testServer {
	t.Helper()

	auth := middleware.NewAuthMiddleware("test-secret")
	h := NewHandler(svc, perms, zap.NewNop(), auth)

	return &testServer{router: h.SetupRouter(), auth: auth}
}

func (s *testServer) do(t *testing.T, method, target string, body any, as *model.Identity) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		rec := httptest.NewRecorder()
		require.NoError(t, s.auth.SetAuthCookie(rec, *as))
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func sampleOffer(id, userID int64, side model.OfferSide, price string) model.Offer {
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	return model.Offer{
		ID:          id,
		UserID:      userID,
		UserName:    "Fazenda Boa Vista",
		UserRole:    model.RoleProducer,
		CreatedByID: userID,
		Side:        side,
		Price:       decimal.RequireFromString(price),
		Quantity:    10,
		Status:      model.OfferStatusOpen,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestSignup_SetsCookie(t *testing.T) {
	svc := &stubService{registerUserID: 42}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodPost, "/api/auth/signup", signupRequest{
		Name:     "João",
		Phone:    "(35) 99876-5432",
		Password: "secret",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Result().Cookies())

	var got identityResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, identityResponse{ID: 42, Role: string(model.RoleProducer)}, got)
}

func TestSignup_Conflict(t *testing.T) {
	svc := &stubService{registerErr: apperr.Conflict("user already exists", errors.New("duplicate"))}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodPost, "/api/auth/signup", signupRequest{
		Name: "João", Phone: "35998765432", Password: "secret", Role: "COMPRADOR",
	}, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "conflict", env.Error)
	assert.Equal(t, model.RoleBuyer, svc.registerRole)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodPost, "/api/auth/login", loginRequest{Phone: "35998765432", Password: "x"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestLogin_Success(t *testing.T) {
	svc := &stubService{authIdentity: &producer}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodPost, "/api/auth/login", loginRequest{Phone: "35998765432", Password: "x"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestLogin_BadBody(t *testing.T) {
	ts := newTestServer(t, &stubService{}, &stubPermissions{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOffers_RequireSession(t *testing.T) {
	ts := newTestServer(t, &stubService{}, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/offers", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", env.Error)
}

func TestGetOffers_OrderBook(t *testing.T) {
	svc := &stubService{book: &model.OrderBook{
		Bids: []model.Offer{sampleOffer(1, 3, model.SideBuy, "1500.00")},
		Asks: []model.Offer{sampleOffer(2, 2, model.SideSell, "1600.50")},
	}}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/offers", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)

	var book orderBookResponse
	require.NoError(t, json.Unmarshal(env.Data, &book))
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, 1500.0, book.Bids[0].Price)
	assert.Equal(t, 1600.5, book.Asks[0].Price)
	assert.Equal(t, "SELL", book.Asks[0].Side)
}

func TestGetOffers_EmptyBookSerializesArrays(t *testing.T) {
	svc := &stubService{book: &model.OrderBook{}}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/offers", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bids":[],"asks":[]}`, string(env.Data))
}

func TestGetOffers_SingleSide(t *testing.T) {
	svc := &stubService{
		bids: []model.Offer{sampleOffer(1, 3, model.SideBuy, "1500")},
		asks: []model.Offer{sampleOffer(2, 2, model.SideSell, "1600"), sampleOffer(3, 2, model.SideSell, "1550")},
	}
	ts := newTestServer(t, svc, &stubPermissions{})

	_, env := ts.do(t, http.MethodGet, "/api/offers?type=asks", nil, &producer)
	var asks []offerResponse
	require.NoError(t, json.Unmarshal(env.Data, &asks))
	assert.Len(t, asks, 2)

	rec, _ := ts.do(t, http.MethodGet, "/api/offers?type=everything", nil, &producer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOffers_RepositoryFailureHidesDetails(t *testing.T) {
	svc := &stubService{bookErr: apperr.Repository("get open offers", errors.New("pq: password authentication failed"))}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/offers", nil, &producer)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "repository", env.Error)
	assert.NotContains(t, env.Message, "password")
}

func TestGetMyOffers_UsesSessionIdentity(t *testing.T) {
	svc := &stubService{userOffers: []model.Offer{sampleOffer(5, 2, model.SideSell, "1500")}}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, _ := ts.do(t, http.MethodGet, "/api/offers/mine", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, producer.ID, svc.offersUser)
}

func TestCreateOffer_Created(t *testing.T) {
	offer := sampleOffer(7, 2, model.SideSell, "1500.00")
	svc := &stubService{createResp: &offer}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodPost, "/api/offers", map[string]any{
		"price":    1500,
		"quantity": 10,
	}, &producer)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, producer, svc.createActor)
	assert.Equal(t, model.CreateOfferRequest{Price: 1500, Quantity: 10}, svc.createReq)

	var got offerResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "OPEN", got.Status)
}

func TestCreateOffer_OnBehalfPassesTarget(t *testing.T) {
	offer := sampleOffer(8, 2, model.SideSell, "1500.00")
	offer.CreatedByID = admin.ID
	svc := &stubService{createResp: &offer}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, _ := ts.do(t, http.MethodPost, "/api/offers", map[string]any{
		"side":      "SELL",
		"price":     1500,
		"quantity":  10,
		"usuarioId": 2,
	}, &admin)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), svc.createReq.OnBehalfOfUserID)
	assert.Equal(t, model.SideSell, svc.createReq.Side)
}

func TestCreateOffer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{name: "validation", err: apperr.Validation("price", "price must be a positive number"), status: http.StatusBadRequest, category: "validation"},
		{name: "side mismatch", err: apperr.Authorization("side-mismatch", "producers may only sell"), status: http.StatusForbidden, category: "authorization"},
		{name: "unknown target", err: apperr.NotFound("user not found", nil), status: http.StatusNotFound, category: "not_found"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, category: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{createErr: tt.err}
			ts := newTestServer(t, svc, &stubPermissions{})

			rec, env := ts.do(t, http.MethodPost, "/api/offers", map[string]any{"price": 1, "quantity": 1}, &producer)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.category, env.Error)
		})
	}
}

func TestCancelOffer(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodDelete, "/api/offers/15", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Offer cancelled successfully"}`, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "Offer cancelled successfully", env.Message)
	assert.Equal(t, int64(15), svc.cancelID)
	assert.Equal(t, producer, svc.cancelActor)
}

func TestCancelOffer_InvalidID(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, _ := ts.do(t, http.MethodDelete, "/api/offers/abc", nil, &producer)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.cancelID)
}

func TestCancelOffer_NotFoundAndForbidden(t *testing.T) {
	svc := &stubService{cancelErr: apperr.NotFound("offer not found", nil)}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, _ := ts.do(t, http.MethodDelete, "/api/offers/15", nil, &producer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.cancelErr = apperr.Authorization("not-owner", "only the owner may cancel this offer")
	rec, _ = ts.do(t, http.MethodDelete, "/api/offers/15", nil, &producer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetCurrentPrice(t *testing.T) {
	arabica := 2560.75
	svc := &stubService{price: &model.CurrentPrice{
		Arabica: &arabica,
		Date:    time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/coffee-prices?force=true", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.priceForce)
	assert.JSONEq(t, `{"arabica":2560.75,"robusta":null,"date":"2024-05-10T00:00:00Z"}`, string(env.Data))
}

func TestGetCurrentPrice_SourceUnavailable(t *testing.T) {
	svc := &stubService{priceErr: apperr.ExternalSource(errors.New("all strategies failed"))}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/coffee-prices", nil, &producer)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "external_source", env.Error)
	assert.False(t, svc.priceForce)
}

func TestGetPriceHistory(t *testing.T) {
	svc := &stubService{history: []model.PriceQuote{{
		Date:    time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
		Arabica: decimal.NewNullDecimal(decimal.RequireFromString("2500.10")),
		Source:  "CEPEA/ESALQ",
	}}}
	ts := newTestServer(t, svc, &stubPermissions{})

	rec, env := ts.do(t, http.MethodGet, "/api/coffee-prices/history?period=month", nil, &producer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "month", svc.historyPeriod)
	assert.JSONEq(t, `[{"date":"2024-05-09T00:00:00Z","arabica":2500.1,"robusta":null,"source":"CEPEA/ESALQ"}]`, string(env.Data))
}

func TestPermissions(t *testing.T) {
	perms := &stubPermissions{
		perms:   []model.Permission{{Path: "/offers", Title: "Ofertas"}},
		allowed: true,
	}
	ts := newTestServer(t, &stubService{}, perms)

	rec, env := ts.do(t, http.MethodGet, "/api/permissions", nil, &producer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"path":"/offers","title":"Ofertas"}]`, string(env.Data))

	rec, env = ts.do(t, http.MethodGet, "/api/permissions/check?path=/offers", nil, &producer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":true}`, string(env.Data))

	rec, _ = ts.do(t, http.MethodGet, "/api/permissions/check", nil, &producer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	ts := newTestServer(t, &stubService{}, &stubPermissions{})

	rec, _ := ts.do(t, http.MethodPost, "/api/auth/logout", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
