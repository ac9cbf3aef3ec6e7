package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	checkoutsvc "github.com/oaklinehq/checkout-backend/internal/checkout"
	ordersrepo "github.com/oaklinehq/checkout-backend/internal/orders"
	"github.com/oaklinehq/checkout-backend/internal/pricing"
	"github.com/oaklinehq/checkout-backend/pkg/config"
	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

type stubCheckoutService struct {
	order *models.Order
}

func (s stubCheckoutService) Quote(_ context.Context, _ pricing.Context) (pricing.Result, error) {
	return pricing.Result{
		OriginalPrice: money.MustFromString("200.00"),
		FinalPrice:    money.MustFromString("170.00"),
		Discount:      money.MustFromString("30.00"),
	}, nil
}

func (s stubCheckoutService) Execute(_ context.Context, _ pricing.Context, _ checkoutsvc.ExecuteInput) (*models.Order, error) {
	return s.order, nil
}

func (s stubCheckoutService) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

type stubOrdersRepo struct {
	orders []models.Order
}

func (s stubOrdersRepo) WithTx(*gorm.DB) ordersrepo.Repository { return s }
func (s stubOrdersRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}
func (s stubOrdersRepo) CreateLineItems(context.Context, []models.OrderLineItem) error { return nil }
func (s stubOrdersRepo) CreateAllocations(context.Context, []models.OrderDiscountAllocation) error {
	return nil
}
func (s stubOrdersRepo) CreateExtraItems(context.Context, []models.OrderExtraItem) error { return nil }
func (s stubOrdersRepo) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s stubOrdersRepo) FindByIdempotencyKey(context.Context, string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s stubOrdersRepo) ListByUser(context.Context, uuid.UUID, int) ([]models.Order, error) {
	return s.orders, nil
}

func testRouter(t *testing.T, svc checkoutsvc.Service, repo ordersrepo.Repository) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, nil, nil, svc, repo, nil)
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, stubCheckoutService{}, stubOrdersRepo{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Checkout-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-Checkout-Env"))
	}
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	router := testRouter(t, stubCheckoutService{}, stubOrdersRepo{})

	for _, tt := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/pricing/quote"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodGet, "/api/v1/orders"},
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tt.method, tt.path, resp.Code)
		}
	}
}

func TestQuoteEndToEnd(t *testing.T) {
	router := testRouter(t, stubCheckoutService{}, stubOrdersRepo{})

	body := `{"items":[{"sku_code":"SKU-A","qty":2}],"coupons":["SAVE30"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(body))
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data struct {
			FinalPrice string `json:"final_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.FinalPrice != "170.00" {
		t.Fatalf("expected final price 170.00 got %q", payload.Data.FinalPrice)
	}
}

func TestQuoteRejectsInvalidBody(t *testing.T) {
	router := testRouter(t, stubCheckoutService{}, stubOrdersRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(`{"items":[]}`))
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutCreatesOrder(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		OriginalPrice: money.MustFromString("200.00"),
		FinalPrice:    money.MustFromString("170.00"),
		Discount:      money.MustFromString("30.00"),
	}
	router := testRouter(t, stubCheckoutService{order: order}, stubOrdersRepo{})

	body := `{"items":[{"sku_code":"SKU-A","qty":2}],"coupons":["SAVE30"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("X-User-Id", order.UserID.String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.OrderID != order.ID.String() {
		t.Fatalf("expected order id %s got %s", order.ID, payload.Data.OrderID)
	}
	if payload.Data.Status != string(enums.OrderStatusPending) {
		t.Fatalf("unexpected status %s", payload.Data.Status)
	}
}

func TestOrderDetailInvalidID(t *testing.T) {
	router := testRouter(t, stubCheckoutService{}, stubOrdersRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailHidesForeignOrders(t *testing.T) {
	order := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: enums.OrderStatusPending,
	}
	router := testRouter(t, stubCheckoutService{order: order}, stubOrdersRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderListReturnsOrders(t *testing.T) {
	repo := stubOrdersRepo{orders: []models.Order{
		{ID: uuid.New(), Status: enums.OrderStatusPaid},
	}}
	router := testRouter(t, stubCheckoutService{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data struct {
			Orders []struct {
				Status string `json:"status"`
			} `json:"orders"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data.Orders) != 1 || payload.Data.Orders[0].Status != string(enums.OrderStatusPaid) {
		t.Fatalf("unexpected orders payload: %s", resp.Body.String())
	}
}
