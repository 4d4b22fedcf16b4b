package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	"assessment-gateway/internal/order"
	orderdb "assessment-gateway/internal/order/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderDB struct {
	orders map[string]*models.Order
}

func (s *stubOrderDB) CreateOrder(ctx context.Context, o models.Order) error {
	s.orders[o.ID] = &o
	return nil
}

func (s *stubOrderDB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orderdb.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubOrderDB) GetOrdersByGuestEmail(ctx context.Context, email string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.IsGuestOrder && o.GuestEmail == email {
			out = append(out, *o)
		}
	}
	return out, nil
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) IssueForOrder(ctx context.Context, o *models.Order) ([]models.GuestAccessToken, error) {
	return []models.GuestAccessToken{{Token: "gat_stub", OrderID: o.ID}}, nil
}

func setupRouter(db *stubOrderDB) *chi.Mux {
	log := logger.NewWithWriter(&bytes.Buffer{})
	svc := order.NewOrderService(db, stubTokenIssuer{}, log)
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Post("/api/v1/orders", h.CreateOrder)
	r.Get("/api/v1/orders", h.GetGuestOrders)
	r.Get("/api/v1/orders/{orderId}", h.GetOrder)
	return r
}

func TestCreateOrder(t *testing.T) {
	db := &stubOrderDB{orders: map[string]*models.Order{}}
	router := setupRouter(db)

	body := `{"assessment_type":"personality","total_amount":29.99,"is_guest_order":true,"guest_email":"guest@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    models.OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.StatusPending, resp.Data.Order.PaymentStatus)
	assert.Len(t, resp.Data.Tokens, 1)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	router := setupRouter(&stubOrderDB{orders: map[string]*models.Order{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders",
		bytes.NewBufferString(`{"total_amount":29.99}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	router := setupRouter(&stubOrderDB{orders: map[string]*models.Order{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord_missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetGuestOrders(t *testing.T) {
	db := &stubOrderDB{orders: map[string]*models.Order{
		"ord_1": {ID: "ord_1", IsGuestOrder: true, GuestEmail: "guest@example.com",
			AssessmentType: "personality", PaymentStatus: models.StatusCompleted,
			CreatedAt: time.Now().UTC()},
		"ord_2": {ID: "ord_2", IsGuestOrder: true, GuestEmail: "other@example.com",
			AssessmentType: "cognitive", PaymentStatus: models.StatusPending},
	}}
	router := setupRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?email=guest%40example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    []models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ord_1", resp.Data[0].ID)
}

func TestGetGuestOrders_MissingEmail(t *testing.T) {
	router := setupRouter(&stubOrderDB{orders: map[string]*models.Order{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
