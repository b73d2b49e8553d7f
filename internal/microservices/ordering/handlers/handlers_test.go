package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/cart"
	"tableside/internal/microservices/ordering/repository"
	"tableside/internal/microservices/ordering/service"
	"tableside/internal/microservices/ordering/session"
	"tableside/internal/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

type server struct {
	router *gin.Engine
	f      testutil.Fixtures
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewSQLite(t)
	f := testutil.Seed(t, db)
	repo := repository.New(db)
	carts := cart.NewStore(repo.CatalogRepo)
	sessions := session.NewManager(repo.CatalogRepo, carts)
	cfg := config.OrderingConfig{GuestEmployeeID: f.GuestID, SubmitAttempts: 3, RetryBackoff: time.Millisecond}

	svc, err := service.New(context.Background(), repo, carts, sessions, service.NopPublisher{}, cfg, logger.Nop())
	require.NoError(t, err)
	return &server{router: Router(New(svc, db, nil), logger.Nop(), 5*time.Second), f: f}
}

func (s *server) do(t *testing.T, method, path, sid string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) bind(t *testing.T, tableID int64) string {
	t.Helper()
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tables/%d/bind", tableID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			require.NotEmpty(t, c.Value)
			return c.Value
		}
	}
	t.Fatal("bind did not set a session cookie")
	return ""
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func problemType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	return decode[map[string]any](t, w)["type"].(string)
}

func TestOrderFlow(t *testing.T) {
	s := newServer(t)
	sid := s.bind(t, s.f.TableID)

	w := s.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_active_cart", problemType(t, w))

	for _, id := range []int64{s.f.ProductA, s.f.ProductA, s.f.ProductB} {
		w = s.do(t, http.MethodPost, "/api/v1/cart/items", sid, map[string]any{"product_id": id})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	view := decode[map[string]any](t, w)
	assert.Equal(t, "11", view["total"])

	w = s.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[domain.Order](t, w)
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, "11", o.TotalPrice.String())

	w = s.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string]any](t, w)["items"])

	w = s.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusOK, w.Code, "empty cart returns the open order unchanged")
	assert.Equal(t, o.ID, decode[domain.Order](t, w).ID)

	w = s.do(t, http.MethodGet, "/api/v1/orders/current", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, o.ID, decode[domain.Order](t, w).ID)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/lines/%d/serve", o.Lines[0].ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/lines/%d/serve", o.Lines[0].ID), "", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", problemType(t, w))

	payPath := fmt.Sprintf("/api/v1/orders/%d/pay", o.ID)
	w = s.do(t, http.MethodPost, payPath, "", nil, EmployeeHeader, fmt.Sprint(s.f.WaiterID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.OrderPaid, decode[domain.Order](t, w).Status)

	w = s.do(t, http.MethodPost, payPath, "", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_paid", problemType(t, w))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/timeline?limit=2", o.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string]any](t, w)["events"], 2)
}

func TestSessionRequired(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", problemType(t, w))

	sid := s.bind(t, s.f.TableID)
	w = s.do(t, http.MethodDelete, "/api/v1/session", sid, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHeaderFallback(t *testing.T) {
	s := newServer(t)
	sid := s.bind(t, s.f.OtherTable)

	w := s.do(t, http.MethodGet, "/api/v1/cart", "", nil, SessionHeader, sid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Table 2", decode[map[string]any](t, w)["table_name"])
}

func TestBadRequests(t *testing.T) {
	s := newServer(t)
	sid := s.bind(t, s.f.TableID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		header []string
		code   int
		typ    string
	}{
		{"unknown table", http.MethodPost, "/api/v1/tables/99/bind", nil, nil, http.StatusNotFound, "not_found"},
		{"unknown product", http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 99}, nil, http.StatusUnprocessableEntity, "invalid_product"},
		{"missing product id", http.MethodPost, "/api/v1/cart/items", map[string]any{}, nil, http.StatusBadRequest, "bad_request"},
		{"bad order id", http.MethodGet, "/api/v1/orders/abc", nil, nil, http.StatusBadRequest, "bad_request"},
		{"unknown order", http.MethodGet, "/api/v1/orders/99", nil, nil, http.StatusNotFound, "not_found"},
		{"unknown line", http.MethodPost, "/api/v1/lines/99/pay", nil, nil, http.StatusNotFound, "not_found"},
		{"malformed employee", http.MethodPost, "/api/v1/orders", nil, []string{EmployeeHeader, "x"}, http.StatusUnauthorized, "unauthorized"},
		{"unknown employee", http.MethodPost, "/api/v1/orders", nil, []string{EmployeeHeader, "99"}, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, sid, tt.body, tt.header...)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.typ, problemType(t, w))
		})
	}
}

func TestListingsAndHealth(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/tables", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string]any](t, w)["tables"], 2)

	w = s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string]any](t, w)["products"], 3)

	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.NewError(domain.KindNotFound, "x"), http.StatusNotFound},
		{domain.NewError(domain.KindUnauthorized, "x"), http.StatusUnauthorized},
		{domain.NewError(domain.KindInvalidProduct, "x"), http.StatusUnprocessableEntity},
		{domain.NewError(domain.KindNoActiveCart, "x"), http.StatusConflict},
		{domain.NewError(domain.KindAlreadyPaid, "x"), http.StatusConflict},
		{domain.NewError(domain.KindInvalidTransition, "x"), http.StatusConflict},
		{domain.NewError(domain.KindConflict, "x"), http.StatusServiceUnavailable},
		{domain.NewError(domain.KindCorruption, "x"), http.StatusInternalServerError},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, float64(tt.code), decode[map[string]any](t, w)["status"])
		})
	}
}

type stubBroker struct{ err error }

func (b stubBroker) Ping() error { return b.err }

func TestHealthzBroker(t *testing.T) {
	db := testutil.NewSQLite(t)
	for _, tc := range []struct {
		name   string
		broker BrokerPinger
		code   int
	}{
		{"disabled", nil, http.StatusOK},
		{"up", stubBroker{}, http.StatusOK},
		{"down", stubBroker{err: errors.New("rabbitmq connection is closed")}, http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", (&HealthHandler{db: db, broker: tc.broker}).Healthz)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			if tc.code != http.StatusOK {
				assert.Equal(t, "broker_unavailable", problemType(t, w))
			}
		})
	}
}
