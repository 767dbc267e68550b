package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func passThrough(next http.Handler) http.Handler { return next }

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type stubCatalog struct {
	service.CatalogService
	lastFilter domain.ProductFilter
	created    service.ProductInput
}

func (s *stubCatalog) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	s.lastFilter = filter
	return []*domain.Product{}, nil
}

func (s *stubCatalog) Get(_ context.Context, id int64) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) Create(_ context.Context, in service.ProductInput) (*domain.Product, error) {
	s.created = in
	return &domain.Product{ID: 7, Name: in.Name, Price: *in.Price}, nil
}

func TestProductRoutes(t *testing.T) {
	catalog := &stubCatalog{}
	r := chi.NewRouter()
	NewProductHandler(catalog, zap.NewNop()).RegisterRoutes(r, passThrough)

	t.Run("filters are parsed and all means none", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?category=all&sale_type=mayor&featured=true", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, catalog.lastFilter.Category)
		require.NotNil(t, catalog.lastFilter.SaleType)
		assert.Equal(t, domain.SaleTypeWholesale, *catalog.lastFilter.SaleType)
		require.NotNil(t, catalog.lastFilter.Featured)
		assert.True(t, *catalog.lastFilter.Featured)
		assert.Equal(t, true, decodeBody(t, w)["success"])
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?category=boats", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non numeric id is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})

	t.Run("missing product is not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/99", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create accepts numeric and quoted prices", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products",
			strings.NewReader(`{"name":"Filtro","price":"12.50","price_wholesale":10}`)))

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, catalog.created.Price.Equal(decimal.RequireFromString("12.50")))
		assert.True(t, catalog.created.PriceWholesale.Equal(decimal.NewFromInt(10)))
		product := decodeBody(t, w)["product"].(map[string]any)
		assert.Equal(t, 12.5, product["price"])
	})
}

type stubSubscribers struct {
	service.SubscriberService
	seen map[string]bool
}

func (s *stubSubscribers) Subscribe(_ context.Context, in service.SubscribeInput) (*service.SubscribeResult, error) {
	if s.seen[in.Email] {
		return &service.SubscribeResult{AlreadySubscribed: true}, nil
	}
	s.seen[in.Email] = true
	active := in.Active == nil || *in.Active
	return &service.SubscribeResult{Subscriber: &domain.Subscriber{ID: 1, Email: in.Email, Source: in.Source, Active: active}}, nil
}

func TestSubscribeTwiceSucceedsBothTimes(t *testing.T) {
	r := chi.NewRouter()
	NewSubscriberHandler(&stubSubscribers{seen: map[string]bool{}}, zap.NewNop()).RegisterRoutes(r, passThrough)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/subscribers", strings.NewReader(`{"email":"a@b.com"}`)))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/subscribers", strings.NewReader(`{"email":"a@b.com"}`)))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, true, decodeBody(t, second)["success"])
	assert.Equal(t, "already subscribed", decodeBody(t, second)["message"])
}

func TestSubscribePassesActiveFlag(t *testing.T) {
	r := chi.NewRouter()
	NewSubscriberHandler(&stubSubscribers{seen: map[string]bool{}}, zap.NewNop()).RegisterRoutes(r, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/subscribers",
		strings.NewReader(`{"email":"quiet@b.com","source":"import","is_active":false}`)))

	require.Equal(t, http.StatusCreated, w.Code)
	subscriber := decodeBody(t, w)["subscriber"].(map[string]any)
	assert.Equal(t, false, subscriber["is_active"])
	assert.Equal(t, "import", subscriber["source"])
}

type stubOrders struct {
	service.OrderService
	lastFilter domain.OrderFilter
	lastFrom   *time.Time
	lastTo     *time.Time
}

func (s *stubOrders) List(_ context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubOrders) Document(_ context.Context, id string, kind domain.DocumentKind) (*domain.OrderDocument, error) {
	if kind != domain.DocumentDelivery {
		return nil, domain.NewValidationError("doc_type", "doc_type must be ticket or delivery")
	}
	return &domain.OrderDocument{Filename: "delivery_" + id + ".pdf", Content: []byte("%PDF-1.3 test")}, nil
}

func (s *stubOrders) SalesReport(_ context.Context, from, to *time.Time) (*domain.SalesReport, error) {
	s.lastFrom, s.lastTo = from, to
	return &domain.SalesReport{TotalSales: decimal.Zero}, nil
}

func TestOrderDocumentDownload(t *testing.T) {
	r := chi.NewRouter()
	NewOrderHandler(&stubOrders{}, zap.NewNop()).RegisterRoutes(r, passThrough, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/ORD-20240101-ABCDEFGH/pdf?doc_type=delivery", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="delivery_ORD-20240101-ABCDEFGH.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/api/orders/ORD-1/pdf?doc_type=invoice", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestOrderListFilters(t *testing.T) {
	orders := &stubOrders{}
	r := chi.NewRouter()
	NewOrderHandler(orders, zap.NewNop()).RegisterRoutes(r, passThrough, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders?status=paid&source=mercadolibre&sort=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, orders.lastFilter.Status)
	assert.Equal(t, domain.OrderStatusPaid, *orders.lastFilter.Status)
	assert.Equal(t, "mercadolibre", *orders.lastFilter.Source)
	assert.True(t, orders.lastFilter.Ascending)

	typo := httptest.NewRecorder()
	r.ServeHTTP(typo, httptest.NewRequest(http.MethodGet, "/api/orders?status=shiped", nil))
	assert.Equal(t, http.StatusBadRequest, typo.Code)
}

func TestSalesReportDateRangeIncludesEndDay(t *testing.T) {
	orders := &stubOrders{}
	r := chi.NewRouter()
	NewReportHandler(orders, zap.NewNop()).RegisterRoutes(r, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/sales?start_date=2024-03-01&end_date=2024-03-31", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, orders.lastFrom)
	require.NotNil(t, orders.lastTo)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *orders.lastFrom)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *orders.lastTo)

	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/api/reports/sales?start_date=01/03/2024", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

type stubChatbot struct {
	service.ChatbotService
}

func (stubChatbot) Query(_ context.Context, message string) (*domain.ChatbotReply, error) {
	return &domain.ChatbotReply{Response: "Enviamos a todo el país", RedirectWhatsApp: true, WhatsAppNumber: "+584121234567"}, nil
}

func TestChatbotQueryEnvelope(t *testing.T) {
	r := chi.NewRouter()
	NewChatbotHandler(stubChatbot{}, zap.NewNop()).RegisterRoutes(r, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chatbot/query", strings.NewReader(`{"message":"hacen envios?"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Enviamos a todo el país", body["response"])
	assert.Equal(t, true, body["redirect_whatsapp"])
	assert.Equal(t, "+584121234567", body["whatsapp_number"])
}

func TestCartUpdateRequiresQuantity(t *testing.T) {
	r := chi.NewRouter()
	NewCartHandler(nil, zap.NewNop()).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/cart/3", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
