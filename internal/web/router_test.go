package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"marketplace-be/internal/auth"
	"marketplace-be/internal/cart"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/middleware"
	"marketplace-be/internal/order"
	"marketplace-be/internal/payment"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/product"
	"marketplace-be/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeListings map[int64]*product.Listing

func (f fakeListings) GetListing(_ context.Context, id int64) (*product.Listing, error) {
	l, ok := f[id]
	if !ok {
		return nil, product.ErrListingNotFound
	}
	return l, nil
}

func (f fakeListings) GetListings(_ context.Context, ids []int64) (map[int64]*product.Listing, error) {
	out := make(map[int64]*product.Listing, len(ids))
	for _, id := range ids {
		if l, ok := f[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CheckoutPage(ctx context.Context, s *session.Session, v order.Viewer, cur pricing.Currency) (*order.CheckoutPageDTO, error) {
	args := m.Called(ctx, s, v, cur)
	p, _ := args.Get(0).(*order.CheckoutPageDTO)
	return p, args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, s *session.Session, v order.Viewer, in order.CheckoutInput) (*order.CheckoutResult, error) {
	args := m.Called(ctx, s, v, in)
	r, _ := args.Get(0).(*order.CheckoutResult)
	return r, args.Error(1)
}

func (m *MockOrderService) GetOrderDetail(ctx context.Context, s *session.Session, v order.Viewer, id int64, cur pricing.Currency) (*order.OrderDetailDTO, error) {
	args := m.Called(ctx, s, v, id, cur)
	d, _ := args.Get(0).(*order.OrderDetailDTO)
	return d, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, v order.Viewer, page, limit int, cur pricing.Currency) (*order.OrderListDTO, error) {
	args := m.Called(ctx, v, page, limit, cur)
	l, _ := args.Get(0).(*order.OrderListDTO)
	return l, args.Error(1)
}

func (m *MockOrderService) DeliveryInfo(ctx context.Context, id int64, cur pricing.Currency) (*order.DeliveryInfoDTO, error) {
	args := m.Called(ctx, id, cur)
	d, _ := args.Get(0).(*order.DeliveryInfoDTO)
	return d, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) PaymentPage(ctx context.Context, s *session.Session, c payment.Category, cur pricing.Currency) (*payment.PageDTO, error) {
	args := m.Called(ctx, s, c, cur)
	p, _ := args.Get(0).(*payment.PageDTO)
	return p, args.Error(1)
}

func (m *MockPaymentService) Pay(ctx context.Context, s *session.Session, account string) (string, error) {
	args := m.Called(ctx, s, account)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentService) Progress(ctx context.Context, s *session.Session) (*payment.ProgressDTO, error) {
	args := m.Called(ctx, s)
	p, _ := args.Get(0).(*payment.ProgressDTO)
	return p, args.Error(1)
}

type testServer struct {
	handler  http.Handler
	orders   *MockOrderService
	payments *MockPaymentService
	store    *session.MemoryStore
	metrics  *metrics.Registry
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	listings := fakeListings{
		1: {
			ID:        1,
			Product:   product.Product{ID: 1, Name: "Kettle", IsActive: true},
			Shop:      product.Shop{ID: 3, Name: "Tea House"},
			CountLeft: 5,
			Price:     decimal.RequireFromString("1000"),
			IsActive:  true,
		},
	}
	conv := pricing.NewStaticConverter(decimal.RequireFromString("0.0115"))

	ts := &testServer{
		orders:   new(MockOrderService),
		payments: new(MockPaymentService),
		store:    session.NewMemoryStore(),
		metrics:  metrics.NewRegistry(),
	}
	h := NewHandler(cart.NewService(listings, conv), ts.orders, ts.payments, ts.metrics, checks)
	engine := NewRouter(Config{
		Env:        "test",
		LoginURL:   "/accounts/login/",
		SessionTTL: time.Hour,
	}, h, ts.store)

	ts.handler = middleware.AuthMiddleware(testSecret)(engine)
	return ts
}

type request struct {
	method  string
	path    string
	form    url.Values
	json    string
	cookies []*http.Cookie
	token   string
	headers map[string]string
}

func (ts *testServer) do(r request) *httptest.ResponseRecorder {
	var body *strings.Reader
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
	case r.json != "":
		body = strings.NewReader(r.json)
	default:
		body = strings.NewReader("")
	}

	req := httptest.NewRequest(r.method, r.path, body)
	switch {
	case r.form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case r.json != "":
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func buyerToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.GenerateJWT(testSecret, 7, "ivan@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

// seedSession stores a session holding the given values and returns its cookie.
func (ts *testServer) seedSession(t *testing.T, orderID int64, withCart bool) *http.Cookie {
	t.Helper()
	sess := session.New()
	if orderID > 0 {
		sess.SetOrderID(orderID)
	}
	if withCart {
		c := cart.New()
		c.Add(&product.Listing{ID: 1, Price: decimal.RequireFromString("1000"), IsActive: true}, 1, false)
		require.NoError(t, c.Save(sess))
	}
	require.NoError(t, ts.store.Save(context.Background(), sess))
	return &http.Cookie{Name: SessionCookie, Value: sess.ID}
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(request{
		method:  http.MethodPost,
		path:    "/cart/add/1/",
		form:    url.Values{"quantity": {"2"}},
		headers: map[string]string{"Referer": "/catalog/kettle/"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/catalog/kettle/", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	rec = ts.do(request{method: http.MethodPost, path: "/cart/change/1/plus", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))

	rec = ts.do(request{method: http.MethodGet, path: "/cart/?lang=ru", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_quantity":3`)
	assert.Contains(t, rec.Body.String(), `"display":"3000.00 RUB"`)

	rec = ts.do(request{method: http.MethodGet, path: "/cart/remove/1/", cookies: []*http.Cookie{cookie}})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = ts.do(request{method: http.MethodGet, path: "/cart/", cookies: []*http.Cookie{cookie}})
	assert.Contains(t, rec.Body.String(), `"total_quantity":0`)
}

func TestCartAdd_DefaultsAndErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("No referer goes to cart", func(t *testing.T) {
		rec := ts.do(request{method: http.MethodPost, path: "/cart/add/1/", form: url.Values{"quantity": {"abc"}}})
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/cart/", rec.Header().Get("Location"))
	})

	t.Run("Unknown listing", func(t *testing.T) {
		rec := ts.do(request{method: http.MethodPost, path: "/cart/add/99/", form: url.Values{}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Unknown change", func(t *testing.T) {
		rec := ts.do(request{method: http.MethodGet, path: "/cart/change/1/double"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCheckout(t *testing.T) {
	validForm := url.Values{
		"name":              {"Ivan"},
		"phone":             {"+79123456789"},
		"email":             {"ivan@example.com"},
		"delivery_category": {"1"},
		"city":              {"Kazan"},
		"address":           {"Lenina 1"},
		"payment_category":  {"bank-card"},
		"is_free_delivery":  {"on"},
	}

	t.Run("Anonymous is sent to login", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/checkout/"})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/accounts/login/?next=%2Forder%2Fcheckout%2F", rec.Header().Get("Location"))
	})

	t.Run("Empty cart is forbidden", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", form: validForm, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Field errors", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 0, true)
		form := url.Values{"email": {"bad"}}

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", form: form,
			cookies: []*http.Cookie{cookie}, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name":["This field is required."]`)
		assert.Contains(t, rec.Body.String(), `"email":["Enter a valid email address."]`)
		ts.orders.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Not enough goods", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 0, true)
		ts.orders.On("Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&order.CheckoutResult{Errors: order.FieldErrors{
				order.NotEnoughGoodsField: {"Kettle: in stock - 0, in cart - 1"},
			}}, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", form: validForm,
			cookies: []*http.Cookie{cookie}, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_enough_goods")
	})

	t.Run("Success redirects to payment", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 0, true)
		ts.orders.On("Checkout", mock.Anything, mock.Anything,
			order.Viewer{UserID: 7, Email: "ivan@example.com"},
			mock.MatchedBy(func(in order.CheckoutInput) bool {
				return in.IsFreeDelivery && in.DeliveryCategoryID == 1 && in.PaymentCategory == "bank-card"
			})).
			Return(&order.CheckoutResult{OrderID: 42, Redirect: "/order/payment/bank-card/"}, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", form: validForm,
			cookies: []*http.Cookie{cookie}, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/order/payment/bank-card/", rec.Header().Get("Location"))
		ts.orders.AssertExpectations(t)
	})

	t.Run("Form without checkbox is not free", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 0, true)
		form := url.Values{}
		for k, v := range validForm {
			if k != "is_free_delivery" {
				form[k] = v
			}
		}
		ts.orders.On("Checkout", mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(in order.CheckoutInput) bool { return !in.IsFreeDelivery })).
			Return(&order.CheckoutResult{OrderID: 42, Redirect: "/order/payment/bank-card/"}, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", form: form,
			cookies: []*http.Cookie{cookie}, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusFound, rec.Code)
		ts.orders.AssertExpectations(t)
	})

	t.Run("JSON body keeps is_free_delivery", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 0, true)
		body := `{"name":"Ivan","phone":"+79123456789","email":"ivan@example.com",` +
			`"delivery_category":1,"city":"Kazan","address":"Lenina 1",` +
			`"payment_category":"bank-card","is_free_delivery":true}`
		ts.orders.On("Checkout", mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(in order.CheckoutInput) bool {
				return in.IsFreeDelivery && in.DeliveryCategoryID == 1
			})).
			Return(&order.CheckoutResult{OrderID: 42, Redirect: "/order/payment/bank-card/"}, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/checkout/", json: body,
			cookies: []*http.Cookie{cookie}, token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/order/payment/bank-card/", rec.Header().Get("Location"))
		ts.orders.AssertExpectations(t)
	})
}

func TestPayment(t *testing.T) {
	t.Run("Pay redirects to progress", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cookie := ts.seedSession(t, 42, true)
		ts.payments.On("Pay", mock.Anything, mock.Anything, "123456782").Return(payment.ProgressPath, nil)

		rec := ts.do(request{method: http.MethodPost, path: "/order/payment/bank-card/",
			form: url.Values{"account_number": {"123456782"}}, cookies: []*http.Cookie{cookie},
			token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, payment.ProgressPath, rec.Header().Get("Location"))
	})

	t.Run("Unknown category", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/payment/cash/", token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("No order in session", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.payments.On("PaymentPage", mock.Anything, mock.Anything, payment.CategorySomeOne, pricing.USD).
			Return(nil, payment.ErrNoOrderInSession)

		rec := ts.do(request{method: http.MethodGet, path: "/order/payment/some-one/",
			token: buyerToken(t, auth.RoleBuyer), headers: map[string]string{"Accept-Language": "en-US,en;q=0.9"}})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Progress with cart is forbidden", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.payments.On("Progress", mock.Anything, mock.Anything).Return(nil, payment.ErrCartStillPresent)

		rec := ts.do(request{method: http.MethodGet, path: "/order/payment/progress/", token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOrderDetail(t *testing.T) {
	t.Run("Forbidden", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.orders.On("GetOrderDetail", mock.Anything, mock.Anything, mock.Anything, int64(42), pricing.RUB).
			Return(nil, order.ErrForbidden)

		rec := ts.do(request{method: http.MethodGet, path: "/order/42/", token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.orders.On("GetOrderDetail", mock.Anything, mock.Anything, mock.Anything, int64(43), pricing.RUB).
			Return(nil, order.ErrOrderNotFound)

		rec := ts.do(request{method: http.MethodGet, path: "/order/43/", token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Staff viewer", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.orders.On("GetOrderDetail", mock.Anything, mock.Anything,
			order.Viewer{UserID: 7, Email: "ivan@example.com", IsStaff: true}, int64(42), pricing.RUB).
			Return(&order.OrderDetailDTO{ID: 42}, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/42/", token: buyerToken(t, auth.RoleStaff)})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":42`)
	})

	t.Run("Invalid token", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/42/", token: "garbage"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrderList(t *testing.T) {
	t.Run("Anonymous is sent to login", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/"})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/accounts/login/?next=%2Forder%2F", rec.Header().Get("Location"))
	})

	t.Run("Buyer history", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.orders.On("ListOrders", mock.Anything,
			order.Viewer{UserID: 7, Email: "ivan@example.com"}, 2, 10, pricing.USD).
			Return(&order.OrderListDTO{
				Orders: []order.OrderSummaryDTO{{ID: 43, Status: order.StatusNotPaid, StatusLabel: "Not paid"}},
				Page:   2,
				Limit:  10,
			}, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/?page=2&limit=10&lang=en",
			token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":43`)
		assert.Contains(t, rec.Body.String(), `"status_label":"Not paid"`)
		ts.orders.AssertExpectations(t)
	})

	t.Run("Bad paging falls through to defaults", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.orders.On("ListOrders", mock.Anything, mock.Anything, 0, 0, pricing.RUB).
			Return(&order.OrderListDTO{Orders: []order.OrderSummaryDTO{}, Page: 1, Limit: 20}, nil)

		rec := ts.do(request{method: http.MethodGet, path: "/order/?page=x", token: buyerToken(t, auth.RoleBuyer)})

		assert.Equal(t, http.StatusOK, rec.Code)
		ts.orders.AssertExpectations(t)
	})
}

func TestDeliveryInfo(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.orders.On("DeliveryInfo", mock.Anything, int64(1), pricing.USD).
		Return(&order.DeliveryInfoDTO{Title: "Regular", Price: "2.30 USD", Codename: "regular-delivery"}, nil)
	ts.orders.On("DeliveryInfo", mock.Anything, int64(2), pricing.RUB).
		Return(nil, order.ErrDeliveryCategoryNotFound)

	rec := ts.do(request{method: http.MethodGet, path: "/order/delivery_info/1/?lang=en"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Regular","price":"2.30 USD","codename":"regular-delivery"}`, rec.Body.String())

	rec = ts.do(request{method: http.MethodGet, path: "/order/delivery_info/2/"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, map[string]HealthCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	ts.metrics.CheckoutsSucceeded.Inc()

	rec := ts.do(request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db":"ok"`)

	rec = ts.do(request{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"checkouts_succeeded":1`)
}
