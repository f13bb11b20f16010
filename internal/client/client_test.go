package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/fakebackend"
)

const (
	customerEmail = "jane@example.com"
	adminEmail    = "admin@example.com"
	password      = "secret123"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "p1", Title: "Mug", Price: domain.MustParseMoney("10"), Stock: 5},
		{ID: "p2", Title: "Tea", Price: domain.MustParseMoney("5.5"), Stock: 1},
		{ID: "p3", Title: "Pot", Price: domain.MustParseMoney("30"), Stock: 0},
	}
}

func newBackend(t *testing.T, options ...client.Option) (*fakebackend.Server, *client.Client) {
	t.Helper()

	backend := fakebackend.New(
		fakebackend.WithProducts(catalog()...),
		fakebackend.WithUser(customerEmail, password, domain.RoleCustomer),
		fakebackend.WithUser(adminEmail, password, domain.RoleAdmin),
	)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, options...)
	require.NoError(t, err)
	return backend, c
}

func login(t *testing.T, c *client.Client, email string) client.Auth {
	t.Helper()
	session, err := c.Login(context.Background(), domain.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return client.Auth{Token: session.Token, UserID: session.UserID}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := client.New("/api")
	assert.Error(t, err)
}

func TestListProducts_Pages(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	first, err := c.ListProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.Equal(t, "p1", first.Products[0].ID)
	assert.Equal(t, 2, first.LastPage)

	second, err := c.ListProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "p3", second.Products[0].ID)
	assert.False(t, second.Products[0].InStock())
}

func TestGetProduct(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Title)
	assert.Equal(t, "5.5", p.Price.String())

	_, err = c.GetProduct(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestAuthentication(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	t.Run("login", func(t *testing.T) {
		session, err := c.Login(ctx, domain.Credentials{Email: customerEmail, Password: password})
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.NotEmpty(t, session.UserID)
		assert.Equal(t, customerEmail, session.Email)
		assert.False(t, session.IsAdmin())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, domain.Credentials{Email: customerEmail, Password: "nope"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, "Invalid credentials", client.Describe(err))
	})

	t.Run("signup", func(t *testing.T) {
		session, err := c.Signup(ctx, domain.Credentials{
			Email: "new@example.com", Password: "pw", ConfirmPassword: "pw",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("signup password mismatch", func(t *testing.T) {
		_, err := c.Signup(ctx, domain.Credentials{
			Email: "other@example.com", Password: "pw", ConfirmPassword: "different",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("admin login", func(t *testing.T) {
		session, err := c.AdminLogin(ctx, domain.Credentials{Email: adminEmail, Password: password})
		require.NoError(t, err)
		assert.True(t, session.IsAdmin())
	})

	t.Run("admin login as customer", func(t *testing.T) {
		_, err := c.AdminLogin(ctx, domain.Credentials{Email: customerEmail, Password: password})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCart(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()
	auth := login(t, c, customerEmail)

	_, err := c.GetCart(ctx, client.Auth{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	lines, err := c.AddToCart(ctx, auth, "p1")
	require.NoError(t, err)
	lines, err = c.AddToCart(ctx, auth, "p1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	_, expanded := lines[0].ProductID.Product()
	assert.False(t, expanded)

	_, err = c.AddToCart(ctx, auth, "p3")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, "Product is out of stock", client.Describe(err))

	_, err = c.AddToCart(ctx, auth, "p2")
	require.NoError(t, err)

	cart, err := c.GetCart(ctx, auth)
	require.NoError(t, err)
	require.Len(t, cart.Products, 2)
	assert.Equal(t, "25.5", cart.TotalPrice.String())
	product, expanded := cart.Products[0].ProductID.Product()
	require.True(t, expanded)
	assert.Equal(t, "Mug", product.Title)

	removed, err := c.RemoveFromCart(ctx, auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Product removed from cart", removed.Message)
	require.NotNil(t, removed.Cart)
	require.Len(t, removed.Cart.Products, 1)
	assert.Equal(t, "5.5", removed.Cart.TotalPrice.String())

	_, err = c.RemoveFromCart(ctx, auth, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckoutEndpoints(t *testing.T) {
	backend, c := newBackend(t)
	ctx := context.Background()
	auth := login(t, c, customerEmail)

	lines, err := c.AddToCart(ctx, auth, "p1")
	require.NoError(t, err)

	require.NoError(t, c.ValidateCheckout(ctx, auth, lines))
	err = c.ValidateCheckout(ctx, auth, nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = c.ProcessPayment(ctx, auth, domain.PaymentRequest{
		Amount: domain.MustParseMoney("10"), Token: fakebackend.DeclinedPaymentToken,
	})
	assert.ErrorIs(t, err, domain.ErrPaymentRequired)

	payment, err := c.ProcessPayment(ctx, auth, domain.PaymentRequest{
		Amount: domain.MustParseMoney("10"), Token: "tok_visa",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.NotEmpty(t, payment.TransactionID)

	req := domain.CreateOrderRequest{
		CustomerID:    auth.UserID,
		Products:      lines,
		TotalAmount:   domain.MustParseMoney("10"),
		TransactionID: payment.TransactionID,
	}
	order, err := c.CreateOrder(ctx, auth, req, "key-1")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "10", order.TotalPrice.String())

	t.Run("replay with the same key returns the same order", func(t *testing.T) {
		again, err := c.CreateOrder(ctx, auth, req, "key-1")
		require.NoError(t, err)
		assert.Equal(t, order.ID, again.ID)
		assert.Len(t, backend.Orders(), 1)
	})

	t.Run("same key with a different body conflicts", func(t *testing.T) {
		changed := req
		changed.TotalAmount = domain.MustParseMoney("11")
		_, err := c.CreateOrder(ctx, auth, changed, "key-1")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	orders, err := c.ListOrders(ctx, auth)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	p, ok := backend.Product("p1")
	require.True(t, ok)
	assert.Equal(t, 4, p.Stock)
	assert.Empty(t, backend.CartOf(auth.UserID))
}

func TestAdminOperations(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	session, err := c.AdminLogin(ctx, domain.Credentials{Email: adminEmail, Password: password})
	require.NoError(t, err)
	admin := client.Auth{Token: session.Token, UserID: session.UserID}

	_, err = c.CreateProduct(ctx, login(t, c, customerEmail), domain.Product{Title: "Cup"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = c.CreateProduct(ctx, admin, domain.Product{Title: "", Price: domain.MustParseMoney("-1")})
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Len(t, apiErr.Errors, 2)

	created, err := c.CreateProduct(ctx, admin, domain.Product{Title: "Cup", Price: domain.MustParseMoney("3"), Stock: 2})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Cup", created.Title)

	updated, err := c.UpdateProduct(ctx, admin, created.ID, domain.Product{Title: "Big Cup", Price: domain.MustParseMoney("4"), Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Big Cup", updated.Title)

	msg, err := c.DeleteProduct(ctx, admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Product deleted", msg)

	_, err = c.DeleteProduct(ctx, admin, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdminOrders(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()
	auth := login(t, c, customerEmail)

	lines, err := c.AddToCart(ctx, auth, "p2")
	require.NoError(t, err)
	payment, err := c.ProcessPayment(ctx, auth, domain.PaymentRequest{Amount: domain.MustParseMoney("5.5"), Token: "tok_visa"})
	require.NoError(t, err)
	order, err := c.CreateOrder(ctx, auth, domain.CreateOrderRequest{
		Products: lines, TotalAmount: domain.MustParseMoney("5.5"), TransactionID: payment.TransactionID,
	}, "")
	require.NoError(t, err)

	session, err := c.AdminLogin(ctx, domain.Credentials{Email: adminEmail, Password: password})
	require.NoError(t, err)
	admin := client.Auth{Token: session.Token, UserID: session.UserID}

	all, err := c.ListAllOrders(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, order.ID, all[0].ID)
	assert.Equal(t, "5.5", all[0].TotalPrice.String())

	updated, err := c.UpdateOrderStatus(ctx, admin, order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.ID, updated.ID)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	_, err = c.UpdateOrderStatus(ctx, admin, order.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = c.UpdateOrderStatus(ctx, admin, "missing", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInjectedFailure(t *testing.T) {
	backend, c := newBackend(t)
	backend.FailNext(fakebackend.RouteListProducts, http.StatusInternalServerError, "Server Error")

	_, err := c.ListProducts(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, "Server Error", client.Describe(err))

	_, err = c.ListProducts(context.Background(), 1)
	assert.NoError(t, err, "failure is injected only once")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := client.New(url)
	require.NoError(t, err)

	_, err = c.ListProducts(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)

	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
}

type recordedRequest struct {
	operation string
	err       error
}

type metricsRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *metricsRecorder) ObserveAPIRequest(operation string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{operation: operation, err: err})
}

func TestMetricsAndTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	metrics := &metricsRecorder{}

	_, c := newBackend(t, client.WithTracerProvider(provider), client.WithMetrics(metrics))
	ctx := context.Background()

	_, err := c.ListProducts(ctx, 1)
	require.NoError(t, err)
	_, err = c.Login(ctx, domain.Credentials{Email: customerEmail, Password: "wrong"})
	require.Error(t, err)

	require.Len(t, metrics.requests, 2)
	assert.Equal(t, "list_products", metrics.requests[0].operation)
	assert.NoError(t, metrics.requests[0].err)
	assert.Equal(t, "login", metrics.requests[1].operation)
	assert.ErrorIs(t, metrics.requests[1].err, domain.ErrUnauthorized)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "storefront.client/list_products", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusOK))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "storefront.client/login", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.Int("http.status_code", http.StatusUnauthorized))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "Invalid credentials", spans[1].Status().Description)
}
