package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// Store — контейнер состояния, в который сервис отправляет действия.
type Store interface {
	Dispatch(action state.Action) state.RootState
	State() state.RootState
}

// API — операции storefront backend, которыми пользуется сервис.
type API interface {
	ListProducts(ctx context.Context, page int) (client.ProductPage, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	Signup(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	AdminLogin(ctx context.Context, creds domain.Credentials) (domain.Session, error)

	GetCart(ctx context.Context, auth client.Auth) (domain.Cart, error)
	AddToCart(ctx context.Context, auth client.Auth, productID string) ([]domain.CartLine, error)
	RemoveFromCart(ctx context.Context, auth client.Auth, productID string) (client.RemoveResult, error)
	ValidateCheckout(ctx context.Context, auth client.Auth, items []domain.CartLine) error
	ProcessPayment(ctx context.Context, auth client.Auth, payment domain.PaymentRequest) (domain.PaymentResult, error)
	CreateOrder(ctx context.Context, auth client.Auth, order domain.CreateOrderRequest, idempotencyKey string) (domain.Order, error)
	ListOrders(ctx context.Context, auth client.Auth) ([]domain.Order, error)

	CreateProduct(ctx context.Context, auth client.Auth, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, auth client.Auth, productID string, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, auth client.Auth, productID string) (string, error)
	ListAllOrders(ctx context.Context, auth client.Auth) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, auth client.Auth, orderID string, status domain.OrderStatus) (domain.Order, error)
}

// CheckoutMetrics получает результаты оформления заказа.
type CheckoutMetrics interface {
	RecordCheckout(err error)
	RecordCheckoutStep(step string, duration time.Duration)
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics задаёт получателя метрик оформления заказа.
func WithMetrics(metrics CheckoutMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithIdempotencyKeys подменяет генератор Idempotency-Key для создания заказа.
func WithIdempotencyKeys(next func() string) Option {
	return func(s *Service) {
		s.newKey = next
	}
}

// Service — асинхронный слой storefront: отправляет START, вызывает backend и
// завершает операцию действием SUCCESS или FAIL. Ошибки backend возвращаются вызывающему
// и одновременно попадают в срез состояния как данные.
type Service struct {
	store   Store
	api     API
	logger  *log.Entry
	metrics CheckoutMetrics
	newKey  func() string
}

// New создаёт сервис поверх store и клиента backend.
func New(store Store, api API, options ...Option) *Service {
	s := &Service{
		store:  store,
		api:    api,
		logger: log.WithField("component", "storefront"),
		newKey: uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// session возвращает заголовки авторизации из текущего среза сессии.
func (s *Service) session() (client.Auth, error) {
	auth := s.store.State().Auth
	if !auth.Authenticated() {
		return client.Auth{}, domain.ErrNotAuthenticated
	}
	return client.Auth{Token: auth.Token, UserID: auth.UserID}, nil
}

func failure(operation string, err error) error {
	return fmt.Errorf("%s: %w", operation, err)
}

// withSession выполняет call с заголовками текущей сессии или возвращает ErrNotAuthenticated.
func withSession[T any](s *Service, call func(auth client.Auth) (T, error)) (T, error) {
	auth, err := s.session()
	if err != nil {
		var zero T
		return zero, err
	}
	return call(auth)
}
