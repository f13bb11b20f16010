package fakebackend

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

// Имена маршрутов, которые принимает FailNext.
const (
	RouteListProducts     = "GET /products"
	RouteGetProduct       = "GET /products/{id}"
	RouteLogin            = "POST /auth/login"
	RouteSignup           = "POST /auth/signup"
	RouteAdminLogin       = "POST /auth/admin-login"
	RouteGetCart          = "GET /cart"
	RouteAddToCart        = "POST /cart"
	RouteRemoveFromCart   = "DELETE /cart"
	RouteValidateCheckout = "POST /checkout/validate"
	RouteProcessPayment   = "POST /payment/process"
	RouteCreateOrder      = "POST /create-order"
	RouteListOrders       = "GET /orders"
	RouteCreateProduct    = "POST /admin/products"
	RouteUpdateProduct    = "PUT /admin/products/{id}"
	RouteDeleteProduct    = "DELETE /admin/products/{id}"
	RouteListAllOrders    = "GET /admin/orders"
	RouteUpdateOrder      = "PATCH /admin/orders/{id}"
)

const (
	defaultPageSize = 2
	defaultTokenTTL = time.Hour
	defaultSecret   = "storefront-fake-secret"

	// DeclinedPaymentToken — платёжный токен, который шлюз всегда отклоняет (402).
	DeclinedPaymentToken = "tok_declined"
)

type user struct {
	ID       string
	Email    string
	Password string
	Role     domain.Role
}

type failure struct {
	status  int
	message string
}

// Option настраивает Server.
type Option func(*Server)

// WithProducts наполняет каталог в заданном порядке.
func WithProducts(products ...domain.Product) Option {
	return func(s *Server) {
		for _, p := range products {
			s.putProduct(p)
		}
	}
}

// WithUser регистрирует пользователя с заданной ролью.
func WithUser(email, password string, role domain.Role) Option {
	return func(s *Server) {
		s.addUser(email, password, role)
	}
}

// WithPageSize задаёт размер страницы каталога.
func WithPageSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithTokenTTL задаёт срок жизни выдаваемых токенов.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithClock подменяет источник времени (для токенов и дат заказов).
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger задаёт logger запросов.
func WithLogger(logger *log.Entry) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server — in-memory реализация storefront backend для тестов.
type Server struct {
	router *mux.Router
	logger *log.Entry
	now    func() time.Time

	pageSize int
	tokenTTL time.Duration
	secret   []byte

	mu          sync.Mutex
	catalog     []string
	products    map[string]domain.Product
	users       map[string]*user
	carts       map[string][]domain.CartLine
	payments    map[string]domain.PaymentResult
	failures    map[string]failure
	orders      domain.OrderRepository
	idempotency domain.IdempotencyRepository
}

// New создаёт fake backend.
func New(options ...Option) *Server {
	s := &Server{
		logger:      log.WithField("component", "fakebackend"),
		now:         func() time.Time { return time.Now().UTC() },
		pageSize:    defaultPageSize,
		tokenTTL:    defaultTokenTTL,
		secret:      []byte(defaultSecret),
		products:    make(map[string]domain.Product),
		users:       make(map[string]*user),
		carts:       make(map[string][]domain.CartLine),
		payments:    make(map[string]domain.PaymentResult),
		failures:    make(map[string]failure),
		orders:      memory.NewOrderRepository(),
		idempotency: memory.NewIdempotencyRepository(),
	}
	for _, option := range options {
		option(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP делает Server обработчиком для httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext заставляет следующий запрос к маршруту route вернуть status с сообщением message.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, s.injectFailures)

	handle := func(name, method, path string, h http.HandlerFunc) {
		r.HandleFunc(path, h).Methods(method).Name(name)
	}

	handle(RouteListProducts, http.MethodGet, "/products", s.listProducts)
	handle(RouteGetProduct, http.MethodGet, "/products/{id}", s.getProduct)
	handle(RouteLogin, http.MethodPost, "/auth/login", s.login)
	handle(RouteSignup, http.MethodPost, "/auth/signup", s.signup)
	handle(RouteAdminLogin, http.MethodPost, "/auth/admin-login", s.adminLogin)

	handle(RouteGetCart, http.MethodGet, "/cart", s.customer(s.getCart))
	handle(RouteAddToCart, http.MethodPost, "/cart", s.customer(s.addToCart))
	handle(RouteRemoveFromCart, http.MethodDelete, "/cart", s.customer(s.removeFromCart))
	handle(RouteValidateCheckout, http.MethodPost, "/checkout/validate", s.customer(s.validateCheckout))
	handle(RouteProcessPayment, http.MethodPost, "/payment/process", s.customer(s.processPayment))
	handle(RouteCreateOrder, http.MethodPost, "/create-order", s.customer(s.createOrder))
	handle(RouteListOrders, http.MethodGet, "/orders", s.customer(s.listOrders))

	handle(RouteCreateProduct, http.MethodPost, "/admin/products", s.admin(s.createProduct))
	handle(RouteUpdateProduct, http.MethodPut, "/admin/products/{id}", s.admin(s.updateProduct))
	handle(RouteDeleteProduct, http.MethodDelete, "/admin/products/{id}", s.admin(s.deleteProduct))
	handle(RouteListAllOrders, http.MethodGet, "/admin/orders", s.admin(s.listAllOrders))
	handle(RouteUpdateOrder, http.MethodPatch, "/admin/orders/{id}", s.admin(s.updateOrderStatus))

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": s.now().Sub(started),
		}).Debug("request served")
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route != nil {
			s.mu.Lock()
			f, ok := s.failures[route.GetName()]
			if ok {
				delete(s.failures, route.GetName())
			}
			s.mu.Unlock()
			if ok {
				writeError(w, f.status, f.message)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, details ...error) {
	body := map[string]any{"message": message}
	if len(details) > 0 {
		errs := make([]map[string]string, 0, len(details))
		for _, d := range details {
			errs = append(errs, map[string]string{"msg": d.Error()})
		}
		body["errors"] = errs
	}
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
