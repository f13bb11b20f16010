package memory

import (
	"slices"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	seq   int
	items map[string]storedOrder
}

type storedOrder struct {
	order domain.Order
	seq   int
}

// NewOrderRepository возвращает in-memory репозиторий заказов для fake backend и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]storedOrder),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrConflict
	}
	r.seq++
	r.items[order.ID] = storedOrder{order: cloneOrder(order), seq: r.seq}
	return nil
}

// Get возвращает заказ или ErrNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return cloneOrder(stored.order), nil
}

// ListByCustomer возвращает заказы клиента, новые первыми.
func (r *orderRepositoryInMemory) ListByCustomer(customerID string) ([]domain.Order, error) {
	return r.list(func(order domain.Order) bool { return order.CustomerID == customerID }), nil
}

// List возвращает все заказы, новые первыми.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	return r.list(func(domain.Order) bool { return true }), nil
}

// UpdateStatus меняет статус заказа и возвращает обновлённую запись.
func (r *orderRepositoryInMemory) UpdateStatus(id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	stored.order.Status = status
	r.items[id] = stored
	return cloneOrder(stored.order), nil
}

func (r *orderRepositoryInMemory) list(match func(domain.Order) bool) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make([]storedOrder, 0, len(r.items))
	for _, stored := range r.items {
		if match(stored.order) {
			selected = append(selected, stored)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].seq > selected[j].seq })

	result := make([]domain.Order, 0, len(selected))
	for _, stored := range selected {
		result = append(result, cloneOrder(stored.order))
	}
	return result
}

func cloneOrder(order domain.Order) domain.Order {
	order.Products = slices.Clone(order.Products)
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
