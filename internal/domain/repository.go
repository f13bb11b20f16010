package domain

// OrderRepository описывает хранилище заказов backend.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrConflict, если заказ с таким ID уже есть.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrNotFound.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента, новые первыми.
	ListByCustomer(customerID string) ([]Order, error)
	// List возвращает все заказы, новые первыми.
	List() ([]Order, error)
	// UpdateStatus меняет статус заказа.
	UpdateStatus(id string, status OrderStatus) (Order, error)
}
