package state

import (
	"slices"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OrdersState — срез истории заказов.
type OrdersState struct {
	Orders  []domain.Order `json:"orders"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error"`
}

// InitialOrdersState возвращает пустую историю.
func InitialOrdersState() OrdersState {
	return OrdersState{Orders: []domain.Order{}}
}

// ReduceOrders применяет действие к срезу заказов. Успешная загрузка полностью заменяет список.
func ReduceOrders(s OrdersState, action OrdersAction) OrdersState {
	switch a := action.(type) {
	case FetchOrdersStartAction:
		s.Loading = true
	case FetchOrdersSuccessAction:
		s.Orders = slices.Clone(a.Orders)
		if s.Orders == nil {
			s.Orders = []domain.Order{}
		}
		s.Loading = false
	case FetchOrdersFailAction:
		s.Error = a.Error
		s.Loading = false
	}
	return s
}
