package domain

import "encoding/json"

// OrderStatus описывает статус заказа, который выставляет backend.
type OrderStatus string

const (
	// OrderStatusPending: заказ создан и ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusShipped: заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered: заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCanceled: заказ отменён.
	OrderStatusCanceled OrderStatus = "canceled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// OrderLine: позиция заказа.
type OrderLine struct {
	ProductID string `json:"productId,omitempty"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Price     Money  `json:"price"`
}

// Order: запись истории заказов. Слой состояния не проверяет её содержимое.
type Order struct {
	ID            string      `json:"orderId"`
	CustomerID    string      `json:"customerId,omitempty"`
	Products      []OrderLine `json:"products,omitempty"`
	TotalPrice    Money       `json:"totalPrice"`
	Date          string      `json:"date,omitempty"`
	Status        OrderStatus `json:"status,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
}

// UnmarshalJSON принимает обе формы ответа backend: id/orderId и totalPrice/total/totalAmount.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var wire struct {
		plain
		LegacyID    string      `json:"id"`
		Items       []OrderLine `json:"items"`
		Total       *Money      `json:"total"`
		TotalAmount *Money      `json:"totalAmount"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*o = Order(wire.plain)
	if o.ID == "" {
		o.ID = wire.LegacyID
	}
	if len(o.Products) == 0 && len(wire.Items) > 0 {
		o.Products = wire.Items
	}
	if o.TotalPrice.IsZero() {
		switch {
		case wire.Total != nil:
			o.TotalPrice = *wire.Total
		case wire.TotalAmount != nil:
			o.TotalPrice = *wire.TotalAmount
		}
	}
	return nil
}

// CreateOrderRequest: тело запроса на создание заказа после успешной оплаты.
type CreateOrderRequest struct {
	CustomerID    string      `json:"customerId,omitempty"`
	Products      []CartLine  `json:"products"`
	TotalAmount   Money       `json:"totalAmount"`
	TransactionID string      `json:"transactionId"`
	Status        OrderStatus `json:"status,omitempty"`
}
