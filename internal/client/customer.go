package client

import (
	"context"
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productBody struct {
	ProductID string `json:"productId"`
}

// RemoveResult — ответ на удаление позиции. Cart равен nil, если backend не вернул корзину.
type RemoveResult struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart,omitempty"`
}

// GetCart загружает корзину покупателя.
func (c *Client) GetCart(ctx context.Context, auth Auth) (domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, request{
		operation: "get_cart",
		method:    http.MethodGet,
		path:      "/cart",
		auth:      &auth,
	}, &cart)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// AddToCart добавляет единицу товара и возвращает позиции корзины после добавления.
func (c *Client) AddToCart(ctx context.Context, auth Auth, productID string) ([]domain.CartLine, error) {
	var out struct {
		Cart struct {
			Products []domain.CartLine `json:"products"`
		} `json:"cart"`
	}
	err := c.do(ctx, request{
		operation: "add_to_cart",
		method:    http.MethodPost,
		path:      "/cart",
		auth:      &auth,
		body:      productBody{ProductID: productID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Cart.Products, nil
}

// RemoveFromCart удаляет позицию с товаром productID.
func (c *Client) RemoveFromCart(ctx context.Context, auth Auth, productID string) (RemoveResult, error) {
	var out RemoveResult
	err := c.do(ctx, request{
		operation: "remove_from_cart",
		method:    http.MethodDelete,
		path:      "/cart",
		auth:      &auth,
		body:      productBody{ProductID: productID},
	}, &out)
	if err != nil {
		return RemoveResult{}, err
	}
	return out, nil
}

// ValidateCheckout просит backend проверить остатки перед оплатой.
func (c *Client) ValidateCheckout(ctx context.Context, auth Auth, items []domain.CartLine) error {
	return c.do(ctx, request{
		operation: "validate_checkout",
		method:    http.MethodPost,
		path:      "/checkout/validate",
		auth:      &auth,
		body: struct {
			Items []domain.CartLine `json:"items"`
		}{Items: items},
	}, nil)
}

// ProcessPayment списывает сумму через платёжный шлюз backend.
func (c *Client) ProcessPayment(ctx context.Context, auth Auth, payment domain.PaymentRequest) (domain.PaymentResult, error) {
	if payment.Currency == "" {
		payment.Currency = domain.DefaultCurrency
	}
	var result domain.PaymentResult
	err := c.do(ctx, request{
		operation: "process_payment",
		method:    http.MethodPost,
		path:      "/payment/process",
		auth:      &auth,
		body:      payment,
	}, &result)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	return result, nil
}

// CreateOrder создаёт заказ. Повтор с тем же idempotencyKey возвращает тот же заказ.
func (c *Client) CreateOrder(ctx context.Context, auth Auth, order domain.CreateOrderRequest, idempotencyKey string) (domain.Order, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{headerIdempotencyKey: idempotencyKey}
	}
	var created domain.Order
	err := c.do(ctx, request{
		operation: "create_order",
		method:    http.MethodPost,
		path:      "/create-order",
		auth:      &auth,
		headers:   headers,
		body:      order,
	}, &created)
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// ListOrders загружает историю заказов покупателя.
func (c *Client) ListOrders(ctx context.Context, auth Auth) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	err := c.do(ctx, request{
		operation: "list_orders",
		method:    http.MethodGet,
		path:      "/orders",
		auth:      &auth,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Orders, nil
}
