package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// adminProduct принимает ответ создания товара, где идентификатор приходит как productId.
type adminProduct struct {
	domain.Product
	ProductID string `json:"productId"`
}

func (p adminProduct) resolve() domain.Product {
	if p.Product.ID == "" {
		p.Product.ID = p.ProductID
	}
	return p.Product
}

// CreateProduct создаёт товар каталога.
func (c *Client) CreateProduct(ctx context.Context, auth Auth, product domain.Product) (domain.Product, error) {
	var out adminProduct
	err := c.do(ctx, request{
		operation: "create_product",
		method:    http.MethodPost,
		path:      "/admin/products",
		auth:      &auth,
		body:      product,
	}, &out)
	if err != nil {
		return domain.Product{}, err
	}
	return out.resolve(), nil
}

// UpdateProduct заменяет поля товара productID.
func (c *Client) UpdateProduct(ctx context.Context, auth Auth, productID string, product domain.Product) (domain.Product, error) {
	var out adminProduct
	err := c.do(ctx, request{
		operation: "update_product",
		method:    http.MethodPut,
		path:      "/admin/products/" + url.PathEscape(productID),
		auth:      &auth,
		body:      product,
	}, &out)
	if err != nil {
		return domain.Product{}, err
	}
	return out.resolve(), nil
}

// DeleteProduct удаляет товар и возвращает сообщение backend.
func (c *Client) DeleteProduct(ctx context.Context, auth Auth, productID string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		operation: "delete_product",
		method:    http.MethodDelete,
		path:      "/admin/products/" + url.PathEscape(productID),
		auth:      &auth,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// ListAllOrders загружает заказы всех покупателей.
func (c *Client) ListAllOrders(ctx context.Context, auth Auth) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	err := c.do(ctx, request{
		operation: "list_all_orders",
		method:    http.MethodGet,
		path:      "/admin/orders",
		auth:      &auth,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateOrderStatus меняет статус заказа.
func (c *Client) UpdateOrderStatus(ctx context.Context, auth Auth, orderID string, status domain.OrderStatus) (domain.Order, error) {
	var updated domain.Order
	err := c.do(ctx, request{
		operation: "update_order_status",
		method:    http.MethodPatch,
		path:      "/admin/orders/" + url.PathEscape(orderID),
		auth:      &auth,
		body: struct {
			Status domain.OrderStatus `json:"status"`
		}{Status: status},
	}, &updated)
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}
