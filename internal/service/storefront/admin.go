package storefront

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Операции администратора идут напрямую в backend и не меняют срезы состояния.

// CreateProduct создаёт товар каталога.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	created, err := withSession(s, func(auth client.Auth) (domain.Product, error) {
		return s.api.CreateProduct(ctx, auth, product)
	})
	if err != nil {
		return domain.Product{}, failure("create product", err)
	}
	return created, nil
}

// UpdateProduct обновляет товар каталога.
func (s *Service) UpdateProduct(ctx context.Context, productID string, product domain.Product) (domain.Product, error) {
	updated, err := withSession(s, func(auth client.Auth) (domain.Product, error) {
		return s.api.UpdateProduct(ctx, auth, productID, product)
	})
	if err != nil {
		return domain.Product{}, failure("update product", err)
	}
	return updated, nil
}

// DeleteProduct удаляет товар и возвращает сообщение backend.
func (s *Service) DeleteProduct(ctx context.Context, productID string) (string, error) {
	message, err := withSession(s, func(auth client.Auth) (string, error) {
		return s.api.DeleteProduct(ctx, auth, productID)
	})
	if err != nil {
		return "", failure("delete product", err)
	}
	return message, nil
}

// AllOrders загружает заказы всех покупателей.
func (s *Service) AllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := withSession(s, func(auth client.Auth) ([]domain.Order, error) {
		return s.api.ListAllOrders(ctx, auth)
	})
	if err != nil {
		return nil, failure("list all orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus меняет статус заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	updated, err := withSession(s, func(auth client.Auth) (domain.Order, error) {
		return s.api.UpdateOrderStatus(ctx, auth, orderID, status)
	})
	if err != nil {
		return domain.Order{}, failure("update order status", err)
	}
	return updated, nil
}
