package storefront

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// FetchCart загружает корзину покупателя.
func (s *Service) FetchCart(ctx context.Context) (domain.Cart, error) {
	s.store.Dispatch(state.FetchCartStartAction{})

	cart, err := withSession(s, func(auth client.Auth) (domain.Cart, error) {
		return s.api.GetCart(ctx, auth)
	})
	if err != nil {
		s.store.Dispatch(state.FetchCartFailAction{Error: client.Describe(err)})
		return domain.Cart{}, failure("fetch cart", err)
	}

	s.store.Dispatch(state.FetchCartSuccessAction{Cart: cart})
	return cart, nil
}

// AddToCart добавляет единицу товара. Сумма корзины в состоянии обновится при следующей загрузке.
func (s *Service) AddToCart(ctx context.Context, productID string) ([]domain.CartLine, error) {
	s.store.Dispatch(state.AddProductToCartStartAction{})

	lines, err := withSession(s, func(auth client.Auth) ([]domain.CartLine, error) {
		return s.api.AddToCart(ctx, auth, productID)
	})
	if err != nil {
		s.store.Dispatch(state.AddProductToCartFailAction{Error: client.Describe(err)})
		return nil, failure("add to cart", err)
	}

	s.store.Dispatch(state.AddProductToCartSuccessAction{Products: lines})
	return lines, nil
}

// RemoveFromCart удаляет позицию. Состояние пересчитывается локально, корзина из ответа не используется.
func (s *Service) RemoveFromCart(ctx context.Context, productID string) error {
	s.store.Dispatch(state.RemoveProductFromCartStartAction{})

	_, err := withSession(s, func(auth client.Auth) (client.RemoveResult, error) {
		return s.api.RemoveFromCart(ctx, auth, productID)
	})
	if err != nil {
		s.store.Dispatch(state.RemoveProductFromCartFailAction{Error: client.Describe(err)})
		return failure("remove from cart", err)
	}

	s.store.Dispatch(state.RemoveProductFromCartSuccessAction{ProductID: productID})
	return nil
}
