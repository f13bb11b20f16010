package storefront

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// FetchProducts загружает страницу каталога. Номер страницы меньше 1 считается первой.
func (s *Service) FetchProducts(ctx context.Context, page int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	s.store.Dispatch(state.FetchProductsStartAction{})

	result, err := s.api.ListProducts(ctx, page)
	if err != nil {
		s.store.Dispatch(state.FetchProductsFailAction{Error: client.Describe(err)})
		return nil, failure("fetch products", err)
	}

	s.store.Dispatch(state.FetchProductsSuccessAction{Products: result.Products, PageNumber: page})
	return result.Products, nil
}

// NextPage загружает следующую страницу, если она есть.
func (s *Service) NextPage(ctx context.Context) ([]domain.Product, error) {
	shop := s.store.State().Shop
	if !shop.HasNextPage() {
		return shop.Products, nil
	}
	return s.FetchProducts(ctx, shop.CurrentPage+1)
}

// PrevPage загружает предыдущую страницу, если текущая не первая.
func (s *Service) PrevPage(ctx context.Context) ([]domain.Product, error) {
	shop := s.store.State().Shop
	if shop.CurrentPage <= 1 {
		return shop.Products, nil
	}
	return s.FetchProducts(ctx, shop.CurrentPage-1)
}

// ProductDetails загружает карточку товара. Срез каталога не меняется.
func (s *Service) ProductDetails(ctx context.Context, productID string) (domain.Product, error) {
	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, failure("product details", err)
	}
	return product, nil
}
