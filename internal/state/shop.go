package state

import (
	"slices"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// DefaultLastPage — число страниц каталога, пока его не задала конфигурация.
	DefaultLastPage = 3
	firstPage       = 1
)

// ShopState — срез каталога: только товары текущей страницы.
type ShopState struct {
	Products    []domain.Product `json:"products"`
	CurrentPage int              `json:"currentPage"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error"`
	LastPage    int              `json:"lastPage"`
}

// InitialShopState возвращает каталог на первой странице.
func InitialShopState() ShopState {
	return ShopState{
		Products:    []domain.Product{},
		CurrentPage: firstPage,
		LastPage:    DefaultLastPage,
	}
}

// HasNextPage сообщает, есть ли страница после текущей.
func (s ShopState) HasNextPage() bool {
	return s.CurrentPage < s.LastPage
}

// ReduceShop применяет действие к срезу каталога. LastPage действиями не меняется.
func ReduceShop(s ShopState, action ShopAction) ShopState {
	switch a := action.(type) {
	case FetchProductsStartAction:
		s.Loading = true
	case FetchProductsSuccessAction:
		s.Products = slices.Clone(a.Products)
		if s.Products == nil {
			s.Products = []domain.Product{}
		}
		s.CurrentPage = a.PageNumber
		s.Loading = false
	case FetchProductsFailAction:
		s.Error = a.Error
		s.Loading = false
	}
	return s
}
