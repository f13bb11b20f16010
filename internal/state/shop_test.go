package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func products(ids ...string) []domain.Product {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Product{ID: id, Title: "Product " + id, Price: domain.NewMoney(9.99), Stock: 1})
	}
	return out
}

func TestReduceShop_InitialState(t *testing.T) {
	state := InitialShopState()
	assert.Empty(t, state.Products)
	assert.Equal(t, 1, state.CurrentPage)
	assert.Equal(t, DefaultLastPage, state.LastPage)
	assert.True(t, state.HasNextPage())
	assert.Equal(t, state, ReduceShop(state, nil))
}

func TestReduceShop_Pagination(t *testing.T) {
	state := InitialShopState()

	state = ReduceShop(state, FetchProductsStartAction{})
	require.True(t, state.Loading)

	state = ReduceShop(state, FetchProductsSuccessAction{Products: products("1", "2"), PageNumber: 1})
	require.Equal(t, products("1", "2"), state.Products)
	require.False(t, state.Loading)

	// Следующая страница заменяет товары, а не дополняет их.
	state = ReduceShop(state, FetchProductsSuccessAction{Products: products("3", "4"), PageNumber: 2})
	assert.Equal(t, products("3", "4"), state.Products)
	assert.Equal(t, 2, state.CurrentPage)
	assert.True(t, state.HasNextPage())

	state = ReduceShop(state, FetchProductsSuccessAction{Products: products("5"), PageNumber: 3})
	assert.Equal(t, 3, state.CurrentPage)
	assert.Equal(t, DefaultLastPage, state.LastPage)
	assert.False(t, state.HasNextPage())
}

func TestReduceShop_PageNumberStoredAsGiven(t *testing.T) {
	got := ReduceShop(InitialShopState(), FetchProductsSuccessAction{PageNumber: 0})
	assert.Equal(t, 0, got.CurrentPage)
	assert.NotNil(t, got.Products)
}

func TestReduceShop_Fail(t *testing.T) {
	state := InitialShopState()
	state.Products = products("1")
	state.Loading = true

	got := ReduceShop(state, FetchProductsFailAction{Error: "Server unavailable"})
	assert.Equal(t, "Server unavailable", got.Error)
	assert.False(t, got.Loading)
	assert.Equal(t, products("1"), got.Products)
	assert.Equal(t, 1, got.CurrentPage)
}
