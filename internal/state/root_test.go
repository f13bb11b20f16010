package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestReduce_RoutesToOwnSlice(t *testing.T) {
	initial := InitialRootState()

	cases := []struct {
		action Action
		check  func(t *testing.T, got RootState)
	}{
		{
			action: AuthStartAction{},
			check: func(t *testing.T, got RootState) {
				assert.True(t, got.Auth.Loading)
				assert.Equal(t, initial.Cart, got.Cart)
				assert.Equal(t, initial.Orders, got.Orders)
				assert.Equal(t, initial.Shop, got.Shop)
			},
		},
		{
			action: FetchCartStartAction{},
			check: func(t *testing.T, got RootState) {
				assert.True(t, got.Cart.Loading)
				assert.Equal(t, initial.Auth, got.Auth)
				assert.Equal(t, initial.Orders, got.Orders)
				assert.Equal(t, initial.Shop, got.Shop)
			},
		},
		{
			action: FetchOrdersStartAction{},
			check: func(t *testing.T, got RootState) {
				assert.True(t, got.Orders.Loading)
				assert.Equal(t, initial.Auth, got.Auth)
				assert.Equal(t, initial.Cart, got.Cart)
				assert.Equal(t, initial.Shop, got.Shop)
			},
		},
		{
			action: FetchProductsStartAction{},
			check: func(t *testing.T, got RootState) {
				assert.True(t, got.Shop.Loading)
				assert.Equal(t, initial.Auth, got.Auth)
				assert.Equal(t, initial.Cart, got.Cart)
				assert.Equal(t, initial.Orders, got.Orders)
			},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.action.Type()), func(t *testing.T) {
			tc.check(t, Reduce(initial, tc.action))
		})
	}
}

func TestReduce_UnknownActionIsIdentity(t *testing.T) {
	state := InitialRootState()
	state = Reduce(state, AuthSuccessAction{Token: "t", UserID: "u", Email: "e"})

	assert.Equal(t, state, Reduce(state, UnknownAction{Tag: "SOMETHING_ELSE"}))
	assert.Equal(t, state, Reduce(state, UnknownAction{}))
	assert.Equal(t, state, Reduce(state, nil))
}

func TestReduce_EveryActionTypeHasOneDomain(t *testing.T) {
	seen := make(map[ActionType]bool)
	for _, tag := range AllActionTypes() {
		require.False(t, seen[tag], "duplicate action type %s", tag)
		seen[tag] = true

		action, err := DecodeAction([]byte(`{"type":"` + string(tag) + `"}`))
		require.NoError(t, err)
		require.Equal(t, tag, action.Type())

		_, isUnknown := action.(UnknownAction)
		require.False(t, isUnknown, "%s decoded as unknown", tag)

		_, ok := InitialRootState().Slice(action.Domain())
		require.True(t, ok, "%s has no slice", tag)
	}
	assert.Len(t, seen, 19)
}

func TestReduce_FailActionsExposeError(t *testing.T) {
	for _, tag := range AllActionTypes() {
		action, err := DecodeAction([]byte(`{"type":"` + string(tag) + `","error":"boom"}`))
		require.NoError(t, err)

		if fail, ok := action.(FailAction); ok {
			assert.Equal(t, "boom", fail.Failure(), tag)
		}
	}
}

func TestReduce_CheckoutFlow(t *testing.T) {
	state := InitialRootState()

	state = Reduce(state, AuthStartAction{})
	state = Reduce(state, AuthSuccessAction{Token: "token", UserID: "user-1", Email: "buyer@example.com"})
	require.True(t, state.Auth.Authenticated())

	state = Reduce(state, FetchProductsStartAction{})
	state = Reduce(state, FetchProductsSuccessAction{Products: products("p1", "p2"), PageNumber: 1})
	require.Len(t, state.Shop.Products, 2)

	cartLines := []domain.CartLine{
		{ProductID: domain.RefByID("p1"), Price: domain.NewMoney(9.99), Quantity: 2},
		{ProductID: domain.RefByID("p2"), Price: domain.NewMoney(9.99), Quantity: 1},
	}
	state = Reduce(state, FetchCartSuccessAction{Cart: domain.Cart{Products: cartLines, TotalPrice: domain.NewMoney(29.97)}})
	require.Equal(t, "29.97", state.Cart.TotalPrice.String())

	state = Reduce(state, RemoveProductFromCartSuccessAction{ProductID: "p2"})
	require.Equal(t, "19.98", state.Cart.TotalPrice.String())

	state = Reduce(state, FetchOrdersSuccessAction{Orders: []domain.Order{{ID: "o1", Status: domain.OrderStatusPending}}})
	require.Len(t, state.Orders.Orders, 1)

	state = Reduce(state, AuthLogoutAction{})
	assert.False(t, state.Auth.Authenticated())
	assert.Len(t, state.Orders.Orders, 1, "logout does not clear other slices")
	assert.Len(t, state.Cart.Products, 1)
}

func TestRootState_Slice(t *testing.T) {
	root := InitialRootState()

	got, ok := root.Slice(DomainShop)
	require.True(t, ok)
	assert.Equal(t, root.Shop, got)

	_, ok = root.Slice("unknown")
	assert.False(t, ok)
}
