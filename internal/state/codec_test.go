package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestEncodeAction_FlatShape(t *testing.T) {
	cases := []struct {
		action Action
		want   string
	}{
		{AuthStartAction{}, `{"type":"AUTH_START"}`},
		{AuthFailAction{Error: "bad"}, `{"type":"AUTH_FAIL","error":"bad"}`},
		{RemoveProductFromCartSuccessAction{ProductID: "p1"}, `{"type":"REMOVE_PRODUCT_FROM_CART_SUCCESS","productId":"p1"}`},
		{FetchProductsSuccessAction{PageNumber: 2}, `{"type":"FETCH_PRODUCTS_SUCCESS","products":null,"pageNumber":2}`},
		{UnknownAction{Tag: "X"}, `{"type":"X"}`},
	}

	for _, tc := range cases {
		t.Run(string(tc.action.Type()), func(t *testing.T) {
			data, err := EncodeAction(tc.action)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestEncodeAction_Nil(t *testing.T) {
	_, err := EncodeAction(nil)
	assert.Error(t, err)
}

func TestDecodeAction(t *testing.T) {
	t.Run("cart with mixed product references", func(t *testing.T) {
		raw := `{"type":"FETCH_CART_SUCCESS","cart":{"products":[
			{"productId":{"_id":"p1","title":"Mug","price":10,"stock":3},"price":10,"quantity":2},
			{"productId":"p2","price":5.5,"quantity":1}
		],"totalPrice":25.5}}`

		action, err := DecodeAction([]byte(raw))
		require.NoError(t, err)

		fetched, ok := action.(FetchCartSuccessAction)
		require.True(t, ok)
		require.Len(t, fetched.Cart.Products, 2)
		assert.Equal(t, "p1", fetched.Cart.Products[0].ProductID.ID())
		assert.Equal(t, "p2", fetched.Cart.Products[1].ProductID.ID())
		assert.Equal(t, "25.5", fetched.Cart.TotalPrice.String())

		product, ok := fetched.Cart.Products[0].ProductID.Product()
		require.True(t, ok)
		assert.Equal(t, "Mug", product.Title)
	})

	t.Run("auth success", func(t *testing.T) {
		action, err := DecodeAction([]byte(`{"type":"AUTH_SUCCESS","token":"t","userId":"u","email":"e"}`))
		require.NoError(t, err)
		assert.Equal(t, AuthSuccessAction{Token: "t", UserID: "u", Email: "e"}, action)
	})

	t.Run("unknown tag", func(t *testing.T) {
		action, err := DecodeAction([]byte(`{"type":"@@INIT"}`))
		require.NoError(t, err)
		assert.Equal(t, UnknownAction{Tag: "@@INIT"}, action)
	})

	t.Run("empty object", func(t *testing.T) {
		action, err := DecodeAction([]byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, UnknownAction{}, action)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeAction([]byte(`{"type":`))
		assert.Error(t, err)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeAction([]byte(`{"type":"FETCH_PRODUCTS_SUCCESS","pageNumber":"two"}`))
		assert.Error(t, err)
	})
}

func TestCodec_RoundTripThroughReducer(t *testing.T) {
	lines := []domain.CartLine{{ProductID: domain.RefByID("p1"), Price: domain.MustParseMoney("19.99"), Quantity: 3}}
	original := FetchCartSuccessAction{Cart: domain.Cart{Products: lines, TotalPrice: domain.MustParseMoney("59.97")}}

	data, err := EncodeAction(original)
	require.NoError(t, err)

	decoded, err := DecodeAction(data)
	require.NoError(t, err)

	direct := Reduce(InitialRootState(), original)
	replayed := Reduce(InitialRootState(), decoded)
	assert.Equal(t, direct.Cart.TotalPrice.String(), replayed.Cart.TotalPrice.String())
	assert.Equal(t, "p1", replayed.Cart.Products[0].ProductID.ID())
}

func TestCodec_CartActionsEncodeBackUnchanged(t *testing.T) {
	for name, record := range map[string]string{
		"expanded product object": `{"type":"FETCH_CART_SUCCESS","cart":{"products":[` +
			`{"productId":{"_id":"1","color":"red"},"title":"Mug","price":10,"quantity":2}],"totalPrice":20}}`,
		"null product id": `{"type":"FETCH_CART_SUCCESS","cart":{"products":[` +
			`{"productId":null,"price":5,"quantity":1},{"productId":"2","price":20,"quantity":1}],"totalPrice":25}}`,
		"added lines": `{"type":"ADD_PRODUCT_TO_CART_SUCCESS","products":[` +
			`{"productId":{"_id":"p3","title":"Lamp","price":30,"stock":1,"rating":4.5},"price":30,"quantity":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeAction([]byte(record))
			require.NoError(t, err)

			encoded, err := EncodeAction(decoded)
			require.NoError(t, err)
			assert.Equal(t, record, string(encoded))
		})
	}
}
