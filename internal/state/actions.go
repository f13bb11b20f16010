package state

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// ActionType — тег действия, под которым оно передаётся между асинхронным слоем и редьюсерами.
type ActionType string

const (
	AuthStart   ActionType = "AUTH_START"
	AuthSuccess ActionType = "AUTH_SUCCESS"
	AuthFail    ActionType = "AUTH_FAIL"
	AuthLogout  ActionType = "AUTH_LOGOUT"

	FetchCartStart               ActionType = "FETCH_CART_START"
	FetchCartSuccess             ActionType = "FETCH_CART_SUCCESS"
	FetchCartFail                ActionType = "FETCH_CART_FAIL"
	AddProductToCartStart        ActionType = "ADD_PRODUCT_TO_CART_START"
	AddProductToCartSuccess      ActionType = "ADD_PRODUCT_TO_CART_SUCCESS"
	AddProductToCartFail         ActionType = "ADD_PRODUCT_TO_CART_FAIL"
	RemoveProductFromCartStart   ActionType = "REMOVE_PRODUCT_FROM_CART_START"
	RemoveProductFromCartSuccess ActionType = "REMOVE_PRODUCT_FROM_CART_SUCCESS"
	RemoveProductFromCartFail    ActionType = "REMOVE_PRODUCT_FROM_CART_FAIL"

	FetchOrdersStart   ActionType = "FETCH_ORDERS_START"
	FetchOrdersSuccess ActionType = "FETCH_ORDERS_SUCCESS"
	FetchOrdersFail    ActionType = "FETCH_ORDERS_FAIL"

	FetchProductsStart   ActionType = "FETCH_PRODUCTS_START"
	FetchProductsSuccess ActionType = "FETCH_PRODUCTS_SUCCESS"
	FetchProductsFail    ActionType = "FETCH_PRODUCTS_FAIL"
)

// Domain — срез состояния, которому принадлежит действие.
type Domain string

const (
	DomainAuth   Domain = "auth"
	DomainCart   Domain = "cart"
	DomainOrders Domain = "orders"
	DomainShop   Domain = "shop"
)

// Action — базовый интерфейс всех переходов состояния.
type Action interface {
	Type() ActionType
	Domain() Domain
}

// FailAction реализуют все *_FAIL действия.
type FailAction interface {
	Action
	Failure() string
}

// Закрытые множества действий по доменам: реализовать их можно только внутри пакета.
type (
	AuthAction interface {
		Action
		authAction()
	}
	CartAction interface {
		Action
		cartAction()
	}
	OrdersAction interface {
		Action
		ordersAction()
	}
	ShopAction interface {
		Action
		shopAction()
	}
)

// ===== AUTH =====

type AuthStartAction struct{}

type AuthSuccessAction struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type AuthFailAction struct {
	Error string `json:"error"`
}

type AuthLogoutAction struct{}

func (AuthStartAction) Type() ActionType   { return AuthStart }
func (AuthSuccessAction) Type() ActionType { return AuthSuccess }
func (AuthFailAction) Type() ActionType    { return AuthFail }
func (AuthLogoutAction) Type() ActionType  { return AuthLogout }

func (AuthStartAction) Domain() Domain   { return DomainAuth }
func (AuthSuccessAction) Domain() Domain { return DomainAuth }
func (AuthFailAction) Domain() Domain    { return DomainAuth }
func (AuthLogoutAction) Domain() Domain  { return DomainAuth }

func (AuthStartAction) authAction()   {}
func (AuthSuccessAction) authAction() {}
func (AuthFailAction) authAction()    {}
func (AuthLogoutAction) authAction()  {}

func (a AuthFailAction) Failure() string { return a.Error }

// ===== CART =====

type FetchCartStartAction struct{}

type FetchCartSuccessAction struct {
	Cart domain.Cart `json:"cart"`
}

type FetchCartFailAction struct {
	Error string `json:"error"`
}

type AddProductToCartStartAction struct{}

type AddProductToCartSuccessAction struct {
	Products []domain.CartLine `json:"products"`
}

type AddProductToCartFailAction struct {
	Error string `json:"error"`
}

type RemoveProductFromCartStartAction struct{}

type RemoveProductFromCartSuccessAction struct {
	ProductID string `json:"productId"`
}

type RemoveProductFromCartFailAction struct {
	Error string `json:"error"`
}

func (FetchCartStartAction) Type() ActionType               { return FetchCartStart }
func (FetchCartSuccessAction) Type() ActionType             { return FetchCartSuccess }
func (FetchCartFailAction) Type() ActionType                { return FetchCartFail }
func (AddProductToCartStartAction) Type() ActionType        { return AddProductToCartStart }
func (AddProductToCartSuccessAction) Type() ActionType      { return AddProductToCartSuccess }
func (AddProductToCartFailAction) Type() ActionType         { return AddProductToCartFail }
func (RemoveProductFromCartStartAction) Type() ActionType   { return RemoveProductFromCartStart }
func (RemoveProductFromCartSuccessAction) Type() ActionType { return RemoveProductFromCartSuccess }
func (RemoveProductFromCartFailAction) Type() ActionType    { return RemoveProductFromCartFail }

func (FetchCartStartAction) Domain() Domain               { return DomainCart }
func (FetchCartSuccessAction) Domain() Domain             { return DomainCart }
func (FetchCartFailAction) Domain() Domain                { return DomainCart }
func (AddProductToCartStartAction) Domain() Domain        { return DomainCart }
func (AddProductToCartSuccessAction) Domain() Domain      { return DomainCart }
func (AddProductToCartFailAction) Domain() Domain         { return DomainCart }
func (RemoveProductFromCartStartAction) Domain() Domain   { return DomainCart }
func (RemoveProductFromCartSuccessAction) Domain() Domain { return DomainCart }
func (RemoveProductFromCartFailAction) Domain() Domain    { return DomainCart }

func (FetchCartStartAction) cartAction()               {}
func (FetchCartSuccessAction) cartAction()             {}
func (FetchCartFailAction) cartAction()                {}
func (AddProductToCartStartAction) cartAction()        {}
func (AddProductToCartSuccessAction) cartAction()      {}
func (AddProductToCartFailAction) cartAction()         {}
func (RemoveProductFromCartStartAction) cartAction()   {}
func (RemoveProductFromCartSuccessAction) cartAction() {}
func (RemoveProductFromCartFailAction) cartAction()    {}

func (a FetchCartFailAction) Failure() string             { return a.Error }
func (a AddProductToCartFailAction) Failure() string      { return a.Error }
func (a RemoveProductFromCartFailAction) Failure() string { return a.Error }

// ===== ORDERS =====

type FetchOrdersStartAction struct{}

type FetchOrdersSuccessAction struct {
	Orders []domain.Order `json:"orders"`
}

type FetchOrdersFailAction struct {
	Error string `json:"error"`
}

func (FetchOrdersStartAction) Type() ActionType   { return FetchOrdersStart }
func (FetchOrdersSuccessAction) Type() ActionType { return FetchOrdersSuccess }
func (FetchOrdersFailAction) Type() ActionType    { return FetchOrdersFail }

func (FetchOrdersStartAction) Domain() Domain   { return DomainOrders }
func (FetchOrdersSuccessAction) Domain() Domain { return DomainOrders }
func (FetchOrdersFailAction) Domain() Domain    { return DomainOrders }

func (FetchOrdersStartAction) ordersAction()   {}
func (FetchOrdersSuccessAction) ordersAction() {}
func (FetchOrdersFailAction) ordersAction()    {}

func (a FetchOrdersFailAction) Failure() string { return a.Error }

// ===== SHOP =====

type FetchProductsStartAction struct{}

type FetchProductsSuccessAction struct {
	Products   []domain.Product `json:"products"`
	PageNumber int              `json:"pageNumber"`
}

type FetchProductsFailAction struct {
	Error string `json:"error"`
}

func (FetchProductsStartAction) Type() ActionType   { return FetchProductsStart }
func (FetchProductsSuccessAction) Type() ActionType { return FetchProductsSuccess }
func (FetchProductsFailAction) Type() ActionType    { return FetchProductsFail }

func (FetchProductsStartAction) Domain() Domain   { return DomainShop }
func (FetchProductsSuccessAction) Domain() Domain { return DomainShop }
func (FetchProductsFailAction) Domain() Domain    { return DomainShop }

func (FetchProductsStartAction) shopAction()   {}
func (FetchProductsSuccessAction) shopAction() {}
func (FetchProductsFailAction) shopAction()    {}

func (a FetchProductsFailAction) Failure() string { return a.Error }

// ===== UNKNOWN =====

// UnknownAction — действие с нераспознанным тегом. Все редьюсеры оставляют состояние как есть.
type UnknownAction struct {
	Tag ActionType
}

func (a UnknownAction) Type() ActionType { return a.Tag }
func (UnknownAction) Domain() Domain     { return "" }
