package state

// RootState — всё состояние клиента, разбитое на независимые срезы.
type RootState struct {
	Auth   AuthState   `json:"auth"`
	Cart   CartState   `json:"cart"`
	Orders OrdersState `json:"orders"`
	Shop   ShopState   `json:"shop"`
}

// InitialRootState собирает начальные состояния всех срезов.
func InitialRootState() RootState {
	return RootState{
		Auth:   InitialAuthState(),
		Cart:   InitialCartState(),
		Orders: InitialOrdersState(),
		Shop:   InitialShopState(),
	}
}

// Reduce направляет действие в редьюсер его домена. Остальные срезы не меняются,
// нераспознанное действие возвращает состояние как есть.
func Reduce(root RootState, action Action) RootState {
	switch a := action.(type) {
	case AuthAction:
		root.Auth = ReduceAuth(root.Auth, a)
	case CartAction:
		root.Cart = ReduceCart(root.Cart, a)
	case OrdersAction:
		root.Orders = ReduceOrders(root.Orders, a)
	case ShopAction:
		root.Shop = ReduceShop(root.Shop, a)
	}
	return root
}

// Slice возвращает срез состояния, которому принадлежит домен.
func (r RootState) Slice(d Domain) (any, bool) {
	switch d {
	case DomainAuth:
		return r.Auth, true
	case DomainCart:
		return r.Cart, true
	case DomainOrders:
		return r.Orders, true
	case DomainShop:
		return r.Shop, true
	default:
		return nil, false
	}
}
