package state

import (
	"slices"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CartState: срез корзины.
type CartState struct {
	Products   []domain.CartLine `json:"products"`
	TotalPrice domain.Money      `json:"totalPrice"`
	Error      string            `json:"error"`
	Loading    bool              `json:"loading"`
	// ToCart: подсказка для отображения, сбрасывается при каждой загрузке корзины.
	ToCart bool `json:"toCart"`
}

// InitialCartState возвращает пустую корзину.
func InitialCartState() CartState {
	return CartState{
		Products:   []domain.CartLine{},
		TotalPrice: domain.Zero,
	}
}

// ReduceCart применяет действие к срезу корзины.
//
// Сумма корзины приходит от сервера при загрузке, а при удалении позиции пересчитывается
// локально. ADD_PRODUCT_TO_CART_SUCCESS сумму не трогает.
func ReduceCart(s CartState, action CartAction) CartState {
	switch a := action.(type) {
	case FetchCartStartAction:
		s.Loading = true
		s.ToCart = false
	case AddProductToCartStartAction, RemoveProductFromCartStartAction:
		s.Loading = true
	case FetchCartSuccessAction:
		s.Products = cloneLines(a.Cart.Products)
		s.TotalPrice = a.Cart.TotalPrice
		s.Loading = false
	case AddProductToCartSuccessAction:
		s.Products = cloneLines(a.Products)
		s.Loading = false
	case RemoveProductFromCartSuccessAction:
		s.Products, s.TotalPrice = removeLine(s.Products, s.TotalPrice, a.ProductID)
		s.Loading = false
	case FailAction:
		s.Error = a.Failure()
		s.Loading = false
	}
	return s
}

// removeLine удаляет первую позицию с указанным товаром и уменьшает сумму на её стоимость.
// Входной срез не изменяется. Пустой идентификатор не совпадает ни с одной позицией,
// в том числе с позицией, у которой productId пришёл как null.
func removeLine(lines []domain.CartLine, total domain.Money, productID string) ([]domain.CartLine, domain.Money) {
	if productID == "" {
		return lines, total
	}
	idx := slices.IndexFunc(lines, func(line domain.CartLine) bool {
		return line.ProductID.ID() == productID
	})
	if idx < 0 {
		return lines, total
	}

	removed := lines[idx]
	remaining := make([]domain.CartLine, 0, len(lines)-1)
	remaining = append(remaining, lines[:idx]...)
	remaining = append(remaining, lines[idx+1:]...)

	total = total.Sub(removed.Subtotal())
	// Пустая корзина стоит ровно 0; отрицательная сумма значит, что серверный total разошёлся с позициями.
	if len(remaining) == 0 || total.IsNegative() {
		total = domain.LinesTotal(remaining)
	}
	return remaining, total
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return []domain.CartLine{}
	}
	return slices.Clone(lines)
}
