package domain

import "github.com/shopspring/decimal"

// CartLine — одна позиция корзины.
type CartLine struct {
	ProductID ProductRef `json:"productId"`
	Title     string     `json:"title,omitempty"`
	Price     Money      `json:"price"`
	Quantity  int        `json:"quantity"`
}

// Subtotal возвращает price*quantity позиции.
func (l CartLine) Subtotal() Money {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart — корзина в формате ответа backend.
type Cart struct {
	Products   []CartLine `json:"products"`
	TotalPrice Money      `json:"totalPrice"`
}

// LinesTotal считает сумму price*quantity по всем позициям.
func LinesTotal(lines []CartLine) Money {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ValidateInvariants проверяет инварианты корзины и возвращает список замечаний.
func (c Cart) ValidateInvariants() []error {
	var errs []error

	for _, line := range c.Products {
		if line.Quantity <= 0 {
			errs = append(errs, ErrCartQtyInvalid)
		}
		if line.Price.IsNegative() {
			errs = append(errs, ErrCartPriceInvalid)
		}
	}
	if c.TotalPrice.IsNegative() {
		errs = append(errs, ErrCartTotalNegative)
	}
	if !LinesTotal(c.Products).Equal(c.TotalPrice) {
		errs = append(errs, ErrCartTotalMismatch)
	}

	return errs
}
