package domain

import "github.com/shopspring/decimal"

func init() {
	// Backend отдаёт и принимает цены числами JSON (29.99), а не строками.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money: денежная сумма с точной десятичной арифметикой.
type Money = decimal.Decimal

// Zero: нулевая сумма.
var Zero = decimal.Zero

// NewMoney создаёт сумму из числа с плавающей точкой (удобно для литералов в тестах и фикстурах).
func NewMoney(value float64) Money {
	return decimal.NewFromFloat(value)
}

// MustParseMoney разбирает строковое представление суммы и паникует при ошибке.
func MustParseMoney(value string) Money {
	return decimal.RequireFromString(value)
}
