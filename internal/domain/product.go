package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product описывает товар каталога в том виде, в котором его отдаёт backend.
type Product struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Stock       int    `json:"stock"`
}

// InStock сообщает, можно ли положить товар в корзину.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Validate проверяет поля товара перед созданием/обновлением в админке.
func (p Product) Validate() []error {
	var errs []error
	if p.Title == "" {
		errs = append(errs, ErrProductTitleRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrProductStockInvalid)
	}
	return errs
}

// ProductRef ссылается из строки корзины на товар. На проводе это строка с идентификатором,
// раскрытый объект товара с полем _id или null. Полученная форма кодируется обратно байт в байт.
type ProductRef struct {
	id      string
	product *Product
	// raw хранит исходный объект: в нём могут быть поля, которых нет в Product.
	raw  json.RawMessage
	null bool
}

// RefByID создаёт ссылку в строковой форме.
func RefByID(id string) ProductRef {
	return ProductRef{id: id}
}

// RefToProduct создаёт ссылку в раскрытой форме.
func RefToProduct(p Product) ProductRef {
	return ProductRef{id: p.ID, product: &p}
}

// ID возвращает идентификатор товара независимо от формы ссылки. Для null это пустая строка.
func (r ProductRef) ID() string {
	return r.id
}

// IsNull сообщает, что ссылка пришла как null.
func (r ProductRef) IsNull() bool {
	return r.null
}

// Product возвращает раскрытый товар, если ссылка пришла объектом.
func (r ProductRef) Product() (Product, bool) {
	if r.product == nil {
		return Product{}, false
	}
	return *r.product, true
}

// MarshalJSON кодирует ссылку в той же форме, в которой она была получена.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.null:
		return []byte("null"), nil
	case r.raw != nil:
		return r.raw, nil
	case r.product != nil:
		return json.Marshal(r.product)
	default:
		return json.Marshal(r.id)
	}
}

// UnmarshalJSON принимает строку, объект с _id или null.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = ProductRef{null: true}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode product id: %w", err)
		}
		*r = ProductRef{id: id}
		return nil
	case data[0] == '{':
		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode product object: %w", err)
		}
		*r = ProductRef{id: p.ID, product: &p, raw: bytes.Clone(data)}
		return nil
	default:
		return fmt.Errorf("decode product ref: unexpected json %s", data)
	}
}
