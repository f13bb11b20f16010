package domain

import "errors"

var (
	// ErrBadRequest: backend отклонил запрос (400): нет на складе, невалидная карта и т.п.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized: неверные учётные данные или истёкший токен (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPaymentRequired: платёж отклонён или недостаточно средств (402).
	ErrPaymentRequired = errors.New("payment required")
	// ErrForbidden: недостаточно прав, например вход не-администратора в админку (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: ресурс не найден (404).
	ErrNotFound = errors.New("not found")
	// ErrConflict: повторная операция, например дубликат заказа (409).
	ErrConflict = errors.New("conflict")
	// ErrValidation: ошибка валидации данных (422).
	ErrValidation = errors.New("validation failed")
	// ErrUpstream: внутренняя ошибка backend (5xx).
	ErrUpstream = errors.New("upstream error")
	// ErrNetwork: запрос не дошёл до backend.
	ErrNetwork = errors.New("network error")

	// Ошибка, если количество в позиции корзины <= 0.
	ErrCartQtyInvalid = errors.New("cart line quantity must be greater than zero")
	// Ошибка, если цена позиции корзины отрицательная.
	ErrCartPriceInvalid = errors.New("cart line price must be non-negative")
	// Ошибка отрицательной суммы корзины.
	ErrCartTotalNegative = errors.New("cart total must be non-negative")
	// Ошибка несоответствия суммы корзины и сумм позиций.
	ErrCartTotalMismatch = errors.New("cart total does not match lines sum")

	// Ошибка пустого названия товара.
	ErrProductTitleRequired = errors.New("product title is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceInvalid = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка.
	ErrProductStockInvalid = errors.New("product stock must be non-negative")

	// Ошибка отсутствующего платёжного токена.
	ErrPaymentTokenRequired = errors.New("payment token is required")
	// Ошибка неположительной суммы платежа.
	ErrPaymentAmountInvalid = errors.New("payment amount must be positive")
	// ErrEmptyCart: оформление заказа с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotAuthenticated: операция требует входа.
	ErrNotAuthenticated = errors.New("not authenticated")

	// Ошибка записи журнала, которой нет в outbox.
	ErrOutboxRecordNotFound = errors.New("outbox record not found")
	// Ошибка пустого idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// Ошибка пустого хэша запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// Ошибка повторного запроса с тем же ключом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// Ошибка повторного ключа с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// Ошибка отсутствующего ключа.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IsClientError сообщает, что ошибку вызвал сам запрос и повтор без изменений бессмыслен.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrBadRequest, ErrUnauthorized, ErrPaymentRequired, ErrForbidden,
		ErrNotFound, ErrConflict, ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
