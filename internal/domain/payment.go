package domain

// PaymentStatus описывает результат списания у платёжного провайдера.
type PaymentStatus string

const (
	// PaymentStatusSuccess: платёж проведён.
	PaymentStatusSuccess PaymentStatus = "success"
	// PaymentStatusFailed: провайдер отклонил платёж.
	PaymentStatusFailed PaymentStatus = "failed"
)

// DefaultCurrency: валюта, которую ожидает платёжный шлюз по умолчанию.
const DefaultCurrency = "usd"

// PaymentRequest: запрос на списание.
type PaymentRequest struct {
	Amount   Money  `json:"amount"`
	Token    string `json:"token"`
	Currency string `json:"currency,omitempty"`
}

// Validate проверяет запрос до обращения к шлюзу.
func (p PaymentRequest) Validate() []error {
	var errs []error

	switch {
	case p.Token == "":
		errs = append(errs, ErrPaymentTokenRequired)
	case !p.Amount.IsPositive():
		errs = append(errs, ErrPaymentAmountInvalid)
	}

	return errs
}

// PaymentResult: ответ платёжного шлюза.
type PaymentResult struct {
	TransactionID string        `json:"transactionId"`
	Status        PaymentStatus `json:"status"`
	Amount        Money         `json:"amount"`
}
