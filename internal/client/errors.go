package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// APIError: ответ backend со статусом вне 2xx.
type APIError struct {
	Status  int
	Message string
	// Errors: подробности валидации, если backend их прислал.
	Errors []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (%d): %s", msg, e.Status, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("%s (%d)", msg, e.Status)
}

// Unwrap сопоставляет HTTP статус доменной ошибке, чтобы работал errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.Status == http.StatusPaymentRequired:
		return domain.ErrPaymentRequired
	case e.Status == http.StatusForbidden:
		return domain.ErrForbidden
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusConflict:
		return domain.ErrConflict
	case e.Status == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case e.Status >= http.StatusInternalServerError:
		return domain.ErrUpstream
	default:
		return domain.ErrBadRequest
	}
}

// Describe возвращает текст ошибки для показа пользователю: сообщение backend, если оно есть.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}
	for _, raw := range payload.Errors {
		if detail := fieldError(raw); detail != "" {
			apiErr.Errors = append(apiErr.Errors, detail)
		}
	}
	return apiErr
}

// fieldError принимает и строку, и объект вида {"msg": "..."} / {"message": "..."}.
func fieldError(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Msg != "" {
		return obj.Msg
	}
	return obj.Message
}
