package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeAction кодирует действие в плоскую запись {"type": "...", <поля payload>}.
func EncodeAction(action Action) ([]byte, error) {
	if action == nil {
		return nil, fmt.Errorf("encode action: nil action")
	}

	tag, err := json.Marshal(action.Type())
	if err != nil {
		return nil, fmt.Errorf("encode action type: %w", err)
	}

	var payload []byte
	if _, unknown := action.(UnknownAction); !unknown {
		payload, err = json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("encode action %s: %w", action.Type(), err)
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(tag) + len(payload) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	// payload всегда объект: "{}" или "{...}".
	if len(payload) > 2 {
		buf.WriteByte(',')
		buf.Write(payload[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeAction разбирает запись действия. Нераспознанный тег даёт UnknownAction без ошибки,
// ошибкой считается только некорректный JSON.
func DecodeAction(data []byte) (Action, error) {
	var head struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch head.Type {
	case AuthStart:
		return AuthStartAction{}, nil
	case AuthSuccess:
		return decodeInto[AuthSuccessAction](data)
	case AuthFail:
		return decodeInto[AuthFailAction](data)
	case AuthLogout:
		return AuthLogoutAction{}, nil

	case FetchCartStart:
		return FetchCartStartAction{}, nil
	case FetchCartSuccess:
		return decodeInto[FetchCartSuccessAction](data)
	case FetchCartFail:
		return decodeInto[FetchCartFailAction](data)
	case AddProductToCartStart:
		return AddProductToCartStartAction{}, nil
	case AddProductToCartSuccess:
		return decodeInto[AddProductToCartSuccessAction](data)
	case AddProductToCartFail:
		return decodeInto[AddProductToCartFailAction](data)
	case RemoveProductFromCartStart:
		return RemoveProductFromCartStartAction{}, nil
	case RemoveProductFromCartSuccess:
		return decodeInto[RemoveProductFromCartSuccessAction](data)
	case RemoveProductFromCartFail:
		return decodeInto[RemoveProductFromCartFailAction](data)

	case FetchOrdersStart:
		return FetchOrdersStartAction{}, nil
	case FetchOrdersSuccess:
		return decodeInto[FetchOrdersSuccessAction](data)
	case FetchOrdersFail:
		return decodeInto[FetchOrdersFailAction](data)

	case FetchProductsStart:
		return FetchProductsStartAction{}, nil
	case FetchProductsSuccess:
		return decodeInto[FetchProductsSuccessAction](data)
	case FetchProductsFail:
		return decodeInto[FetchProductsFailAction](data)

	default:
		return UnknownAction{Tag: head.Type}, nil
	}
}

func decodeInto[T Action](data []byte) (Action, error) {
	var action T
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("decode action payload: %w", err)
	}
	return action, nil
}

// AllActionTypes перечисляет весь словарь действий.
func AllActionTypes() []ActionType {
	return []ActionType{
		AuthStart, AuthSuccess, AuthFail, AuthLogout,
		FetchCartStart, FetchCartSuccess, FetchCartFail,
		AddProductToCartStart, AddProductToCartSuccess, AddProductToCartFail,
		RemoveProductFromCartStart, RemoveProductFromCartSuccess, RemoveProductFromCartFail,
		FetchOrdersStart, FetchOrdersSuccess, FetchOrdersFail,
		FetchProductsStart, FetchProductsSuccess, FetchProductsFail,
	}
}
