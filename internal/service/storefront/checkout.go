package storefront

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// Шаги оформления заказа в метриках.
const (
	StepValidate    = "validate"
	StepPayment     = "payment"
	StepCreateOrder = "create_order"
)

// FetchOrders загружает историю заказов.
func (s *Service) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	s.store.Dispatch(state.FetchOrdersStartAction{})

	orders, err := withSession(s, func(auth client.Auth) ([]domain.Order, error) {
		return s.api.ListOrders(ctx, auth)
	})
	if err != nil {
		s.store.Dispatch(state.FetchOrdersFailAction{Error: client.Describe(err)})
		return nil, failure("fetch orders", err)
	}

	s.store.Dispatch(state.FetchOrdersSuccessAction{Orders: orders})
	return orders, nil
}

// Checkout оформляет заказ из текущей корзины: проверка остатков, оплата, создание заказа.
// При ошибке на любом шаге срез корзины не меняется. После успеха история заказов и
// корзина загружаются заново.
func (s *Service) Checkout(ctx context.Context, paymentToken string) (order domain.Order, err error) {
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCheckout(err)
		}
		if err != nil {
			s.logger.WithError(err).Warn("checkout failed")
		}
	}()

	auth, err := s.session()
	if err != nil {
		return domain.Order{}, failure("checkout", err)
	}
	cart := s.store.State().Cart
	if len(cart.Products) == 0 {
		return domain.Order{}, failure("checkout", domain.ErrEmptyCart)
	}
	// Сумма в срезе может отставать после добавления товара, поэтому платим сумму позиций.
	amount := domain.LinesTotal(cart.Products)

	err = s.step(StepValidate, func() error {
		return s.api.ValidateCheckout(ctx, auth, cart.Products)
	})
	if err != nil {
		return domain.Order{}, failure("checkout validate", err)
	}

	var payment domain.PaymentResult
	err = s.step(StepPayment, func() error {
		payment, err = s.api.ProcessPayment(ctx, auth, domain.PaymentRequest{
			Amount:   amount,
			Token:    paymentToken,
			Currency: domain.DefaultCurrency,
		})
		if err == nil && payment.Status != domain.PaymentStatusSuccess {
			err = fmt.Errorf("payment status %q: %w", payment.Status, domain.ErrPaymentRequired)
		}
		return err
	})
	if err != nil {
		return domain.Order{}, failure("checkout payment", err)
	}

	key := s.newKey()
	err = s.step(StepCreateOrder, func() error {
		order, err = s.api.CreateOrder(ctx, auth, domain.CreateOrderRequest{
			CustomerID:    auth.UserID,
			Products:      cart.Products,
			TotalAmount:   amount,
			TransactionID: payment.TransactionID,
			Status:        domain.OrderStatusPending,
		}, key)
		return err
	})
	if err != nil {
		return domain.Order{}, failure("checkout create order", err)
	}

	s.logger.WithFields(log.Fields{
		"order_id":       order.ID,
		"transaction_id": payment.TransactionID,
	}).Info("order placed")

	if _, refreshErr := s.FetchOrders(ctx); refreshErr != nil {
		s.logger.WithError(refreshErr).Warn("refresh orders after checkout")
	}
	if _, refreshErr := s.FetchCart(ctx); refreshErr != nil {
		s.logger.WithError(refreshErr).Warn("refresh cart after checkout")
	}
	return order, nil
}

func (s *Service) step(name string, run func() error) error {
	started := time.Now()
	err := run()
	if s.metrics != nil {
		s.metrics.RecordCheckoutStep(name, time.Since(started))
	}
	return err
}
