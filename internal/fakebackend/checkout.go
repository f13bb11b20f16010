package fakebackend

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Orders возвращает все созданные заказы, новые первыми.
func (s *Server) Orders() []domain.Order {
	orders, _ := s.orders.List()
	return orders
}

func (s *Server) validateCheckout(w http.ResponseWriter, r *http.Request, _ *user) {
	var body struct {
		Items []domain.CartLine `json:"items"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid checkout payload")
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range body.Items {
		p, ok := s.products[item.ProductID.ID()]
		if !ok {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		if p.Stock < item.Quantity {
			writeError(w, http.StatusBadRequest, p.Title+" is out of stock")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) processPayment(w http.ResponseWriter, r *http.Request, _ *user) {
	var req domain.PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment payload")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid card details", errs...)
		return
	}
	if req.Token == DeclinedPaymentToken {
		writeError(w, http.StatusPaymentRequired, "Payment declined")
		return
	}

	result := domain.PaymentResult{
		TransactionID: "txn_" + uuid.NewString(),
		Status:        domain.PaymentStatusSuccess,
		Amount:        req.Amount,
	}
	s.mu.Lock()
	s.payments[result.TransactionID] = result
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

// createOrder создаёт заказ. Повтор с тем же Idempotency-Key и тем же телом получает
// сохранённый ответ; другой запрос под тем же ключом или ключ в обработке получают 409.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, u *user) {
	payload, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order payload")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		sum := sha256.Sum256(append([]byte(u.ID+":"), payload...))
		record, err := s.idempotency.CreateProcessing(key, hex.EncodeToString(sum[:]), time.Time{})
		switch {
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			if record.Status != domain.IdempotencyStatusProcessing && len(record.ResponseBody) > 0 {
				writeRaw(w, record.HTTPStatus, record.ResponseBody)
				return
			}
			writeError(w, http.StatusConflict, "Order request is already being processed")
			return
		case errors.Is(err, domain.ErrIdempotencyHashMismatch):
			writeError(w, http.StatusConflict, "Idempotency key reused with a different request")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	status, body := s.placeOrder(u, payload)
	encoded, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		encoded = []byte(`{"message":"could not encode order"}`)
	}

	if key != "" {
		if status < 300 {
			_ = s.idempotency.MarkDone(key, encoded, status)
		} else {
			_ = s.idempotency.MarkFailed(key, encoded, status)
		}
	}
	writeRaw(w, status, encoded)
}

func (s *Server) placeOrder(u *user, payload []byte) (int, any) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&req); err != nil {
		return http.StatusBadRequest, errorBody("Invalid order payload")
	}
	if len(req.Products) == 0 {
		return http.StatusBadRequest, errorBody("Cart is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[req.TransactionID]; !ok {
		return http.StatusPaymentRequired, errorBody("Payment not found")
	}
	for _, line := range req.Products {
		p, ok := s.products[line.ProductID.ID()]
		if !ok {
			return http.StatusNotFound, errorBody("Product not found")
		}
		if p.Stock < line.Quantity {
			return http.StatusBadRequest, errorBody(p.Title + " is out of stock")
		}
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		CustomerID:    u.ID,
		TotalPrice:    req.TotalAmount,
		Date:          s.now().Format(time.RFC3339),
		Status:        domain.OrderStatusPending,
		TransactionID: req.TransactionID,
	}
	for _, line := range req.Products {
		p := s.products[line.ProductID.ID()]
		p.Stock -= line.Quantity
		s.products[p.ID] = p
		order.Products = append(order.Products, domain.OrderLine{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}
	if err := s.orders.Create(order); err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	delete(s.carts, u.ID)

	return http.StatusCreated, order
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request, u *user) {
	orders, err := s.orders.ListByCustomer(u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// adminOrder — форма заказа в админском списке: id и total вместо orderId и totalPrice.
type adminOrder struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customerId"`
	Products   []domain.OrderLine `json:"products"`
	Total      domain.Money       `json:"total"`
	Date       string             `json:"date"`
	Status     domain.OrderStatus `json:"status"`
}

func (s *Server) listAllOrders(w http.ResponseWriter, _ *http.Request, _ *user) {
	orders, err := s.orders.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]adminOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, adminOrder{
			ID:         o.ID,
			CustomerID: o.CustomerID,
			Products:   o.Products,
			Total:      o.TotalPrice,
			Date:       o.Date,
			Status:     o.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ *user) {
	var body struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status payload")
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "Invalid order status")
		return
	}

	updated, err := s.orders.UpdateStatus(mux.Vars(r)["id"], body.Status)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId": updated.ID,
		"status":  updated.Status,
	})
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
