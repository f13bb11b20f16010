package fakebackend

import (
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productBody struct {
	ProductID string `json:"productId"`
}

// CartOf возвращает копию корзины пользователя userID.
func (s *Server) CartOf(userID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.carts[userID]...)
}

// expandedCart отдаёт корзину с раскрытыми товарами, как это делает GET /cart.
func (s *Server) expandedCart(userID string) domain.Cart {
	lines := s.carts[userID]
	out := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		if p, ok := s.products[line.ProductID.ID()]; ok {
			line.ProductID = domain.RefToProduct(p)
		}
		out = append(out, line)
	}
	return domain.Cart{Products: out, TotalPrice: domain.LinesTotal(lines)}
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request, u *user) {
	s.mu.Lock()
	cart := s.expandedCart(u.ID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request, u *user) {
	var body productBody
	if err := decodeBody(r, &body); err != nil || body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[body.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	lines := s.carts[u.ID]
	idx := -1
	for i, line := range lines {
		if line.ProductID.ID() == p.ID {
			idx = i
			break
		}
	}
	inCart := 0
	if idx >= 0 {
		inCart = lines[idx].Quantity
	}
	if p.Stock <= inCart {
		writeError(w, http.StatusBadRequest, "Product is out of stock")
		return
	}

	if idx >= 0 {
		lines[idx].Quantity++
	} else {
		lines = append(lines, domain.CartLine{
			ProductID: domain.RefByID(p.ID),
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  1,
		})
	}
	s.carts[u.ID] = lines

	writeJSON(w, http.StatusOK, map[string]any{
		"cart": map[string]any{"products": lines},
	})
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request, u *user) {
	var body productBody
	if err := decodeBody(r, &body); err != nil || body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[u.ID]
	for i, line := range lines {
		if line.ProductID.ID() != body.ProductID {
			continue
		}
		s.carts[u.ID] = append(lines[:i:i], lines[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Product removed from cart",
			"cart":    s.expandedCart(u.ID),
		})
		return
	}
	writeError(w, http.StatusNotFound, "Product not found in cart")
}
