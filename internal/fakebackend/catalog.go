package fakebackend

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (s *Server) putProduct(p domain.Product) domain.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.products[p.ID]; !exists {
		s.catalog = append(s.catalog, p.ID)
	}
	s.products[p.ID] = p
	return p
}

// Product возвращает текущее состояние товара каталога.
func (s *Server) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	total := len(s.catalog)
	lastPage := (total + s.pageSize - 1) / s.pageSize
	if lastPage < 1 {
		lastPage = 1
	}
	products := make([]domain.Product, 0, s.pageSize)
	for i := (page - 1) * s.pageSize; i < total && len(products) < s.pageSize; i++ {
		products = append(products, s.products[s.catalog[i]])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"lastPage": lastPage,
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Product(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, _ *user) {
	var p domain.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product payload")
		return
	}
	if errs := p.Validate(); len(errs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "Invalid product data", errs...)
		return
	}

	p.ID = ""
	s.mu.Lock()
	created := s.putProduct(p)
	s.mu.Unlock()

	// Ответ создания отдаёт идентификатор как productId, без _id.
	writeJSON(w, http.StatusCreated, map[string]any{
		"productId":   created.ID,
		"title":       created.Title,
		"description": created.Description,
		"price":       created.Price,
		"imageUrl":    created.ImageURL,
		"stock":       created.Stock,
	})
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, _ *user) {
	id := mux.Vars(r)["id"]

	var p domain.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product payload")
		return
	}
	if errs := p.Validate(); len(errs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "Invalid product data", errs...)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	p.ID = id
	writeJSON(w, http.StatusOK, s.putProduct(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, _ *user) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	delete(s.products, id)
	for i, catalogID := range s.catalog {
		if catalogID == id {
			s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}
