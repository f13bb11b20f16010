package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProductPage — страница каталога. LastPage равен 0, если backend его не прислал.
type ProductPage struct {
	Products []domain.Product `json:"products"`
	LastPage int              `json:"lastPage,omitempty"`
}

// ListProducts загружает страницу каталога.
func (c *Client) ListProducts(ctx context.Context, page int) (ProductPage, error) {
	var out ProductPage
	err := c.do(ctx, request{
		operation: "list_products",
		method:    http.MethodGet,
		path:      "/products",
		query:     url.Values{"page": []string{strconv.Itoa(page)}},
	}, &out)
	if err != nil {
		return ProductPage{}, err
	}
	return out, nil
}

// GetProduct загружает карточку товара.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := c.do(ctx, request{
		operation: "get_product",
		method:    http.MethodGet,
		path:      "/products/" + url.PathEscape(productID),
	}, &out)
	if err != nil {
		return domain.Product{}, err
	}
	return out.Product, nil
}

// Login выполняет вход покупателя.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return c.authenticate(ctx, "login", "/auth/login", domain.Credentials{Email: creds.Email, Password: creds.Password})
}

// Signup регистрирует покупателя. Backend сам сверяет password и confirmPassword.
func (c *Client) Signup(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return c.authenticate(ctx, "signup", "/auth/signup", creds)
}

// AdminLogin выполняет вход администратора.
func (c *Client) AdminLogin(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return c.authenticate(ctx, "admin_login", "/auth/admin-login", domain.Credentials{Email: creds.Email, Password: creds.Password})
}

func (c *Client) authenticate(ctx context.Context, operation, path string, creds domain.Credentials) (domain.Session, error) {
	var session domain.Session
	err := c.do(ctx, request{
		operation: operation,
		method:    http.MethodPost,
		path:      path,
		body:      creds,
	}, &session)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Email == "" {
		session.Email = creds.Email
	}
	return session, nil
}
