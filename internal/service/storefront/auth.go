package storefront

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// Login выполняет вход покупателя.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return s.authenticate(ctx, "login", s.api.Login, domain.Credentials{Email: email, Password: password})
}

// Signup регистрирует покупателя и сразу открывает сессию.
func (s *Service) Signup(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return s.authenticate(ctx, "signup", s.api.Signup, creds)
}

// AdminLogin выполняет вход администратора.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (domain.Session, error) {
	return s.authenticate(ctx, "admin login", s.api.AdminLogin, domain.Credentials{Email: email, Password: password})
}

type authFunc func(ctx context.Context, creds domain.Credentials) (domain.Session, error)

func (s *Service) authenticate(ctx context.Context, operation string, call authFunc, creds domain.Credentials) (domain.Session, error) {
	s.store.Dispatch(state.AuthStartAction{})

	session, err := call(ctx, creds)
	if err != nil {
		s.store.Dispatch(state.AuthFailAction{Error: client.Describe(err)})
		s.logger.WithError(err).WithField("operation", operation).Info("authentication failed")
		return domain.Session{}, failure(operation, err)
	}

	s.store.Dispatch(state.AuthSuccessAction{
		Token:  session.Token,
		UserID: session.UserID,
		Email:  session.Email,
	})
	return session, nil
}

// Logout закрывает сессию. Корзина и заказы в состоянии не сбрасываются.
func (s *Service) Logout() {
	s.store.Dispatch(state.AuthLogoutAction{})
}

// CheckSession закрывает сессию, если токен — JWT с истёкшим exp. Подпись не проверяется:
// это делает backend, здесь нужен только срок. Возвращает true, если сессия была закрыта.
func (s *Service) CheckSession(now time.Time) bool {
	auth := s.store.State().Auth
	if !auth.Authenticated() {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(auth.Token, claims); err != nil {
		return false
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil || now.Before(expiresAt.Time) {
		return false
	}

	s.logger.WithField("expired_at", expiresAt.Time).Info("session expired")
	s.store.Dispatch(state.AuthLogoutAction{})
	return true
}
