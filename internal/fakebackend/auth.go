package fakebackend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (s *Server) addUser(email, password string, role domain.Role) *user {
	u := &user{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
		Role:     role,
	}
	s.users[u.Email] = u
	return u
}

// UserID возвращает идентификатор зарегистрированного пользователя.
func (s *Server) UserID(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return "", false
	}
	return u.ID, true
}

// IssueToken выдаёт подписанный токен пользователю email (для тестов с заранее известной сессией).
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	return s.issueToken(u)
}

func (s *Server) issueToken(u *user) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// authenticate находит пользователя по заголовкам Authorization и UserId.
func (s *Server) authenticate(r *http.Request) (*user, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, false
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, false
	}
	subject, _ := claims.GetSubject()
	if header := r.Header.Get("UserId"); header != "" && header != subject {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == subject {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) customer(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) admin(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return s.customer(func(w http.ResponseWriter, r *http.Request, u *user) {
		if u.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r, u)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.signIn(w, r, false)
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	s.signIn(w, r, true)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var creds domain.Credentials
	if err := decodeBody(r, &creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(creds.Email)]
	s.mu.Unlock()
	if !ok || u.Password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if adminOnly && u.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	s.writeSession(w, http.StatusOK, u, adminOnly)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeBody(r, &creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if creds.Password != creds.ConfirmPassword {
		writeError(w, http.StatusUnprocessableEntity, "Passwords do not match")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[strings.ToLower(creds.Email)]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusUnprocessableEntity, "Email already in use")
		return
	}
	u := s.addUser(creds.Email, creds.Password, domain.RoleCustomer)
	s.mu.Unlock()

	s.writeSession(w, http.StatusCreated, u, false)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, u *user, withRole bool) {
	token, err := s.issueToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	session := domain.Session{Token: token, UserID: u.ID, Email: u.Email}
	if withRole {
		session.Role = u.Role
	}
	writeJSON(w, status, session)
}
