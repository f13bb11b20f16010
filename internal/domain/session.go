package domain

// Role пользователя storefront.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Credentials: данные формы входа/регистрации.
type Credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// Session: ответ backend на успешную аутентификацию.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role,omitempty"`
}

// IsAdmin сообщает, выдана ли сессия администратору.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
