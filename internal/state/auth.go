package state

// PlaceholderToken — значение токена в начальном состоянии до первой аутентификации.
const PlaceholderToken = "dummy"

// AuthState — срез сессии. Пустая строка в полях означает отсутствие значения.
type AuthState struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Error   string `json:"error"`
	Loading bool   `json:"loading"`
}

// InitialAuthState возвращает состояние сессии при создании store.
func InitialAuthState() AuthState {
	return AuthState{Token: PlaceholderToken}
}

// Authenticated сообщает, есть ли у сессии реальный токен.
func (s AuthState) Authenticated() bool {
	return s.Token != "" && s.Token != PlaceholderToken
}

// ReduceAuth применяет действие к срезу сессии.
func ReduceAuth(s AuthState, action AuthAction) AuthState {
	switch a := action.(type) {
	case AuthStartAction:
		s.Loading = true
		s.Error = ""
	case AuthSuccessAction:
		s.Token = a.Token
		s.UserID = a.UserID
		s.Email = a.Email
		s.Loading = false
		s.Error = ""
	case AuthFailAction:
		s.Error = a.Error
		s.Loading = false
	case AuthLogoutAction:
		// loading и error не трогаем.
		s.Token = ""
		s.UserID = ""
		s.Email = ""
	}
	return s
}
