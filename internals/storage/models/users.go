package models

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type User struct {
	ID             int64  `json:"id" db:"id"`
	Email          string `json:"email" db:"email"`
	HashedPassword string `json:"-" db:"hashed_password"`
	IsActive       bool   `json:"is_active" db:"is_active"`
	Items          []Item `json:"items" db:"-"`
}

// UserCreate only requires the fields to be present; empty strings are valid.
type UserCreate struct {
	Email    *string `json:"email" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

func NewUserCreate(email, password string) UserCreate {
	return UserCreate{Email: &email, Password: &password}
}

func (u UserCreate) EmailValue() string { return deref(u.Email) }

func (u UserCreate) PasswordValue() string { return deref(u.Password) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
