package admin

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("administrador não encontrado")
	ErrDuplicateEmail = errors.New("email de administrador já cadastrado")
)

// Administrator opera o painel e aprova representantes.
type Administrator struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateInput struct {
	Name         string
	Email        string
	PasswordHash string
	Active       bool
}
