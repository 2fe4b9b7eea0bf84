package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	AudienceAdmin          = "admin"
	AudienceRepresentative = "representative"

	RoleAdmin          = "ADMIN"
	RoleRepresentative = "REPRESENTATIVE"
)

// ErrInvalidSession indica token ou sessão sem subject uuid ou com audience desconhecida.
var ErrInvalidSession = errors.New("sessão inválida")

// Session identifica quem executa a operação. É montada pelo middleware a
// partir do token e repassada explicitamente aos serviços.
type Session struct {
	Subject  uuid.UUID
	Audience string
	Roles    []string
}

// IsAdmin indica sessão de administrador.
func (s Session) IsAdmin() bool {
	return s.Audience == AudienceAdmin && s.HasRole(RoleAdmin)
}

// IsRepresentative indica sessão de representante.
func (s Session) IsRepresentative() bool {
	return s.Audience == AudienceRepresentative
}

// HasRole compara papéis sem diferenciar caixa.
func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}
