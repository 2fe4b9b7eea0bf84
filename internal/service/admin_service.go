package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/util"
)

type adminWriter interface {
	Create(ctx context.Context, input admin.CreateInput) (*admin.Administrator, error)
	List(ctx context.Context) ([]admin.Administrator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*admin.Administrator, error)
	GetByEmail(ctx context.Context, email string) (*admin.Administrator, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// AdminService centraliza casos de uso de administradores.
type AdminService struct {
	repo adminWriter
}

// NewAdminService cria nova instância do serviço.
func NewAdminService(repo *admin.Repository) *AdminService {
	return &AdminService{repo: repo}
}

// ListAdmins retorna os administradores cadastrados.
func (s *AdminService) ListAdmins(ctx context.Context) ([]admin.Administrator, error) {
	return s.repo.List(ctx)
}

// CreateAdmin cria um administrador ativo (senha bruta será hasheada).
func (s *AdminService) CreateAdmin(ctx context.Context, name, email, password string) (*admin.Administrator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, util.NewValidationError("name", "nome obrigatório")
	}
	if err := util.ValidateEmail(email); err != nil {
		return nil, util.NewValidationError("email", err.Error())
	}
	hash, err := hashAdminPassword(password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, admin.CreateInput{
		Name:         name,
		Email:        util.NormalizeEmail(email),
		PasswordHash: hash,
		Active:       true,
	})
}

// ResetAdminPassword troca a senha do administrador identificado pelo email.
func (s *AdminService) ResetAdminPassword(ctx context.Context, email, password string) error {
	adm, err := s.repo.GetByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := hashAdminPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, adm.ID, hash)
}

// VerifyAdminPassword confere novamente a senha do administrador antes de
// ações destrutivas. Administrador desconhecido ou inativo não confere.
func (s *AdminService) VerifyAdminPassword(ctx context.Context, adminID uuid.UUID, password string) (bool, error) {
	adm, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !adm.Active {
		return false, nil
	}
	ok, err := auth.Verify(password, adm.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Str("admin_id", adminID.String()).Msg("reautenticação: hash inválido")
		return false, nil
	}
	return ok, nil
}

func hashAdminPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if len(password) < 8 {
		return "", util.NewValidationError("password", "senha deve ter pelo menos 8 caracteres")
	}
	return auth.Hash(password)
}
