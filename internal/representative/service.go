package representative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/notify"
	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

const (
	temporaryPasswordLength = 10
	commissionCodeAttempts  = 3
)

// Store abstrai a persistência de representantes e documentos.
type Store interface {
	Create(ctx context.Context, rep Representative) (*Representative, error)
	Get(ctx context.Context, id uuid.UUID) (*Representative, error)
	GetByEmail(ctx context.Context, email string) (*Representative, error)
	List(ctx context.Context, filter ListFilter) ([]Representative, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Representative, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TransitionStatus(ctx context.Context, change StatusChange) (*Representative, error)
	PromoteIfComplete(ctx context.Context, id uuid.UUID, commissionCode string) (complete, promoted bool, err error)
	SetCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*Representative, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EnsureDocumentPlaceholders(ctx context.Context, id uuid.UUID) error
	ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	UpsertDocument(ctx context.Context, repID uuid.UUID, docType DocType, fileURL, fileKey string) (*Document, *string, error)
	ReviewDocument(ctx context.Context, id uuid.UUID, status DocStatus, reason *string) (*Document, error)
}

// ContractStore expõe o necessário dos contratos para a transferência.
type ContractStore interface {
	ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]contract.Contract, error)
	Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error
}

// AdminVerifier confere a senha do administrador em ações destrutivas.
type AdminVerifier interface {
	VerifyAdminPassword(ctx context.Context, adminID uuid.UUID, password string) (bool, error)
}

// Service concentra o ciclo de vida do representante.
type Service struct {
	store     Store
	contracts ContractStore
	admins    AdminVerifier
	files     storage.Store
	notifier  notify.Notifier
	policy    storage.Policy
	newCode   func() string
}

// NewService cria o serviço. files e notifier podem ser nil.
func NewService(store Store, contracts ContractStore, admins AdminVerifier, files storage.Store, notifier notify.Notifier, policy storage.Policy) *Service {
	if files == nil {
		files = storage.NoopStore{}
	}
	return &Service{
		store:     store,
		contracts: contracts,
		admins:    admins,
		files:     files,
		notifier:  notifier,
		policy:    policy,
		newCode:   util.CommissionCode,
	}
}

// RegisterPublic cria o cadastro vindo do formulário público como pending_approval.
func (s *Service) RegisterPublic(ctx context.Context, input RegisterInput) (*Representative, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = util.NormalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.PointOfSale = strings.TrimSpace(input.PointOfSale)

	if err := util.Validate(input); err != nil {
		return nil, err
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, Representative{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		CNPJ:         util.DigitsOnly(input.CNPJ),
		CompanyName:  input.CompanyName,
		PointOfSale:  input.PointOfSale,
		PasswordHash: hash,
		Status:       StatusPendingApproval,
	})
	if err != nil {
		return nil, persistence("register representative", err)
	}

	log.Info().Str("representative_id", created.ID.String()).Msg("novo autocadastro de representante")
	s.notify(ctx, notify.Message{
		Title:    "Novo cadastro de representante",
		Text:     fmt.Sprintf("%s (%s) aguarda aprovação.", created.Name, created.CompanyName),
		Severity: notify.SeverityInfo,
	})

	return created, nil
}

// CreateRepresentative cadastra pela administração. Quando a senha não é
// informada, devolve a senha temporária gerada.
func (s *Service) CreateRepresentative(ctx context.Context, input CreateInput) (*Representative, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = util.NormalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.PointOfSale = strings.TrimSpace(input.PointOfSale)

	if err := util.Validate(input); err != nil {
		return nil, "", err
	}

	status := StatusActive
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := ParseStatus(input.Status)
		if !ok {
			return nil, "", util.NewValidationError("status", "status inválido")
		}
		status = parsed
	}

	var temporary string
	password := input.Password
	if password == "" {
		generated, err := auth.TemporaryPassword(temporaryPasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("temporary password: %w", err)
		}
		temporary = generated
		password = generated
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	rep := Representative{
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		CNPJ:             util.DigitsOnly(input.CNPJ),
		CompanyName:      input.CompanyName,
		PointOfSale:      input.PointOfSale,
		PasswordHash:     hash,
		Status:           status,
		CommissionPlanID: input.CommissionPlanID,
	}

	var created *Representative
	for attempt := 0; attempt < commissionCodeAttempts; attempt++ {
		rep.ID = uuid.New()
		if status == StatusActive {
			code := s.newCode()
			rep.CommissionCode = &code
		}
		created, err = s.store.Create(ctx, rep)
		if !errors.Is(err, ErrCommissionCodeTaken) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, "", util.NewValidationError("commissionPlanId", err.Error())
		}
		return nil, "", persistence("create representative", err)
	}

	return created, temporary, nil
}

// GetRepresentative devolve o representante com totais de contratos.
func (s *Service) GetRepresentative(ctx context.Context, id uuid.UUID) (*Representative, error) {
	rep, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistence("get representative", err)
	}
	return rep, nil
}

// ListRepresentatives lista com filtros de status e busca.
func (s *Service) ListRepresentatives(ctx context.Context, filter ListFilter) ([]Representative, error) {
	if len(filter.Status) > 0 {
		valid := make([]Status, 0, len(filter.Status))
		for _, st := range filter.Status {
			if parsed, ok := ParseStatus(string(st)); ok {
				valid = append(valid, parsed)
			}
		}
		filter.Status = valid
	}
	reps, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, persistence("list representatives", err)
	}
	return reps, nil
}

// UpdateProfile altera os dados cadastrais informados.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Representative, error) {
	fields := map[string]string{}
	trim := func(field string, value *string) {
		if value == nil {
			return
		}
		*value = strings.TrimSpace(*value)
		if *value == "" {
			fields[field] = field + " é um campo obrigatório"
		}
	}
	trim("name", patch.Name)
	trim("companyName", patch.CompanyName)
	trim("pointOfSale", patch.PointOfSale)
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		patch.Phone = &phone
	}
	if patch.Email != nil {
		email := util.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}

	for field, msg := range util.ValidateStruct(patch) {
		if _, exists := fields[field]; !exists {
			fields[field] = msg
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if patch.CNPJ != nil {
		digits := util.DigitsOnly(*patch.CNPJ)
		patch.CNPJ = &digits
	}

	updated, err := s.store.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, persistence("update profile", err)
	}
	return updated, nil
}

// ResetPassword gera uma senha temporária e devolve em texto claro uma única vez.
func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID) (string, error) {
	temporary, err := auth.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("temporary password: %w", err)
	}
	hash, err := auth.Hash(temporary)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, id, hash); err != nil {
		return "", persistence("reset password", err)
	}
	log.Info().Str("representative_id", id.String()).Msg("senha de representante redefinida")
	return temporary, nil
}

// AssignCommissionPlan vincula o plano; planID nulo remove o vínculo.
func (s *Service) AssignCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*Representative, error) {
	updated, err := s.store.SetCommissionPlan(ctx, id, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, util.NewValidationError("commissionPlanId", err.Error())
		}
		return nil, persistence("assign commission plan", err)
	}
	return updated, nil
}

// ApproveRegistration ativa o representante sem exigir documentos.
func (s *Service) ApproveRegistration(ctx context.Context, id uuid.UUID) (*Representative, error) {
	rep, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistence("approve registration", err)
	}
	if rep.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	updated, err := s.transition(ctx, StatusChange{ID: id, From: rep.Status, To: StatusActive})
	if err != nil {
		return nil, persistence("approve registration", err)
	}

	log.Info().Str("representative_id", id.String()).Str("from", string(rep.Status)).Msg("cadastro aprovado")
	return updated, nil
}

// RejectRegistration cancela o cadastro registrando o motivo.
func (s *Service) RejectRegistration(ctx context.Context, id uuid.UUID, reason string) (*Representative, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, util.NewValidationError("reason", "motivo da rejeição é obrigatório")
	}

	rep, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistence("reject registration", err)
	}
	if rep.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	updated, err := s.store.TransitionStatus(ctx, StatusChange{ID: id, From: rep.Status, To: StatusCancelled, RejectionReason: &reason})
	if err != nil {
		return nil, persistence("reject registration", err)
	}
	return updated, nil
}

// ChangeStatus aplica transições administrativas da máquina de estados.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to Status, reason string) (*Representative, error) {
	parsed, ok := ParseStatus(string(to))
	if !ok {
		return nil, util.NewValidationError("status", "status inválido")
	}

	rep, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistence("change status", err)
	}
	if !CanTransition(rep.Status, parsed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rep.Status, parsed)
	}

	change := StatusChange{ID: id, From: rep.Status, To: parsed}
	if reason = strings.TrimSpace(reason); reason != "" {
		change.RejectionReason = &reason
	}

	updated, err := s.transition(ctx, change)
	if err != nil {
		return nil, persistence("change status", err)
	}
	return updated, nil
}

// CheckAndPromoteToActive informa se os quatro documentos estão aprovados e,
// nesse caso, ativa o representante que ainda não esteja ativo ou cancelado.
// Chamadas repetidas não geram nova transição.
func (s *Service) CheckAndPromoteToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		complete, promoted bool
		err                error
	)
	for attempt := 0; attempt < commissionCodeAttempts; attempt++ {
		complete, promoted, err = s.store.PromoteIfComplete(ctx, id, s.newCode())
		if !errors.Is(err, ErrCommissionCodeTaken) {
			break
		}
	}
	if err != nil {
		return false, persistence("promote representative", err)
	}

	if promoted {
		log.Info().Str("representative_id", id.String()).Msg("representante ativado pela aprovação dos documentos")
		s.notify(ctx, notify.Message{
			Title:    "Representante ativado",
			Text:     fmt.Sprintf("Representante %s teve os quatro documentos aprovados.", id),
			Severity: notify.SeverityInfo,
		})
	}
	return complete, nil
}

// ResolveLoginDestination decide a rota após o login, promovendo cadastros
// legados em documents_pending quando os documentos já foram aprovados.
func (s *Service) ResolveLoginDestination(ctx context.Context, rep *Representative) (Destination, error) {
	var checkErr error
	dest := ResolveLoginDestination(rep.Status, func() bool {
		ok, err := s.CheckAndPromoteToActive(ctx, rep.ID)
		checkErr = err
		return ok
	})
	if checkErr != nil {
		return DestinationAccessDenied, checkErr
	}
	return dest, nil
}

// Authenticate confere email e senha do representante.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Representative, error) {
	rep, err := s.store.GetByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistence("authenticate representative", err)
	}
	ok, err := auth.Verify(password, rep.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return rep, nil
}

func (s *Service) transition(ctx context.Context, change StatusChange) (*Representative, error) {
	var (
		updated *Representative
		err     error
	)
	for attempt := 0; attempt < commissionCodeAttempts; attempt++ {
		if change.To == StatusActive {
			change.CommissionCode = s.newCode()
		}
		updated, err = s.store.TransitionStatus(ctx, change)
		if !errors.Is(err, ErrCommissionCodeTaken) {
			break
		}
	}
	return updated, err
}

func (s *Service) notify(ctx context.Context, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Warn().Err(err).Str("title", msg.Title).Msg("falha ao notificar back-office")
	}
}
