package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/finveiculos/painel-representantes/internal/commission"
	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

// Store abstrai a persistência de contratos.
type Store interface {
	Create(ctx context.Context, c Contract) (*Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*Contract, error)
	List(ctx context.Context, filter Filter) ([]Contract, error)
	ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Contract, error)
	Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetFileURL(ctx context.Context, id uuid.UUID, kind FileKind, url string) (*Contract, error)
}

// PlanResolver informa o plano de comissão vinculado ao representante.
type PlanResolver interface {
	CommissionPlanID(ctx context.Context, representativeID uuid.UUID) (*uuid.UUID, error)
}

// RateLookup resolve o percentual de comissão de um plano.
type RateLookup interface {
	Lookup(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// Service reúne as regras de contratos.
type Service struct {
	store  Store
	plans  PlanResolver
	rates  RateLookup
	files  storage.Store
	policy storage.Policy
}

// NewService cria o serviço de contratos.
func NewService(store Store, plans PlanResolver, rates RateLookup, files storage.Store, policy storage.Policy) *Service {
	if files == nil {
		files = storage.NoopStore{}
	}
	return &Service{store: store, plans: plans, rates: rates, files: files, policy: policy}
}

// Create valida o contrato e calcula a comissão a partir do plano do representante.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Contract, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	input.ClientDocument = util.DigitsOnly(input.ClientDocument)
	input.Vehicle = strings.TrimSpace(input.Vehicle)
	input.Status = NormalizeStatus(input.Status)
	if input.Status == "" {
		input.Status = StatusDraft
	}

	fields := util.ValidateStruct(input)
	if !input.FinancedAmount.IsPositive() {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["financed_amount"] = ErrInvalidAmount.Error()
	}
	if fields != nil {
		return nil, &util.ValidationError{Fields: fields}
	}
	if !IsValidStatus(input.Status) {
		return nil, ErrInvalidStatus
	}

	percent, err := s.commissionPercent(ctx, input.RepresentativeID, input.FinancedAmount)
	if err != nil {
		return nil, err
	}

	c := Contract{
		ID:                uuid.New(),
		RepresentativeID:  input.RepresentativeID,
		ClientName:        input.ClientName,
		ClientDocument:    input.ClientDocument,
		Vehicle:           input.Vehicle,
		FinancedAmount:    input.FinancedAmount.Round(2),
		CommissionPercent: percent,
		CommissionAmount:  commission.CommissionAmount(input.FinancedAmount, percent),
		Status:            input.Status,
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return created, nil
}

func (s *Service) commissionPercent(ctx context.Context, owner *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if owner == nil || s.plans == nil || s.rates == nil {
		return decimal.Zero, nil
	}

	planID, err := s.plans.CommissionPlanID(ctx, *owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve commission plan: %w", err)
	}
	if planID == nil {
		return decimal.Zero, nil
	}

	percent, err := s.rates.Lookup(ctx, *planID, amount)
	switch {
	case err == nil:
		return percent, nil
	case errors.Is(err, commission.ErrNoMatchingRange),
		errors.Is(err, commission.ErrPlanInactive),
		errors.Is(err, commission.ErrNotFound):
		log.Warn().Err(err).Str("plan_id", planID.String()).Str("amount", amount.String()).Msg("contrato sem comissão aplicável")
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("commission lookup: %w", err)
	}
}

// Get recupera um contrato.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	return s.store.Get(ctx, id)
}

// List lista contratos dentro do filtro informado.
func (s *Service) List(ctx context.Context, filter Filter) ([]Contract, error) {
	if len(filter.Status) > 0 {
		normalized := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			status = NormalizeStatus(status)
			if IsValidStatus(status) {
				normalized = append(normalized, status)
			}
		}
		filter.Status = normalized
	}
	return s.store.List(ctx, filter)
}

// ListByOwner devolve os contratos do representante.
func (s *Service) ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]Contract, error) {
	return s.store.ListByOwner(ctx, representativeID)
}

// UpdateStatus altera o status do contrato.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Contract, error) {
	status = NormalizeStatus(status)
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// Reassign troca o responsável. owner nulo devolve o contrato à administração.
func (s *Service) Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	return s.store.Reassign(ctx, id, owner)
}

// Delete remove o contrato.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// AttachFile envia documento ou assinatura ao bucket correspondente e grava a URL.
func (s *Service) AttachFile(ctx context.Context, id uuid.UUID, kind FileKind, filename string, body []byte) (*Contract, error) {
	bucket, err := bucketFor(kind)
	if err != nil {
		return nil, err
	}

	ext, err := s.policy.Check(filename, int64(len(body)))
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s-%s%s", id, kind, uuid.NewString(), ext)
	result, err := s.files.Upload(ctx, storage.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        body,
		ContentType: storage.ContentTypeFor(ext),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}

	updated, err := s.store.SetFileURL(ctx, id, kind, result.URL)
	if err != nil {
		if delErr := s.files.Delete(ctx, bucket, result.Key); delErr != nil {
			log.Warn().Err(delErr).Str("key", result.Key).Msg("contrato: falha ao remover arquivo órfão")
		}
		return nil, err
	}
	return updated, nil
}

func bucketFor(kind FileKind) (storage.Bucket, error) {
	switch kind {
	case FileDocument:
		return storage.BucketContractDocuments, nil
	case FileSignature:
		return storage.BucketSignatures, nil
	}
	return "", ErrInvalidFileKind
}
