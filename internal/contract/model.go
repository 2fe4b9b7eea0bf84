package contract

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("contrato não encontrado")
	ErrInvalidStatus   = errors.New("status de contrato inválido")
	ErrInvalidFileKind = errors.New("tipo de arquivo de contrato inválido")
	ErrInvalidAmount   = errors.New("valor financiado deve ser maior que zero")
	ErrOwnerNotFound   = errors.New("representante responsável não encontrado")
)

const (
	StatusDraft       = "draft"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusPaid        = "paid"
	StatusCancelled   = "cancelled"
)

var validStatuses = map[string]struct{}{
	StatusDraft:       {},
	StatusUnderReview: {},
	StatusApproved:    {},
	StatusRejected:    {},
	StatusPaid:        {},
	StatusCancelled:   {},
}

// FileKind indica qual arquivo do contrato está sendo anexado.
type FileKind string

const (
	FileDocument  FileKind = "document"
	FileSignature FileKind = "signature"
)

// Contract representa um financiamento intermediado.
// RepresentativeID nulo indica contrato sob responsabilidade da administração.
type Contract struct {
	ID                uuid.UUID       `json:"id"`
	RepresentativeID  *uuid.UUID      `json:"representative_id"`
	ClientName        string          `json:"client_name"`
	ClientDocument    string          `json:"client_document"`
	Vehicle           string          `json:"vehicle"`
	FinancedAmount    decimal.Decimal `json:"financed_amount"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	Status            string          `json:"status"`
	DocumentURL       *string         `json:"document_url,omitempty"`
	SignatureURL      *string         `json:"signature_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CreateInput agrupa os campos aceitos na criação.
type CreateInput struct {
	RepresentativeID *uuid.UUID      `json:"representative_id"`
	ClientName       string          `json:"client_name" validate:"required"`
	ClientDocument   string          `json:"client_document" validate:"required"`
	Vehicle          string          `json:"vehicle"`
	FinancedAmount   decimal.Decimal `json:"financed_amount"`
	Status           string          `json:"status"`
}

// Filter restringe a listagem de contratos.
type Filter struct {
	RepresentativeID *uuid.UUID
	AdminOwned       bool
	Status           []string
	Limit            int
	Offset           int
}

// NormalizeStatus padroniza o status informado.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsValidStatus indica se o status é reconhecido.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[status]
	return ok
}

// ParseFileKind converte o segmento da rota em FileKind.
func ParseFileKind(raw string) (FileKind, error) {
	switch FileKind(strings.ToLower(strings.TrimSpace(raw))) {
	case FileDocument:
		return FileDocument, nil
	case FileSignature:
		return FileSignature, nil
	}
	return "", ErrInvalidFileKind
}
