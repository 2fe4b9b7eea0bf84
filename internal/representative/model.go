package representative

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status é o estado do cadastro do representante.
type Status string

const (
	StatusPendingApproval  Status = "pending_approval"
	StatusDocumentsPending Status = "documents_pending"
	StatusActive           Status = "active"
	StatusInactive         Status = "inactive"
	StatusPaused           Status = "paused"
	StatusCancelled        Status = "cancelled"
)

// ParseStatus normaliza e valida o status informado.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPendingApproval, StatusDocumentsPending, StatusActive, StatusInactive, StatusPaused, StatusCancelled:
		return s, true
	}
	return s, false
}

// DocType é um dos quatro documentos exigidos.
type DocType string

const (
	DocCNPJCard            DocType = "cnpj_card"
	DocAddressProof        DocType = "address_proof"
	DocCriminalCertificate DocType = "criminal_certificate"
	DocCivilCertificate    DocType = "civil_certificate"
)

// RequiredDocTypes lista os documentos exigidos para ativação.
func RequiredDocTypes() []DocType {
	return []DocType{DocCNPJCard, DocAddressProof, DocCriminalCertificate, DocCivilCertificate}
}

// ParseDocType valida o tipo de documento.
func ParseDocType(raw string) (DocType, error) {
	t := DocType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range RequiredDocTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", ErrInvalidDocumentType
}

// DocStatus é o estado de revisão de um documento.
type DocStatus string

const (
	DocPending  DocStatus = "pending"
	DocApproved DocStatus = "approved"
	DocRejected DocStatus = "rejected"
)

// Destination indica para onde o login do representante deve seguir.
type Destination string

const (
	DestinationStatusPage     Destination = "status_page"
	DestinationAccessDenied   Destination = "access_denied"
	DestinationDocumentUpload Destination = "document_upload"
	DestinationDashboard      Destination = "dashboard"
)

// Representative é o agente de vendas cadastrado.
type Representative struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	CNPJ             string           `json:"cnpj"`
	CompanyName      string           `json:"company_name"`
	PointOfSale      string           `json:"point_of_sale"`
	PasswordHash     string           `json:"-"`
	Status           Status           `json:"status"`
	RejectionReason  *string          `json:"rejection_reason,omitempty"`
	CommissionCode   *string          `json:"commission_code,omitempty"`
	CommissionPlanID *uuid.UUID       `json:"commission_plan_id,omitempty"`
	ContractsCount   *int             `json:"contracts_count,omitempty"`
	TotalSales       *decimal.Decimal `json:"total_sales,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Document é o registro atual de um documento exigido.
type Document struct {
	ID               uuid.UUID  `json:"id"`
	RepresentativeID uuid.UUID  `json:"representative_id"`
	Type             DocType    `json:"doc_type"`
	Status           DocStatus  `json:"status"`
	FileURL          *string    `json:"file_url,omitempty"`
	FileKey          *string    `json:"-"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	UploadedAt       *time.Time `json:"uploaded_at,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// RegisterInput agrupa os campos do autocadastro público.
type RegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	CNPJ            string `json:"cnpj" validate:"required,cnpj"`
	CompanyName     string `json:"companyName" validate:"required"`
	PointOfSale     string `json:"pointOfSale" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// CreateInput é o cadastro feito pela administração. Sem senha, uma senha
// temporária é gerada e devolvida.
type CreateInput struct {
	Name             string     `json:"name" validate:"required"`
	Email            string     `json:"email" validate:"required,email"`
	Phone            string     `json:"phone"`
	CNPJ             string     `json:"cnpj" validate:"required,cnpj"`
	CompanyName      string     `json:"companyName" validate:"required"`
	PointOfSale      string     `json:"pointOfSale" validate:"required"`
	Password         string     `json:"password" validate:"omitempty,min=6"`
	Status           string     `json:"status"`
	CommissionPlanID *uuid.UUID `json:"commissionPlanId"`
}

// ProfilePatch altera apenas os campos informados.
type ProfilePatch struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	CNPJ        *string `json:"cnpj" validate:"omitempty,cnpj"`
	CompanyName *string `json:"companyName"`
	PointOfSale *string `json:"pointOfSale"`
}

// Empty indica patch sem campos.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.CNPJ == nil && p.CompanyName == nil && p.PointOfSale == nil
}

// ListFilter restringe a listagem administrativa.
type ListFilter struct {
	Status []Status
	Search string
	Limit  int
	Offset int
}

// StatusChange descreve uma troca de status condicionada ao status anterior.
type StatusChange struct {
	ID              uuid.UUID
	From            Status
	To              Status
	RejectionReason *string
	CommissionCode  string
}

// TransferDestination aponta o novo responsável pelos contratos.
// RepresentativeID nulo devolve os contratos à administração.
type TransferDestination struct {
	RepresentativeID *uuid.UUID `json:"representativeId"`
}

// IsAdmin indica transferência para a administração.
func (d TransferDestination) IsAdmin() bool {
	return d.RepresentativeID == nil
}

// TransferResult resume uma transferência concluída.
type TransferResult struct {
	Transferred []uuid.UUID         `json:"transferred"`
	Destination TransferDestination `json:"destination"`
}
