package representative

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

var (
	ErrNotFound            = errors.New("representante não encontrado")
	ErrDocumentNotFound    = errors.New("documento não encontrado")
	ErrDuplicateEmail      = errors.New("email já cadastrado")
	ErrAuthentication      = errors.New("senha de administrador inválida")
	ErrInvalidCredentials  = errors.New("credenciais inválidas")
	ErrInvalidDocumentType = errors.New("tipo de documento inválido")
	ErrInvalidTransition   = errors.New("transição de status não permitida")
	ErrStatusConflict      = errors.New("status alterado por outra operação")
	ErrPromotionPending    = errors.New("documento aprovado, mas a ativação do representante falhou; tente promover novamente")
	ErrCommissionCodeTaken = errors.New("código de comissão já utilizado")
	ErrPlanNotFound        = errors.New("plano de comissão não encontrado")

	ErrFileTooLarge      = storage.ErrFileTooLarge
	ErrUnsupportedFormat = storage.ErrUnsupportedFormat
)

// ValidationError carrega as mensagens por campo.
type ValidationError = util.ValidationError

// HasActiveContractsError bloqueia a exclusão enquanto houver contratos vinculados.
type HasActiveContractsError struct {
	Contracts []contract.Contract
}

func (e *HasActiveContractsError) Error() string {
	return fmt.Sprintf("representante possui %d contrato(s); transfira antes de excluir", len(e.Contracts))
}

// TransferError informa uma transferência interrompida. O representante não é
// excluído e os contratos ficam divididos entre Reassigned e Pending.
type TransferError struct {
	Reassigned []uuid.UUID
	Pending    []uuid.UUID
	Err        error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transferência incompleta: %d transferido(s), %d pendente(s): %v", len(e.Reassigned), len(e.Pending), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// PersistenceError embrulha falhas do banco ou da rede.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "falha de persistência em " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

var domainErrors = []error{
	ErrNotFound,
	ErrDocumentNotFound,
	ErrDuplicateEmail,
	ErrAuthentication,
	ErrInvalidCredentials,
	ErrInvalidDocumentType,
	ErrInvalidTransition,
	ErrStatusConflict,
	ErrCommissionCodeTaken,
	ErrPlanNotFound,
}

// persistence mantém erros de domínio e embrulha o restante em *PersistenceError.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	var hasContracts *HasActiveContractsError
	if errors.As(err, &hasContracts) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
