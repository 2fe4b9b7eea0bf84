package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/commission"
	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/representative"
	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

// writeServiceError traduz erros de domínio para o envelope HTTP. Causas
// internas vão para o log e a resposta leva apenas fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validation *util.ValidationError
	if errors.As(err, &validation) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", validation.Fields)
		return
	}

	var hasContracts *representative.HasActiveContractsError
	if errors.As(err, &hasContracts) {
		WriteError(w, http.StatusConflict, "HAS_CONTRACTS", hasContracts.Error(), map[string]any{"contracts": hasContracts.Contracts})
		return
	}

	var transfer *representative.TransferError
	if errors.As(err, &transfer) {
		log.Error().Err(transfer.Err).Str("path", r.URL.Path).
			Int("reassigned", len(transfer.Reassigned)).Int("pending", len(transfer.Pending)).
			Msg("transferência de contratos incompleta")
		WriteError(w, http.StatusInternalServerError, "TRANSFER_INCOMPLETE", "transferência incompleta; o representante não foi excluído", map[string]any{
			"reassigned": transfer.Reassigned,
			"pending":    transfer.Pending,
		})
		return
	}

	switch {
	case errors.Is(err, representative.ErrNotFound),
		errors.Is(err, representative.ErrDocumentNotFound),
		errors.Is(err, representative.ErrPlanNotFound),
		errors.Is(err, contract.ErrNotFound),
		errors.Is(err, commission.ErrNotFound),
		errors.Is(err, admin.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", rootMessage(err), nil)
	case errors.Is(err, representative.ErrDuplicateEmail),
		errors.Is(err, admin.ErrDuplicateEmail),
		errors.Is(err, representative.ErrStatusConflict),
		errors.Is(err, representative.ErrCommissionCodeTaken),
		errors.Is(err, commission.ErrPlanInactive):
		WriteError(w, http.StatusConflict, "CONFLICT", rootMessage(err), nil)
	case errors.Is(err, representative.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "INVALID_TRANSITION", rootMessage(err), nil)
	case errors.Is(err, representative.ErrAuthentication),
		errors.Is(err, representative.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", rootMessage(err), nil)
	case errors.Is(err, storage.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", storage.ErrFileTooLarge.Error(), nil)
	case errors.Is(err, storage.ErrUnsupportedFormat):
		WriteError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", storage.ErrUnsupportedFormat.Error(), nil)
	case errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, representative.ErrInvalidDocumentType),
		errors.Is(err, contract.ErrInvalidStatus),
		errors.Is(err, contract.ErrInvalidFileKind),
		errors.Is(err, contract.ErrInvalidAmount),
		errors.Is(err, contract.ErrOwnerNotFound),
		errors.Is(err, commission.ErrInvalidName),
		errors.Is(err, commission.ErrInvalidRange),
		errors.Is(err, commission.ErrOverlappingRanges):
		WriteError(w, http.StatusBadRequest, "VALIDATION", rootMessage(err), nil)
	case errors.Is(err, commission.ErrNoMatchingRange):
		WriteError(w, http.StatusUnprocessableEntity, "NO_MATCHING_RANGE", commission.ErrNoMatchingRange.Error(), nil)
	case errors.Is(err, storage.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "armazenamento indisponível", nil)
	default:
		var persistence *representative.PersistenceError
		if errors.As(err, &persistence) {
			log.Error().Err(err).Str("op", persistence.Op).Str("path", r.URL.Path).Msg("falha de persistência")
			WriteError(w, http.StatusServiceUnavailable, "INTERNAL", fallback, nil)
			return
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		WriteError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}

// rootMessage devolve a mensagem do erro de domínio sem o contexto técnico
// acrescentado pelos wraps.
func rootMessage(err error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

var knownErrors = []error{
	representative.ErrNotFound,
	representative.ErrDocumentNotFound,
	representative.ErrPlanNotFound,
	representative.ErrDuplicateEmail,
	representative.ErrStatusConflict,
	representative.ErrCommissionCodeTaken,
	representative.ErrInvalidTransition,
	representative.ErrAuthentication,
	representative.ErrInvalidCredentials,
	representative.ErrInvalidDocumentType,
	contract.ErrNotFound,
	contract.ErrInvalidStatus,
	contract.ErrInvalidFileKind,
	contract.ErrInvalidAmount,
	contract.ErrOwnerNotFound,
	commission.ErrNotFound,
	commission.ErrPlanInactive,
	commission.ErrInvalidName,
	admin.ErrNotFound,
	admin.ErrDuplicateEmail,
	storage.ErrEmptyFile,
}
