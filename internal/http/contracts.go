package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/contract"
)

// ListContracts lista contratos por responsável e status. owner=admin
// restringe aos contratos da administração.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	var filter contract.Filter

	switch owner := strings.TrimSpace(r.URL.Query().Get("owner")); owner {
	case "":
	case "admin":
		filter.AdminOwned = true
	default:
		id, err := uuid.Parse(owner)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "owner inválido", nil)
			return
		}
		filter.RepresentativeID = &id
	}

	filter.Status = splitQuery(r.URL.Query().Get("status"))
	filter.Limit, filter.Offset = parsePagination(r)

	contracts, err := h.contracts.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar contratos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contracts": contracts})
}

// CreateContract registra o contrato calculando a comissão do responsável.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var payload contract.CreateInput
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	c, err := h.contracts.Create(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível criar contrato")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"contract": c})
}

// GetContract devolve um contrato.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	c, err := h.contracts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar contrato")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contract": c})
}

// DeleteContract remove o contrato.
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.contracts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "não foi possível excluir contrato")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateContractStatus altera o status do contrato.
func (h *Handler) UpdateContractStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	c, err := h.contracts.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível alterar status")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contract": c})
}

// ReassignContract troca o responsável de um contrato isolado;
// representativeId nulo devolve o contrato à administração.
func (h *Handler) ReassignContract(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		RepresentativeID *uuid.UUID `json:"representativeId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.contracts.Reassign(r.Context(), id, payload.RepresentativeID); err != nil {
		writeServiceError(w, r, err, "não foi possível transferir contrato")
		return
	}

	c, err := h.contracts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar contrato")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contract": c})
}

// AttachContractFile anexa o documento ou a assinatura do contrato.
func (h *Handler) AttachContractFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	kind, err := contract.ParseFileKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	filename, body, err := h.readUpload(w, r)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}

	c, err := h.contracts.AttachFile(r.Context(), id, kind, filename, body)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível anexar arquivo")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contract": c})
}
