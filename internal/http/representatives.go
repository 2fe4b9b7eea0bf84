package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/representative"
)

// RegisterRepresentative recebe o cadastro público; o representante nasce
// aguardando aprovação.
func (h *Handler) RegisterRepresentative(w http.ResponseWriter, r *http.Request) {
	var payload representative.RegisterInput
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, err := h.representatives.RegisterPublic(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível concluir o cadastro")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"representative": rep})
}

// ListRepresentatives lista representantes com filtros de status e busca.
func (h *Handler) ListRepresentatives(w http.ResponseWriter, r *http.Request) {
	var filter representative.ListFilter

	for _, raw := range splitQuery(r.URL.Query().Get("status")) {
		status, ok := representative.ParseStatus(raw)
		if !ok {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "status inválido", map[string]string{"status": raw})
			return
		}
		filter.Status = append(filter.Status, status)
	}
	filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))
	filter.Limit, filter.Offset = parsePagination(r)

	reps, err := h.representatives.ListRepresentatives(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar representantes")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representatives": reps})
}

// CreateRepresentative cadastra pela administração. A senha temporária só é
// devolvida quando gerada pelo sistema.
func (h *Handler) CreateRepresentative(w http.ResponseWriter, r *http.Request) {
	var payload representative.CreateInput
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, tempPassword, err := h.representatives.CreateRepresentative(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível cadastrar representante")
		return
	}

	body := map[string]any{"representative": rep}
	if tempPassword != "" {
		body["temporary_password"] = tempPassword
	}
	WriteJSON(w, http.StatusCreated, body)
}

// GetRepresentative devolve o representante com totais de contratos.
func (h *Handler) GetRepresentative(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rep, err := h.representatives.GetRepresentative(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar representante")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

// UpdateRepresentative aplica alterações parciais de cadastro.
func (h *Handler) UpdateRepresentative(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var patch representative.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, err := h.representatives.UpdateProfile(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atualizar representante")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

type adminPasswordPayload struct {
	AdminPassword string `json:"adminPassword"`
}

// DeleteRepresentative exclui após confirmar a senha do administrador. Com
// contratos vinculados responde 409 listando-os para a transferência.
func (h *Handler) DeleteRepresentative(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload adminPasswordPayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.representatives.DeleteRepresentative(r.Context(), session, id, payload.AdminPassword); err != nil {
		writeServiceError(w, r, err, "não foi possível excluir representante")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TransferContracts move os contratos para outro representante ou para a
// administração e exclui o representante de origem.
func (h *Handler) TransferContracts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload struct {
		adminPasswordPayload
		representative.TransferDestination
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	result, err := h.representatives.TransferContracts(r.Context(), session, id, payload.AdminPassword, payload.TransferDestination)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível transferir contratos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"transfer": result})
}

// ApproveRegistration ativa o representante independentemente dos documentos.
func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rep, err := h.representatives.ApproveRegistration(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível aprovar cadastro")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

// RejectRegistration cancela o cadastro registrando o motivo.
func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload reasonPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, err := h.representatives.RejectRegistration(r.Context(), id, payload.Reason)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível rejeitar cadastro")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

// ChangeRepresentativeStatus aplica transições administrativas.
func (h *Handler) ChangeRepresentativeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, err := h.representatives.ChangeStatus(r.Context(), id, representative.Status(payload.Status), payload.Reason)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível alterar status")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

// ResetRepresentativePassword gera nova senha temporária.
func (h *Handler) ResetRepresentativePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	password, err := h.representatives.ResetPassword(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível redefinir senha")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"temporary_password": password})
}

// AssignCommissionPlan vincula ou remove o plano de comissão.
func (h *Handler) AssignCommissionPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		CommissionPlanID *uuid.UUID `json:"commissionPlanId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rep, err := h.representatives.AssignCommissionPlan(r.Context(), id, payload.CommissionPlanID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível vincular plano")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"representative": rep})
}

// PromoteRepresentative repete a verificação de documentos e a ativação.
func (h *Handler) PromoteRepresentative(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	complete, err := h.representatives.CheckAndPromoteToActive(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível verificar documentos")
		return
	}

	rep, err := h.representatives.GetRepresentative(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar representante")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"complete": complete, "representative": rep})
}

// ListRepresentativeDocuments devolve os quatro documentos do representante.
func (h *Handler) ListRepresentativeDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	docs, err := h.representatives.ListDocuments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar documentos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// ListRepresentativeContracts lista os contratos do representante.
func (h *Handler) ListRepresentativeContracts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	contracts, err := h.contracts.ListByOwner(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar contratos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contracts": contracts})
}

// ApproveDocument aprova o documento e tenta ativar o representante. Se a
// ativação falhar a aprovação permanece e a resposta pede nova tentativa.
func (h *Handler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	review, err := h.representatives.ApproveDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, representative.ErrPromotionPending) && review != nil {
			log.Error().Err(err).Str("document_id", id.String()).Msg("aprovação sem promoção")
			WriteError(w, http.StatusInternalServerError, "PROMOTION_PENDING", representative.ErrPromotionPending.Error(), map[string]any{
				"document": review.Document,
			})
			return
		}
		writeServiceError(w, r, err, "não foi possível aprovar documento")
		return
	}

	WriteJSON(w, http.StatusOK, review)
}

// RejectDocument rejeita o documento com motivo obrigatório.
func (h *Handler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload reasonPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	doc, err := h.representatives.RejectDocument(r.Context(), id, payload.Reason)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível rejeitar documento")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}
