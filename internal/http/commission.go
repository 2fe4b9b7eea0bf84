package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finveiculos/painel-representantes/internal/commission"
)

// ListCommissionPlans lista os planos cadastrados.
func (h *Handler) ListCommissionPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.commission.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar planos")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// CreateCommissionPlan cria plano ativo sem faixas.
func (h *Handler) CreateCommissionPlan(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	plan, err := h.commission.CreatePlan(r.Context(), payload.Name)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível criar plano")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"plan": plan})
}

// GetCommissionPlan devolve o plano com as faixas.
func (h *Handler) GetCommissionPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	plan, err := h.commission.GetPlan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar plano")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// UpdateCommissionPlan renomeia ou ativa/desativa o plano.
func (h *Handler) UpdateCommissionPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name   string `json:"name"`
		Active *bool  `json:"active"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if payload.Active == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "active é obrigatório", map[string]string{"active": "campo obrigatório"})
		return
	}

	plan, err := h.commission.UpdatePlan(r.Context(), commission.UpdatePlanInput{ID: id, Name: payload.Name, Active: *payload.Active})
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atualizar plano")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// DeleteCommissionPlan remove o plano; representantes vinculados ficam sem plano.
func (h *Handler) DeleteCommissionPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.commission.DeletePlan(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "não foi possível excluir plano")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCommissionRanges substitui todas as faixas do plano.
func (h *Handler) SetCommissionRanges(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Ranges []commission.CreditRange `json:"ranges"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	ranges, err := h.commission.SetRanges(r.Context(), id, payload.Ranges)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível salvar faixas")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ranges": ranges})
}

// LookupCommission simula o percentual para um valor financiado (?amount=).
func (h *Handler) LookupCommission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("amount")))
	if err != nil || amount.IsNegative() {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "amount inválido", map[string]string{"amount": "informe um valor numérico"})
		return
	}

	percent, err := h.commission.Lookup(r.Context(), id, amount)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível calcular comissão")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"amount":            amount,
		"percent":           percent,
		"commission_amount": commission.CommissionAmount(amount, percent),
	})
}
