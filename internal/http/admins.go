package http

import (
	"net/http"
)

// ListAdmins lista os administradores do painel.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar administradores")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"administrators": admins})
}

// CreateAdmin cadastra outro administrador.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	adm, err := h.admins.CreateAdmin(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível cadastrar administrador")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"administrator": adm})
}
