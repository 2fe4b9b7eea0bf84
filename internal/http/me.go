package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finveiculos/painel-representantes/internal/representative"
)

// Me devolve o representante autenticado e o destino atual do login.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	rep, err := h.representatives.GetRepresentative(r.Context(), session.Subject)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar perfil")
		return
	}

	dest, err := h.representatives.ResolveLoginDestination(r.Context(), rep)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar perfil")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"representative": rep,
		"destination":    dest,
		"roles":          session.Roles,
	})
}

// MyDocuments lista os documentos do representante autenticado.
func (h *Handler) MyDocuments(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	docs, err := h.representatives.ListDocuments(r.Context(), session.Subject)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar documentos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// UploadMyDocument recebe o arquivo (campo "file") de um dos quatro tipos.
func (h *Handler) UploadMyDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	// tipo inválido é recusado antes de ler o corpo
	docType, err := representative.ParseDocType(chi.URLParam(r, "type"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	filename, body, err := h.readUpload(w, r)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}

	doc, err := h.representatives.UploadDocument(r.Context(), session.Subject, string(docType), filename, body)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível enviar documento")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"document": doc})
}

// MyContracts lista os contratos do representante autenticado.
func (h *Handler) MyContracts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	contracts, err := h.contracts.ListByOwner(r.Context(), session.Subject)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar contratos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contracts": contracts})
}
