package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/representative"
)

// DestinationResolver devolve o destino atual do representante.
type DestinationResolver func(ctx context.Context, id uuid.UUID) (representative.Destination, error)

// RepresentativeAccess bloqueia representantes cujo status mudou depois da
// emissão do token. Sem destinos informados aceita qualquer um diferente de
// access_denied.
func RepresentativeAccess(resolve DestinationResolver, allowed ...representative.Destination) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSession(r.Context())
			if !ok || !session.IsRepresentative() {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a representantes")
				return
			}

			dest, err := resolve(r.Context(), session.Subject)
			if err != nil {
				if errors.Is(err, representative.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "AUTH", "representante não encontrado")
					return
				}
				log.Error().Err(err).Str("representative_id", session.Subject.String()).Msg("gate representante: falha ao resolver status")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível validar acesso")
				return
			}

			if dest == representative.DestinationAccessDenied || !destinationAllowed(dest, allowed) {
				writeError(w, http.StatusForbidden, "ACCESS_DENIED", "acesso não liberado para o status atual")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func destinationAllowed(dest representative.Destination, allowed []representative.Destination) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == dest {
			return true
		}
	}
	return false
}
