package representative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/notify"
	"github.com/finveiculos/painel-representantes/internal/util"
)

// DeleteRepresentative exclui o representante sem contratos após confirmar a
// senha do administrador. Com contratos, devolve *HasActiveContractsError.
func (s *Service) DeleteRepresentative(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string) error {
	if err := s.reauthenticate(ctx, session, adminPassword); err != nil {
		return err
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return persistence("delete representative", err)
	}

	owned, err := s.contracts.ListByOwner(ctx, id)
	if err != nil {
		return persistence("list contracts", err)
	}
	if len(owned) > 0 {
		return &HasActiveContractsError{Contracts: owned}
	}

	return s.remove(ctx, session, id)
}

// TransferContracts move todos os contratos para o destino e só então exclui
// o representante. Qualquer falha interrompe antes da exclusão.
func (s *Service) TransferContracts(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string, dest TransferDestination) (*TransferResult, error) {
	if err := s.reauthenticate(ctx, session, adminPassword); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, persistence("transfer contracts", err)
	}
	if err := s.checkDestination(ctx, id, dest); err != nil {
		return nil, err
	}

	owned, err := s.contracts.ListByOwner(ctx, id)
	if err != nil {
		return nil, persistence("list contracts", err)
	}

	moved := make([]uuid.UUID, 0, len(owned))
	for i, c := range owned {
		if err := s.contracts.Reassign(ctx, c.ID, dest.RepresentativeID); err != nil {
			pending := make([]uuid.UUID, 0, len(owned)-i)
			for _, rest := range owned[i:] {
				pending = append(pending, rest.ID)
			}
			log.Error().Err(err).
				Str("representative_id", id.String()).
				Int("reassigned", len(moved)).
				Int("pending", len(pending)).
				Msg("transferência de contratos interrompida")
			s.notify(ctx, notify.Message{
				Title:    "Transferência de contratos incompleta",
				Text:     fmt.Sprintf("Representante %s: %d contrato(s) transferido(s), %d pendente(s). Exclusão não realizada.", id, len(moved), len(pending)),
				Severity: notify.SeverityCritical,
			})
			return nil, &TransferError{Reassigned: moved, Pending: pending, Err: err}
		}
		moved = append(moved, c.ID)
	}

	if err := s.remove(ctx, session, id); err != nil {
		return nil, err
	}

	log.Info().
		Str("representative_id", id.String()).
		Int("contracts", len(moved)).
		Bool("to_admin", dest.IsAdmin()).
		Msg("contratos transferidos e representante excluído")
	return &TransferResult{Transferred: moved, Destination: dest}, nil
}

func (s *Service) checkDestination(ctx context.Context, source uuid.UUID, dest TransferDestination) error {
	if dest.IsAdmin() {
		return nil
	}
	target := *dest.RepresentativeID
	if target == source {
		return util.NewValidationError("representativeId", "destino deve ser diferente do representante excluído")
	}

	rep, err := s.store.Get(ctx, target)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return util.NewValidationError("representativeId", "representante de destino não encontrado")
		}
		return persistence("check destination", err)
	}
	if rep.Status == StatusCancelled {
		return util.NewValidationError("representativeId", "representante de destino está cancelado")
	}
	return nil
}

func (s *Service) remove(ctx context.Context, session auth.Session, id uuid.UUID) error {
	docs, err := s.store.ListDocuments(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("representative_id", id.String()).Msg("não foi possível listar documentos para limpeza")
		docs = nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		var blocked *HasActiveContractsError
		if errors.As(err, &blocked) {
			owned, listErr := s.contracts.ListByOwner(ctx, id)
			if listErr == nil {
				blocked.Contracts = owned
			}
			return blocked
		}
		return persistence("delete representative", err)
	}

	for _, doc := range docs {
		if doc.FileKey != nil && *doc.FileKey != "" {
			s.removeBlob(ctx, *doc.FileKey)
		}
	}

	log.Info().
		Str("representative_id", id.String()).
		Str("admin_id", session.Subject.String()).
		Msg("representante excluído")
	return nil
}

func (s *Service) reauthenticate(ctx context.Context, session auth.Session, password string) error {
	if !session.IsAdmin() || s.admins == nil || strings.TrimSpace(password) == "" {
		return ErrAuthentication
	}
	ok, err := s.admins.VerifyAdminPassword(ctx, session.Subject, password)
	if err != nil {
		return persistence("verify admin password", err)
	}
	if !ok {
		log.Warn().Str("admin_id", session.Subject.String()).Msg("reautenticação de administrador falhou")
		return ErrAuthentication
	}
	return nil
}
