package representative

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

// DocumentReview é o resultado da aprovação de um documento.
type DocumentReview struct {
	Document *Document `json:"document"`
	Complete bool      `json:"complete"`
}

// ListDocuments garante os quatro registros e devolve o estado atual.
func (s *Service) ListDocuments(ctx context.Context, repID uuid.UUID) ([]Document, error) {
	if err := s.store.EnsureDocumentPlaceholders(ctx, repID); err != nil {
		return nil, persistence("ensure documents", err)
	}
	docs, err := s.store.ListDocuments(ctx, repID)
	if err != nil {
		return nil, persistence("list documents", err)
	}
	return docs, nil
}

// UploadDocument envia o arquivo ao bucket de documentos e marca o registro
// como pendente, limpando a rejeição anterior.
func (s *Service) UploadDocument(ctx context.Context, repID uuid.UUID, rawType, filename string, body []byte) (*Document, error) {
	docType, err := ParseDocType(rawType)
	if err != nil {
		return nil, err
	}

	ext, err := s.policy.Check(filename, int64(len(body)))
	if err != nil {
		return nil, err
	}

	rep, err := s.store.Get(ctx, repID)
	if err != nil {
		return nil, persistence("upload document", err)
	}
	if rep.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	key := fmt.Sprintf("%s/%s-%s%s", repID, docType, uuid.NewString(), ext)
	result, err := s.files.Upload(ctx, storage.UploadInput{
		Bucket:      storage.BucketRepresentativeDocuments,
		Key:         key,
		Body:        body,
		ContentType: storage.ContentTypeFor(ext),
	})
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc, previous, err := s.store.UpsertDocument(ctx, repID, docType, result.URL, result.Key)
	if err != nil {
		s.removeBlob(ctx, result.Key)
		return nil, persistence("save document", err)
	}

	if previous != nil && *previous != "" && *previous != result.Key {
		s.removeBlob(ctx, *previous)
	}

	log.Info().
		Str("representative_id", repID.String()).
		Str("doc_type", string(docType)).
		Msg("documento enviado")
	return doc, nil
}

// ApproveDocument aprova o documento e tenta promover o representante. Se a
// promoção falhar, a aprovação permanece e o erro carrega ErrPromotionPending.
func (s *Service) ApproveDocument(ctx context.Context, docID uuid.UUID) (*DocumentReview, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, persistence("approve document", err)
	}
	if doc.FileURL == nil || *doc.FileURL == "" {
		return nil, util.NewValidationError("file", "documento ainda não foi enviado")
	}

	approved, err := s.store.ReviewDocument(ctx, docID, DocApproved, nil)
	if err != nil {
		return nil, persistence("approve document", err)
	}

	complete, err := s.CheckAndPromoteToActive(ctx, approved.RepresentativeID)
	if err != nil {
		log.Error().Err(err).
			Str("representative_id", approved.RepresentativeID.String()).
			Str("document_id", docID.String()).
			Msg("documento aprovado, promoção pendente")
		return &DocumentReview{Document: approved}, fmt.Errorf("%w: %w", ErrPromotionPending, err)
	}

	return &DocumentReview{Document: approved, Complete: complete}, nil
}

// RejectDocument rejeita o documento registrando o motivo.
func (s *Service) RejectDocument(ctx context.Context, docID uuid.UUID, reason string) (*Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, util.NewValidationError("reason", "motivo da rejeição é obrigatório")
	}

	doc, err := s.store.ReviewDocument(ctx, docID, DocRejected, &reason)
	if err != nil {
		return nil, persistence("reject document", err)
	}
	return doc, nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if !storage.IsConfigured(s.files) {
		return
	}
	if err := s.files.Delete(ctx, storage.BucketRepresentativeDocuments, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("falha ao remover arquivo de documento")
	}
}
