package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Bucket identifica um dos buckets lógicos da aplicação.
type Bucket string

const (
	BucketContractDocuments       Bucket = "contract-documents"
	BucketSignatures              Bucket = "signatures"
	BucketRepresentativeDocuments Bucket = "representative-documents"
)

var (
	ErrUnknownBucket     = errors.New("storage: bucket desconhecido")
	ErrNotConfigured     = errors.New("storage: armazenamento não configurado")
	ErrFileTooLarge      = errors.New("arquivo excede o tamanho máximo permitido")
	ErrUnsupportedFormat = errors.New("formato de arquivo não suportado")
	ErrEmptyFile         = errors.New("arquivo vazio")
)

// Buckets lista os buckets conhecidos.
func Buckets() []Bucket {
	return []Bucket{BucketContractDocuments, BucketSignatures, BucketRepresentativeDocuments}
}

// Valid indica se o bucket faz parte do conjunto fixo.
func (b Bucket) Valid() bool {
	for _, known := range Buckets() {
		if b == known {
			return true
		}
	}
	return false
}

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Bucket       Bucket
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	Key  string
	ETag string
}

// Store define comportamento básico para armazenar e remover blobs.
type Store interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, bucket Bucket, key string) error
}

// Policy restringe tamanho e extensão dos arquivos aceitos.
type Policy struct {
	MaxBytes   int64
	Extensions []string
}

// DefaultPolicy aceita pdf/jpg/jpeg/png até 5MB.
func DefaultPolicy() Policy {
	return Policy{MaxBytes: 5 << 20, Extensions: []string{".pdf", ".jpg", ".jpeg", ".png"}}
}

// Check valida nome e tamanho do arquivo, devolvendo a extensão normalizada.
func (p Policy) Check(filename string, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, p.MaxBytes)
	}

	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	for _, allowed := range p.Extensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if ext == allowed {
			return ext, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// ContentTypeFor devolve o content-type associado às extensões aceitas.
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
