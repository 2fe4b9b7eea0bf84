package storage

import (
	"context"
)

// NoopStore devolve erro indicando que não há backend configurado.
type NoopStore struct{}

// Upload sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, ErrNotConfigured
}

// Delete sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Delete(ctx context.Context, bucket Bucket, key string) error {
	return ErrNotConfigured
}

// IsConfigured informa se o store consegue de fato persistir arquivos.
func IsConfigured(s Store) bool {
	if s == nil {
		return false
	}
	switch s.(type) {
	case NoopStore, *NoopStore:
		return false
	}
	return true
}
