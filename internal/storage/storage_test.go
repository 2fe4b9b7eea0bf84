package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPolicyCheck(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		filename string
		size     int64
		wantExt  string
		wantErr  error
	}{
		{"pdf", "cartao.PDF", 1024, ".pdf", nil},
		{"jpeg", "rg.jpeg", 1024, ".jpeg", nil},
		{"png", "comprovante.png", 5 << 20, ".png", nil},
		{"too-large", "grande.pdf", 5<<20 + 1, "", ErrFileTooLarge},
		{"unsupported", "planilha.xlsx", 10, "", ErrUnsupportedFormat},
		{"no-extension", "arquivo", 10, "", ErrUnsupportedFormat},
		{"empty", "vazio.pdf", 0, "", ErrEmptyFile},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ext, err := policy.Check(tc.filename, tc.size)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ext != tc.wantExt {
				t.Fatalf("expected %s got %s", tc.wantExt, ext)
			}
		})
	}
}

func TestS3StoreUploadAndDelete(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if !strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256 ") {
			t.Errorf("missing sigv4 authorization header")
		}
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store, err := NewS3Store(S3Config{
		Endpoint:     server.URL,
		Region:       "auto",
		AccessKey:    "key",
		SecretKey:    "secret",
		PublicDomain: "https://arquivos.exemplo.com.br",
		BucketNames:  map[Bucket]string{BucketRepresentativeDocuments: "rep-docs"},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	res, err := store.Upload(context.Background(), UploadInput{
		Bucket:      BucketRepresentativeDocuments,
		Key:         "rep/cnpj_card/1.pdf",
		Body:        []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.ETag != "abc123" {
		t.Fatalf("unexpected etag %q", res.ETag)
	}
	if res.URL != "https://arquivos.exemplo.com.br/rep-docs/rep/cnpj_card/1.pdf" {
		t.Fatalf("unexpected url %q", res.URL)
	}

	if err := store.Delete(context.Background(), BucketRepresentativeDocuments, "rep/cnpj_card/1.pdf"); err != nil {
		t.Fatalf("delete of missing object should succeed: %v", err)
	}

	if len(methods) != 2 || methods[0] != "PUT /rep-docs/rep/cnpj_card/1.pdf" {
		t.Fatalf("unexpected calls %v", methods)
	}
}

func TestS3StoreRejectsUnknownBucket(t *testing.T) {
	store, err := NewS3Store(S3Config{Endpoint: "http://localhost:9000", Region: "auto", AccessKey: "k", SecretKey: "s"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = store.Upload(context.Background(), UploadInput{Bucket: "outros", Key: "a.pdf", Body: []byte("x")})
	if !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("expected ErrUnknownBucket got %v", err)
	}
}

func TestIsConfigured(t *testing.T) {
	if IsConfigured(NoopStore{}) || IsConfigured(nil) {
		t.Fatal("noop store must not count as configured")
	}
	store, _ := NewS3Store(S3Config{Endpoint: "http://localhost:9000", Region: "auto", AccessKey: "k", SecretKey: "s"})
	if !IsConfigured(store) {
		t.Fatal("s3 store must count as configured")
	}
}
