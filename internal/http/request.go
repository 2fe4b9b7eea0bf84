package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/auth"
	httpmiddleware "github.com/finveiculos/painel-representantes/internal/http/middleware"
	"github.com/finveiculos/painel-representantes/internal/storage"
)

// multipartOverhead cobre cabeçalhos e campos do formulário além do arquivo.
const multipartOverhead = 1 << 20

var errMissingFile = errors.New("arquivo ausente")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return uuid.Nil, errors.New("empty")
	}
	return uuid.Parse(value)
}

func parsePagination(r *http.Request) (int, int) {
	var limit, offset int
	if v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit"))); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("offset"))); err == nil {
		offset = v
	}
	return limit, offset
}

func splitQuery(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sessionFrom(r *http.Request) (auth.Session, bool) {
	return httpmiddleware.GetSession(r.Context())
}

// readUpload lê o campo "file" de um formulário multipart. O arquivo é lido
// até um byte além do limite para que a política acuse ErrFileTooLarge.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.cfg.Upload.MaxBytes
	if limit <= 0 {
		limit = storage.DefaultPolicy().MaxBytes
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, storage.ErrFileTooLarge
		}
		return "", nil, fmt.Errorf("formulário inválido: %w", err)
	}

	header, err := getFirstFile(r.MultipartForm, "file")
	if err != nil {
		return "", nil, err
	}

	data, err := readMultipartFile(header, limit+1)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

func getFirstFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errMissingFile
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, errMissingFile
	}
	return files[0], nil
}

func readMultipartFile(header *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir arquivo: %w", err)
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(file, limit)); err != nil {
		return nil, fmt.Errorf("falha ao ler arquivo: %w", err)
	}
	return buf.Bytes(), nil
}

// writeUploadError separa falhas de leitura do formulário das regras de arquivo.
func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrFileTooLarge) {
		writeServiceError(w, r, err, "")
		return
	}
	WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), map[string]string{"file": err.Error()})
}
