package http

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/rbac"
	"github.com/sovereign-school/interactive-core/internal/storage"
)

// MountSources serves uploaded source texts and their parsed segments.
func MountSources(r chi.Router, bs storage.BlobStore, p *content.Parser, log *logger.Logger) {
	// POST /sources   multipart "file" or a raw text body
	r.With(rbac.Require(rbac.PermSourceUpload)).Post("/", func(w http.ResponseWriter, r *http.Request) {
		var body io.Reader
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			body = io.LimitReader(f, maxBody)
		} else {
			b, ok := readBody(w, r)
			if !ok {
				return
			}
			if len(bytes.TrimSpace(b)) == 0 {
				http.Error(w, "empty source", http.StatusBadRequest)
				return
			}
			body = bytes.NewReader(b)
		}
		id := uuid.NewString()
		if _, err := bs.Put(r.Context(), sourcePath(id), body); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": id})
	})

	// GET /sources/{key}   raw text
	r.With(rbac.Require(rbac.PermSourceView)).Get("/{key}", func(w http.ResponseWriter, r *http.Request) {
		rc, err := openSource(r, bs)
		if err != nil {
			writeError(w, log, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	})

	// DELETE /sources/{key}
	r.With(rbac.Require(rbac.PermSourceUpload)).Delete("/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if _, err := uuid.Parse(key); err != nil {
			writeError(w, log, storage.ErrNotFound)
			return
		}
		if err := bs.Delete(r.Context(), sourcePath(key)); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// GET /sources/{key}/segments
	r.With(rbac.Require(rbac.PermContentParse)).Get("/{key}/segments", func(w http.ResponseWriter, r *http.Request) {
		rc, err := openSource(r, bs)
		if err != nil {
			writeError(w, log, err)
			return
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, maxBody))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, segmentsFor(r, p.Parse(string(b))))
	})
}

func openSource(r *http.Request, bs storage.BlobStore) (io.ReadCloser, error) {
	key := chi.URLParam(r, "key")
	if _, err := uuid.Parse(key); err != nil {
		return nil, storage.ErrNotFound
	}
	return bs.Get(r.Context(), sourcePath(key))
}

func sourcePath(key string) string { return "sources/" + key + ".txt" }
