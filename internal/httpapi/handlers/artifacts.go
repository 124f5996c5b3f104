package handlers

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"reelstudio/internal/pkg/errors"
)

// Artifact streams a stored object for providers whose public URLs point
// back at the API. Seekable objects get range support.
func (h *Handler) Artifact(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "*")
	if key == "" || strings.HasSuffix(key, "/") {
		return errors.NotFound("object", key)
	}

	rc, contentType, size, err := h.sp.GetObject(r.Context(), key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), time.Time{}, rs)
		return nil
	}

	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(r.Context()).Warn("artifact stream interrupted", "key", key, "error", err.Error())
	}
	return nil
}
