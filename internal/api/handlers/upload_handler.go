package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/metrics"
	"github.com/cleancity/cleancity-be/internal/storage"
	"github.com/cleancity/cleancity-be/internal/trace"
)

// UploadHandler handles image upload and download against the blob store.
type UploadHandler struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(store storage.Store, m *metrics.Metrics) *UploadHandler {
	return &UploadHandler{store: store, metrics: m}
}

// Upload accepts a multipart "image" field and streams it into the blob
// store. The multipart body is consumed part by part so the payload is
// never held in memory as a whole.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed reading multipart body")
			respondError(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}
		if part.FormName() != "image" {
			part.Close()
			continue
		}

		contentType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		blob, err := h.store.Put(r.Context(), part, contentType)
		part.Close()
		if err != nil {
			switch {
			case errors.Is(err, errs.ErrUnsupportedMedia):
				respondError(w, http.StatusBadRequest, "Only image files are allowed (jpeg, jpg, png, gif, webp)")
			case errors.Is(err, errs.ErrPayloadTooLarge):
				respondError(w, http.StatusBadRequest, "File exceeds the 5MB size limit")
			default:
				logger.Error().Err(err).Msg("Failed to store upload")
				respondError(w, http.StatusInternalServerError, "Error uploading image")
			}
			return
		}

		h.metrics.UploadsTotal.Inc()
		logger.Info().Str("blob_id", blob.ID).Int64("size", blob.Size).Msg("Image uploaded")
		respondJSON(w, http.StatusCreated, map[string]string{
			"imageUrl": "/api/upload/" + blob.ID,
		})
		return
	}

	respondError(w, http.StatusBadRequest, "No file uploaded")
}

// Download streams a stored image back to the caller.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())
	id := chi.URLParam(r, "id")

	stream, blob, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Image not found")
			return
		}
		logger.Error().Err(err).Str("blob_id", id).Msg("Failed to fetch image")
		respondError(w, http.StatusInternalServerError, "Error fetching image")
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	if _, err := io.Copy(w, stream); err != nil {
		// Headers are already written; all we can do is log.
		logger.Warn().Err(err).Str("blob_id", id).Msg("Image download interrupted")
	}
}
