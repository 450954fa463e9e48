package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cleancity/cleancity-be/internal/auth"
	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/metrics"
	"github.com/cleancity/cleancity-be/internal/models"
	"github.com/cleancity/cleancity-be/internal/services"
	"github.com/cleancity/cleancity-be/internal/trace"
)

// ReportHandler handles HTTP requests for report management.
type ReportHandler struct {
	service services.ReportServiceProvider
	metrics *metrics.Metrics
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service services.ReportServiceProvider, m *metrics.Metrics) *ReportHandler {
	return &ReportHandler{service: service, metrics: m}
}

// CreateReportPayload defines the structure for report creation requests.
type CreateReportPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
}

// UpdateReportPayload defines the structure for status update requests.
type UpdateReportPayload struct {
	Status string `json:"status"`
}

// reportID extracts and checks the {id} URL parameter. Report ids are
// UUIDs; anything else is rejected before touching the store.
func reportID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// GetAll handles the public report listing with optional filters.
func (h *ReportHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	filter := models.ReportFilter{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
	}

	reports, err := h.service.List(filter)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "Server error fetching reports")
		return
	}

	logger.Info().Int("count", len(reports)).Msg("Reports fetched")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(reports),
		"reports": reports,
	})
}

// Get handles the request to get a single report by its ID.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Report not found")
			return
		}
		logger.Error().Err(err).Str("report_id", id).Msg("Failed to fetch report")
		respondError(w, http.StatusInternalServerError, "Server error fetching report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// Create handles the request to submit a new report.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var payload CreateReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.Create(claims.UserID, services.CreateReportInput{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Location:    payload.Location,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			respondValidation(w, ve)
			return
		}
		logger.Error().Err(err).Msg("Failed to create report")
		respondError(w, http.StatusInternalServerError, "Server error creating report")
		return
	}

	h.metrics.ReportsCreated.Inc()
	logger.Info().Str("report_id", report.ID).Msg("Report created")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Report created successfully",
		"report":  report,
	})
}

// Update handles the admin-only status change.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	id, okID := reportID(r)
	if !okID {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	var payload UpdateReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.UpdateStatus(id, payload.Status, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			logger.Warn().Str("user_id", claims.UserID).Msg("Non-admin status update attempt")
			respondError(w, http.StatusForbidden, "Only administrators can update report status")
		case errors.Is(err, errs.ErrNotFound):
			respondError(w, http.StatusNotFound, "Report not found")
		default:
			if ve, ok := errs.AsValidation(err); ok {
				respondValidation(w, ve)
				return
			}
			logger.Error().Err(err).Str("report_id", id).Msg("Failed to update report")
			respondError(w, http.StatusInternalServerError, "Server error updating report")
		}
		return
	}

	logger.Info().Str("report_id", id).Str("status", string(report.Status)).Msg("Report updated")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Report updated successfully",
		"report":  report,
	})
}

// Delete handles report deletion by the owner or an admin.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	id, okID := reportID(r)
	if !okID {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	if err := h.service.Delete(id, claims.UserID, claims.Role); err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			logger.Warn().Str("user_id", claims.UserID).Str("report_id", id).Msg("Forbidden delete attempt")
			respondError(w, http.StatusForbidden, "You can only delete your own reports")
		case errors.Is(err, errs.ErrNotFound):
			respondError(w, http.StatusNotFound, "Report not found")
		default:
			logger.Error().Err(err).Str("report_id", id).Msg("Failed to delete report")
			respondError(w, http.StatusInternalServerError, "Server error deleting report")
		}
		return
	}

	logger.Info().Str("report_id", id).Msg("Report deleted")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}

// GetMine handles the request for the caller's own reports.
func (h *ReportHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	reports, err := h.service.ListByOwner(claims.UserID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list own reports")
		respondError(w, http.StatusInternalServerError, "Server error fetching reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(reports),
		"reports": reports,
	})
}

// GetStats handles the admin statistics request. The admin gate runs in
// middleware before this handler.
func (h *ReportHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	stats, err := h.service.Stats()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute report stats")
		respondError(w, http.StatusInternalServerError, "Server error fetching statistics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}
