package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"merlin/internal/service"
)

// ReportHandler streams CSV reports
type ReportHandler struct {
	exportService *service.ExportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(exportService *service.ExportService) *ReportHandler {
	return &ReportHandler{exportService: exportService}
}

// formIDsFromQuery parses every "form" query parameter. The reports
// span all requested forms in one stream.
func formIDsFromQuery(r *http.Request) ([]uuid.UUID, error) {
	values := r.URL.Query()["form"]
	if len(values) == 0 {
		return nil, fmt.Errorf("missing form ID")
	}

	formIDs := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		formIDs = append(formIDs, id)
	}
	return formIDs, nil
}

// ExportSkipped streams the skipped-users report of the requested
// forms (admin only)
// @Summary Export skipped users
// @Description CSV of users the engine would skip, with verbatim reasons
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param form query string true "Form ID (repeatable)"
// @Success 200 {string} string "CSV stream"
// @Router /reports/skipped [get]
func (h *ReportHandler) ExportSkipped(w http.ResponseWriter, r *http.Request) {
	formIDs, err := formIDsFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form ID")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="skipped.csv"`)

	// Rows stay buffered until Flush, so early failures can still turn
	// into a proper error response.
	writer := csv.NewWriter(w)
	if err := h.exportService.ExportSkipped(r.Context(), formIDs, writer.Write); err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json")
		respondWithServiceError(w, err)
		return
	}
	writer.Flush()
}

// ExportResults streams the aggregated results of the requested forms
// (admin only)
// @Summary Export results
// @Description CSV of per-category and per-question averages per assessed user
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param form query string true "Form ID (repeatable)"
// @Success 200 {string} string "CSV stream"
// @Router /reports/results [get]
func (h *ReportHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	formIDs, err := formIDsFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form ID")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)

	writer := csv.NewWriter(w)
	if err := h.exportService.ExportResults(r.Context(), formIDs, writer.Write); err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json")
		respondWithServiceError(w, err)
		return
	}
	writer.Flush()
}
