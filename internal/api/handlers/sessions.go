package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/api/request"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/api/response"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/chart"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/mapping"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/validation"
)

// SessionHandler handles HTTP requests for the upload, mapping, dashboard
// and forecast steps of a session.
type SessionHandler struct {
	sessionService   *service.SessionService
	dashboardService *service.DashboardService
	maxUploadBytes   int64
}

// NewSessionHandler creates a new SessionHandler. Uploads larger than
// maxUploadBytes are rejected.
func NewSessionHandler(sessionService *service.SessionService, dashboardService *service.DashboardService, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		sessionService:   sessionService,
		dashboardService: dashboardService,
		maxUploadBytes:   maxUploadBytes,
	}
}

// CreateSessionResponse is returned after a successful upload.
type CreateSessionResponse struct {
	ID           string     `json:"id"`
	Columns      []string   `json:"columns"`
	Preview      [][]string `json:"preview"`
	RowCount     int        `json:"rowCount"`
	SkippedLines int        `json:"skippedLines"`
	Encoding     string     `json:"encoding"`
}

// CreateSession handles POST requests that upload a CSV file.
// The file is read from the multipart field "file", or from the raw body.
//
// Endpoint: POST /api/sessions
// Response: 201 Created with CreateSessionResponse
// Error: 400 Bad Request if the file is empty or its header is invalid
// Error: 413 Request Entity Too Large if the upload exceeds the limit
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			if statusFor(err) == http.StatusRequestEntityTooLarge {
				respondServiceError(w, err, "")
				return
			}
			response.RespondError(w, http.StatusBadRequest, "missing upload file", err.Error())
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.sessionService.Upload(body)
	if err != nil {
		respondServiceError(w, err, "failed to read upload")
		return
	}

	response.RespondJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:           result.Session.ID,
		Columns:      result.Session.Columns,
		Preview:      result.Preview,
		RowCount:     result.Session.RowCount,
		SkippedLines: result.SkippedLines,
		Encoding:     result.Encoding,
	})
}

// GetSession handles GET requests for a session's state.
//
// Endpoint: GET /api/sessions/{uuid}
// Response: 200 OK with SessionInfo
// Error: 404 Not Found if the session does not exist
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessionService.Get(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, "failed to get session")
		return
	}
	response.RespondJSON(w, http.StatusOK, info)
}

// DeleteSession handles DELETE requests that close a session.
//
// Endpoint: DELETE /api/sessions/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the session does not exist
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.Delete(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete session")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ApplyMappingResponse reports how many rows survived cleaning.
type ApplyMappingResponse struct {
	Stats mapping.Stats `json:"stats"`
}

// ApplyMapping handles POST requests that map the upload onto the canonical table.
//
// Endpoint: POST /api/sessions/{uuid}/mapping
// Request Body: ColumnMappingRequest
// Response: 200 OK with ApplyMappingResponse
// Error: 400 Bad Request if validation fails, a column does not exist, or no rows survive
// Error: 404 Not Found if the session does not exist
func (h *SessionHandler) ApplyMapping(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ColumnMappingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateColumnMapping(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	stats, err := h.sessionService.ApplyMapping(r.Context(), chi.URLParam(r, "uuid"), req.ToModel())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToStageRecords.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, ApplyMappingResponse{Stats: stats})
}

// Dashboard handles GET requests for the descriptive sales metrics.
//
// Endpoint: GET /api/sessions/{uuid}/dashboard
// Response: 200 OK with DashboardSummary
// Error: 404 Not Found if the session does not exist
// Error: 409 Conflict if no mapping was applied yet
func (h *SessionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToBuildDashboard.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, summary)
}

// RunForecast handles POST requests that run the portfolio analysis.
// The response is the new leaderboard; an empty leaderboard means no product
// had enough data.
//
// Endpoint: POST /api/sessions/{uuid}/forecast
// Response: 200 OK with AnalysisResult
// Error: 404 Not Found if the session does not exist
// Error: 409 Conflict if no mapping was applied yet
func (h *SessionHandler) RunForecast(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.RunForecast(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRunForecast.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// GetForecast handles GET requests for the last analysis result.
//
// Endpoint: GET /api/sessions/{uuid}/forecast
// Response: 200 OK with AnalysisResult
// Error: 404 Not Found if the session does not exist
// Error: 409 Conflict if no analysis was run yet
func (h *SessionHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.Result(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRunForecast.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// Products handles GET requests for the sorted product names of the prepared table.
//
// Endpoint: GET /api/sessions/{uuid}/products
// Response: 200 OK with array of product names
func (h *SessionHandler) Products(w http.ResponseWriter, r *http.Request) {
	names, err := h.sessionService.Products(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveRecords.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, names)
}

// Chart handles GET requests for one product's forecast chart.
//
// Endpoint: GET /api/sessions/{uuid}/chart?product=<name>
// Response: 200 OK with ChartSpec
// Error: 400 Bad Request if product is missing
// Error: 404 Not Found if the product has no forecast
// Error: 409 Conflict if no analysis was run yet
func (h *SessionHandler) Chart(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if strings.TrimSpace(product) == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "product: product is required")
		return
	}

	pf, err := h.sessionService.ProductForecast(chi.URLParam(r, "uuid"), product)
	if err != nil {
		respondServiceError(w, err, "failed to render chart")
		return
	}
	response.RespondJSON(w, http.StatusOK, chart.Render(pf))
}
