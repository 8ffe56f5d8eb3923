package handler

import (
	"net/http"
	"time"

	httpx "github.com/binsight/api/internal/infra/http"
	"github.com/binsight/api/internal/infra/http/middleware"
	"github.com/binsight/api/pkg/apierror"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/validator"

	"github.com/binsight/api/internal/app"
)

// ScanHandler handles HTTP requests for scan jobs and results.
type ScanHandler struct {
	service   *app.ScanService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(service *app.ScanService, v *validator.Validator, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service:   service,
		validator: v,
		logger:    log.With("handler", "scan"),
	}
}

// SubmitScanRequest is the request body for submitting a scan.
type SubmitScanRequest struct {
	ImageRef string  `json:"image_ref" validate:"required,max=2048"`
	Lat      float64 `json:"lat" validate:"latitude"`
	Lon      float64 `json:"lon" validate:"longitude"`
	// CampusID is optional when the token carries one.
	CampusID string `json:"campus_id" validate:"omitempty,uuid"`
}

// JobResponse is the API view of a scan job.
type JobResponse struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	ImageRef    string     `json:"image_ref"`
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	CampusID    string     `json:"campus_id"`
	FailReason  string     `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Result *ResultResponse `json:"result,omitempty"`
}

// ResultResponse is the API view of a recorded scan result.
type ResultResponse struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	ZoneID      string    `json:"zone_id"`
	ZoneCode    string    `json:"zone_code,omitempty"`
	VolumeCm3   float64   `json:"volume_cm3"`
	ProcessedAt time.Time `json:"processed_at"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// SubmitScan handles POST /scans. The scan is admitted and queued; the
// response is 202 with a job handle the client polls.
func (h *ScanHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req SubmitScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	userID, err := shared.IDFromString(middleware.GetUserID(r.Context()))
	if err != nil {
		apierror.Write(w, apierror.Unauthorized("invalid user identity"))
		return
	}

	campusRaw := req.CampusID
	if campusRaw == "" {
		campusRaw = middleware.GetCampusID(r.Context())
	}
	campusID, err := shared.IDFromString(campusRaw)
	if err != nil {
		apierror.Write(w, apierror.BadRequest("campus_id is required"))
		return
	}

	handle, err := h.service.SubmitScan(r.Context(), userID, campusID, req.ImageRef, req.Lat, req.Lon)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, handle)
}

// GetScan handles GET /scans/{id}.
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(httpx.PathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.service.GetJobStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toJobResponse(status))
}

// ListResults handles GET /scans/results.
func (h *ScanHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	campusRaw := httpx.QueryParam(r, "campus_id")
	if campusRaw == "" {
		campusRaw = middleware.GetCampusID(r.Context())
	}
	campusID, err := shared.IDFromString(campusRaw)
	if err != nil {
		apierror.Write(w, apierror.BadRequest("campus_id is required"))
		return
	}

	limit := httpx.QueryParamInt(r, "limit", 50)
	views, err := h.service.ListCampusResults(r.Context(), campusID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]*ResultResponse, 0, len(views))
	for _, v := range views {
		rr := toResultResponse(v.Result)
		rr.ImageURL = v.ImageURL
		results = append(results, rr)
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": results})
}

func toJobResponse(status *app.JobStatus) *JobResponse {
	j := status.Job
	resp := &JobResponse{
		ID:          j.ID.String(),
		State:       string(j.State),
		ImageRef:    j.ImageRef,
		Lat:         j.Latitude,
		Lon:         j.Longitude,
		CampusID:    j.CampusID.String(),
		FailReason:  j.FailReason,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
	if status.Result != nil {
		resp.Result = toResultResponse(status.Result)
	}
	return resp
}

func toResultResponse(r *scan.Result) *ResultResponse {
	return &ResultResponse{
		ID:          r.ID.String(),
		JobID:       r.JobID.String(),
		ZoneID:      r.ZoneID.String(),
		ZoneCode:    r.ZoneCode,
		VolumeCm3:   r.VolumeCm3,
		ProcessedAt: r.ProcessedAt,
	}
}
