package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"uppf-engine/internal/auth"
	"uppf-engine/internal/claims/application"
	claims "uppf-engine/internal/claims/domain"
	"uppf-engine/internal/claims/interfaces"
	"uppf-engine/internal/observability/metrics"
)

// ClaimHandler handles claim APIs under /api/v1/uppf.
type ClaimHandler struct {
	service *application.ClaimService
	batch   *application.BatchSubmissionService
	monitor *application.VarianceAgingMonitor
}

// NewClaimHandler constructs a handler.
func NewClaimHandler(service *application.ClaimService, batch *application.BatchSubmissionService, monitor *application.VarianceAgingMonitor) (*ClaimHandler, error) {
	if service == nil {
		return nil, errors.New("claim handler: nil claim service")
	}
	if batch == nil {
		return nil, errors.New("claim handler: nil batch service")
	}
	if monitor == nil {
		return nil, errors.New("claim handler: nil monitor")
	}
	return &ClaimHandler{service: service, batch: batch, monitor: monitor}, nil
}

// ServeHTTP routes claim requests.
func (h *ClaimHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/uppf/claims" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case strings.HasPrefix(path, "/api/v1/uppf/claims/"):
		h.handleClaimByID(w, r, strings.TrimPrefix(path, "/api/v1/uppf/claims/"))
	case strings.HasPrefix(path, "/api/v1/uppf/windows/"):
		h.handleWindow(w, r, strings.TrimPrefix(path, "/api/v1/uppf/windows/"))
	case path == "/api/v1/uppf/dashboard" && r.Method == http.MethodGet:
		h.handleDashboard(w, r)
	case strings.HasPrefix(path, "/api/v1/uppf/submissions/"):
		h.handleSubmission(w, r, strings.TrimPrefix(path, "/api/v1/uppf/submissions/"))
	case path == "/api/v1/uppf/payments" && r.Method == http.MethodPost:
		h.handlePayment(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ClaimHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeliveryID    string            `json:"delivery_id"`
		RouteID       string            `json:"route_id"`
		KmActual      float64           `json:"km_actual"`
		LitresMoved   float64           `json:"litres_moved"`
		WindowID      string            `json:"window_id"`
		GPSPoints     []claims.GPSPoint `json:"gps_points"`
		EvidenceLinks []string          `json:"evidence_links"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	claim, err := h.service.CreateClaim(r.Context(), application.ClaimInput{
		DeliveryID:    req.DeliveryID,
		RouteID:       req.RouteID,
		KmActual:      req.KmActual,
		LitresMoved:   req.LitresMoved,
		WindowID:      req.WindowID,
		GPSPoints:     req.GPSPoints,
		EvidenceLinks: req.EvidenceLinks,
	}, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"claim_id":   claim.ClaimID,
		"status":     claim.Status,
		"amount_due": claim.AmountDue,
		"currency":   claim.Currency,
		"notes":      claim.Notes,
	})
}

func (h *ClaimHandler) handleClaimByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	claimID := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, claimID)
		return
	}
	if len(parts) == 2 && parts[1] == "transition" && r.Method == http.MethodPost {
		h.handleTransition(w, r, claimID)
		return
	}
	if len(parts) == 2 && parts[1] == "trace" && r.Method == http.MethodGet {
		h.handleTrace(w, r, claimID)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ClaimHandler) handleGet(w http.ResponseWriter, r *http.Request, claimID string) {
	claim, err := h.service.Get(r.Context(), claimID)
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(claim)
}

func (h *ClaimHandler) handleTrace(w http.ResponseWriter, r *http.Request, claimID string) {
	trace, err := h.service.Trace(r.Context(), claimID)
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(trace)
}

func (h *ClaimHandler) handleTransition(w http.ResponseWriter, r *http.Request, claimID string) {
	var req struct {
		Target string `json:"target"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	claim, err := h.service.Transition(r.Context(), claimID, req.Target, auth.SubjectFromContext(r.Context()), req.Notes)
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"claim_id": claim.ClaimID,
		"status":   claim.Status,
		"notes":    claim.Notes,
	})
}

func (h *ClaimHandler) handleWindow(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "submit" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	windowID := parts[0]
	result, err := h.batch.SubmitBatch(r.Context(), windowID, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"submission_reference": result.SubmissionReference,
		"submitted_claim_ids":  result.SubmittedClaimIDs,
		"total_amount":         result.TotalAmount,
	})
}

func (h *ClaimHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.monitor.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "dashboard error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}

func (h *ClaimHandler) handleSubmission(w http.ResponseWriter, r *http.Request, rest string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(rest, "/")
	reference := parts[0]
	if len(parts) == 1 {
		pkg, err := h.batch.BuildPackage(r.Context(), reference)
		if err != nil {
			respondClaimError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkg)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "export.pdf":
			h.handleExport(w, r, reference, "pdf")
			return
		case "export.xlsx":
			h.handleExport(w, r, reference, "xlsx")
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ClaimHandler) handleExport(w http.ResponseWriter, r *http.Request, reference, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	pkg, err := h.batch.BuildPackage(r.Context(), reference)
	if err != nil {
		result = metrics.ResultError
		respondClaimError(w, err)
		return
	}
	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = interfaces.BuildSubmissionPDF(pkg)
		contentType = "application/pdf"
	case "xlsx":
		data, err = interfaces.BuildSubmissionXLSX(pkg)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ClaimHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClaimID    string    `json:"claim_id"`
		AmountPaid float64   `json:"amount_paid"`
		PaidAt     time.Time `json:"paid_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	err := h.service.HandlePaymentConfirmed(r.Context(), application.PaymentConfirmation{
		ClaimID:    req.ClaimID,
		AmountPaid: req.AmountPaid,
		PaidAt:     req.PaidAt,
	})
	if err != nil {
		respondClaimError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondClaimError maps service errors to structured HTTP failures. Business
// rejections carry their reason so callers can distinguish them from faults.
func respondClaimError(w http.ResponseWriter, err error) {
	var transition *claims.InvalidStateTransitionError
	switch {
	case errors.Is(err, claims.ErrDeliveryNotFound),
		errors.Is(err, claims.ErrEqualisationNotFound),
		errors.Is(err, claims.ErrClaimNotFound),
		errors.Is(err, claims.ErrTraceNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, claims.ErrInvalidInput),
		errors.Is(err, claims.ErrNegativeAmount):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, claims.ErrDuplicateDelivery),
		errors.Is(err, claims.ErrBatchSubmitOnly):
		respondError(w, http.StatusConflict, err)
	case errors.As(err, &transition):
		respondError(w, http.StatusConflict, err)
	case claims.IsBusinessRejection(err):
		respondError(w, http.StatusUnprocessableEntity, err)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
