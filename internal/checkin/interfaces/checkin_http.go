package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flightops-cloud/internal/audit"
	"flightops-cloud/internal/auth"
	"flightops-cloud/internal/checkin/application"
	checkin "flightops-cloud/internal/checkin/domain"
	"flightops-cloud/internal/observability/metrics"

	"github.com/shopspring/decimal"
)

// CheckInHandler handles check-in billing APIs.
type CheckInHandler struct {
	service        *application.CheckInService
	bookingChecker auth.BookingTenantChecker
	auditLogger    audit.Logger
}

// NewCheckInHandler constructs a handler.
func NewCheckInHandler(service *application.CheckInService, bookingChecker auth.BookingTenantChecker, auditLogger audit.Logger) (*CheckInHandler, error) {
	if service == nil {
		return nil, errors.New("checkin handler: nil service")
	}
	return &CheckInHandler{service: service, bookingChecker: bookingChecker, auditLogger: auditLogger}, nil
}

// ServeHTTP handles check-in routes under /api/v1/checkins.
func (h *CheckInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if !strings.HasPrefix(path, "/api/v1/checkins/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest := strings.TrimPrefix(path, "/api/v1/checkins/")
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	bookingID := parts[0]

	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID != "" && h.bookingChecker != nil {
		if err := h.bookingChecker.EnsureBookingTenant(r.Context(), tenantID, bookingID); err != nil {
			respondTenantError(w, err)
			return
		}
	}

	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleSnapshot(w, r, bookingID)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "calculate":
			if r.Method == http.MethodPost {
				h.handleCalculate(w, r, bookingID)
				return
			}
		case "approve":
			if r.Method == http.MethodPost {
				h.handleApprove(w, r, bookingID)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportPDF(w, r, bookingID)
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExportXLSX(w, r, bookingID)
				return
			}
		}
	}
	if len(parts) == 3 && parts[1] == "lines" {
		if r.Method == http.MethodPatch || r.Method == http.MethodPost {
			h.handleEditLine(w, r, bookingID, parts[2])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *CheckInHandler) handleSnapshot(w http.ResponseWriter, r *http.Request, bookingID string) {
	snap, err := h.service.Evaluate(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (h *CheckInHandler) handleCalculate(w http.ResponseWriter, r *http.Request, bookingID string) {
	draft, err := h.service.Calculate(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(draft)
	h.logAudit(r, bookingID, "checkin.calculate", map[string]any{
		"basis":         draft.BillingBasis,
		"billing_hours": draft.BillingHours,
		"total":         draft.Totals.TotalAmount,
	})
}

func (h *CheckInHandler) handleEditLine(w http.ResponseWriter, r *http.Request, bookingID, lineIndex string) {
	index, err := strconv.Atoi(lineIndex)
	if err != nil {
		http.Error(w, "invalid line index", http.StatusBadRequest)
		return
	}
	var req struct {
		Quantity  *decimal.Decimal `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Quantity == nil && req.UnitPrice == nil {
		http.Error(w, "nothing to change", http.StatusBadRequest)
		return
	}
	draft, err := h.service.EditLine(r.Context(), bookingID, index, checkin.LinePatch{
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(draft)
	h.logAudit(r, bookingID, "checkin.edit_line", map[string]any{
		"line":       index,
		"quantity":   req.Quantity,
		"unit_price": req.UnitPrice,
	})
}

func (h *CheckInHandler) handleApprove(w http.ResponseWriter, r *http.Request, bookingID string) {
	approved, err := h.service.Approve(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(approved)
	h.logAudit(r, bookingID, "checkin.approve", map[string]any{
		"invoice_id": approved.InvoiceID,
	})
}

func (h *CheckInHandler) handleExportPDF(w http.ResponseWriter, r *http.Request, bookingID string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDraftExport("pdf", result, time.Since(start))
	}()

	snap, err := h.service.Evaluate(r.Context(), bookingID)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if snap.Draft == nil {
		result = metrics.ResultError
		respondServiceError(w, checkin.ErrNoDraft)
		return
	}
	data, err := BuildDraftPDF(snap.Booking, snap.Draft)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, bookingID, "checkin.export", map[string]any{"format": "pdf"})
}

func (h *CheckInHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request, bookingID string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDraftExport("xlsx", result, time.Since(start))
	}()

	snap, err := h.service.Evaluate(r.Context(), bookingID)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if snap.Draft == nil {
		result = metrics.ResultError
		respondServiceError(w, checkin.ErrNoDraft)
		return
	}
	data, err := BuildDraftXLSX(snap.Booking, snap.Draft)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, bookingID, "checkin.export", map[string]any{"format": "xlsx"})
}

func (h *CheckInHandler) logAudit(r *http.Request, bookingID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "checkin",
		ResourceID:   bookingID,
		BookingID:    bookingID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondTenantError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTenantMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "tenant check failed", http.StatusInternalServerError)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, checkin.ErrBookingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkin.ErrAlreadyApproved), errors.Is(err, checkin.ErrDraftStale):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkin.ErrLineIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, checkin.ErrNoAircraft),
		errors.Is(err, checkin.ErrNoFlightType),
		errors.Is(err, checkin.ErrNoAircraftRate),
		errors.Is(err, checkin.ErrNoChargeBasis),
		errors.Is(err, checkin.ErrAirswitchUnsupported),
		errors.Is(err, checkin.ErrZeroBillingHours),
		errors.Is(err, checkin.ErrInstructorBasisConflict),
		errors.Is(err, checkin.ErrNoDraft),
		errors.Is(err, checkin.ErrEmptyDraft),
		errors.Is(err, checkin.ErrInvalidLine),
		errors.Is(err, checkin.ErrNonPositiveTotal):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
