package adaptor

import (
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SalonApplicationHandler struct {
	service usecase.SalonApplicationService
	log     *zap.Logger
}

func NewSalonApplicationHandler(service usecase.SalonApplicationService, log *zap.Logger) *SalonApplicationHandler {
	return &SalonApplicationHandler{
		service: service,
		log:     log.With(zap.String("handler", "salon_application")),
	}
}

// Submit handles POST /api/salon-applications
func (h *SalonApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.SalonApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.service.Submit(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "submit salon application")
		return
	}

	utils.ResponseCreated(w, "Application submitted successfully", app)
}

// GetMyApplication handles GET /api/salon-applications/mine
func (h *SalonApplicationHandler) GetMyApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	app, err := h.service.GetMyApplication(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get my application")
		return
	}

	utils.ResponseSuccess(w, "success", app)
}

// ListApplications handles GET /api/admin/salon-applications?status=
func (h *SalonApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	req := request.ApplicationListQuery{
		PaginatedRequest: pageFromQuery(r),
		Status:           r.URL.Query().Get("status"),
	}

	apps, err := h.service.ListApplications(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "list salon applications")
		return
	}

	utils.ResponseSuccess(w, "success", apps)
}

// Approve handles POST /api/admin/salon-applications/{id}/approve
func (h *SalonApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ReviewApplicationRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	result, err := h.service.Approve(r.Context(), adminID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "approve salon application")
		return
	}

	utils.ResponseSuccess(w, "Application approved successfully", result)
}

// Reject handles POST /api/admin/salon-applications/{id}/reject
func (h *SalonApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ReviewApplicationRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	app, err := h.service.Reject(r.Context(), adminID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "reject salon application")
		return
	}

	utils.ResponseSuccess(w, "Application rejected", app)
}
