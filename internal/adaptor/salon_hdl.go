package adaptor

import (
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SalonHandler struct {
	service usecase.SalonService
	log     *zap.Logger
}

func NewSalonHandler(service usecase.SalonService, log *zap.Logger) *SalonHandler {
	return &SalonHandler{
		service: service,
		log:     log.With(zap.String("handler", "salon")),
	}
}

// GetSalons handles GET /api/salons?city=&search=&page=&per_page=
func (h *SalonHandler) GetSalons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.SalonListQuery{
		PaginatedRequest: pageFromQuery(r),
		City:             query.Get("city"),
		Search:           query.Get("search"),
	}

	salons, err := h.service.GetSalons(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get salons")
		return
	}

	utils.ResponseSuccess(w, "success", salons)
}

// GetSalonByID handles GET /api/salons/{id}
func (h *SalonHandler) GetSalonByID(w http.ResponseWriter, r *http.Request) {
	salon, err := h.service.GetSalonByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get salon")
		return
	}

	utils.ResponseSuccess(w, "success", salon)
}

// GetSalonServices handles GET /api/salons/{id}/services
func (h *SalonHandler) GetSalonServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.GetSalonServices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get salon services")
		return
	}

	utils.ResponseSuccess(w, "success", services)
}

// GetMySalon handles GET /api/salon/profile
func (h *SalonHandler) GetMySalon(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	salon, err := h.service.GetMySalon(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.log, err, "get own salon")
		return
	}

	utils.ResponseSuccess(w, "success", salon)
}

// UpdateMySalon handles PUT /api/salon/profile
func (h *SalonHandler) UpdateMySalon(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.UpdateSalonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	salon, err := h.service.UpdateMySalon(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update salon")
		return
	}

	utils.ResponseSuccess(w, "Salon updated", salon)
}

// CreateService handles POST /api/salon/services
func (h *SalonHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	service, err := h.service.CreateService(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create service")
		return
	}

	utils.ResponseCreated(w, "Service created", service)
}

// UpdateService handles PUT /api/salon/services/{id}
func (h *SalonHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.UpdateServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	service, err := h.service.UpdateService(r.Context(), ownerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update service")
		return
	}

	utils.ResponseSuccess(w, "Service updated", service)
}

// DeleteService handles DELETE /api/salon/services/{id}
func (h *SalonHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteService(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "delete service")
		return
	}

	utils.ResponseSuccess(w, "Service deleted", nil)
}

// CreateSalon handles POST /api/admin/salons
func (h *SalonHandler) CreateSalon(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSalonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	salon, err := h.service.CreateSalon(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create salon")
		return
	}

	utils.ResponseCreated(w, "Salon created", salon)
}
