package adaptor

import (
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review submitted for moderation", review)
}

// GetSalonReviews handles GET /api/salons/{id}/reviews
func (h *ReviewHandler) GetSalonReviews(w http.ResponseWriter, r *http.Request) {
	req := pageFromQuery(r)

	reviews, err := h.service.GetSalonReviews(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get salon reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetSalonReviewStats handles GET /api/salons/{id}/review-stats
func (h *ReviewHandler) GetSalonReviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetSalonReviewStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get review stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

// GetUserReviews handles GET /api/user/reviews
func (h *ReviewHandler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	reviews, err := h.service.GetUserReviews(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get user reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// RespondToReview handles POST /api/salon/reviews/{id}/respond
func (h *ReviewHandler) RespondToReview(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.RespondReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.service.RespondToReview(r.Context(), ownerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "respond to review")
		return
	}

	utils.ResponseSuccess(w, "Response saved", review)
}

// GetPendingReviews handles GET /api/admin/reviews/pending
func (h *ReviewHandler) GetPendingReviews(w http.ResponseWriter, r *http.Request) {
	req := pageFromQuery(r)

	reviews, err := h.service.GetPendingReviews(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get pending reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// ModerateReview handles POST /api/admin/reviews/{id}/moderate
func (h *ReviewHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	var req request.ModerateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.service.ModerateReview(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "moderate review")
		return
	}

	utils.ResponseSuccess(w, "Review moderated", review)
}
