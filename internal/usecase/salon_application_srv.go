package usecase

import (
	"context"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalonApplicationService runs the listing workflow: users apply, admins
// approve (creating the salon) or reject.
type SalonApplicationService interface {
	Submit(ctx context.Context, userID uuid.UUID, req *request.SalonApplicationRequest) (*response.SalonApplicationResponse, error)
	GetMyApplication(ctx context.Context, userID uuid.UUID) (*response.MyApplicationResponse, error)

	// Admin
	ListApplications(ctx context.Context, req *request.ApplicationListQuery) (*response.PaginatedResponse[response.SalonApplicationResponse], error)
	Approve(ctx context.Context, adminID uuid.UUID, applicationID string, req *request.ReviewApplicationRequest) (*response.ApprovedApplicationResponse, error)
	Reject(ctx context.Context, adminID uuid.UUID, applicationID string, req *request.ReviewApplicationRequest) (*response.SalonApplicationResponse, error)
}

type salonApplicationService struct {
	repo   *repository.Repository
	notify *notifier
	now    func() time.Time
	log    *zap.Logger
}

func NewSalonApplicationService(repo *repository.Repository, deps Deps, notify *notifier, log *zap.Logger) SalonApplicationService {
	return &salonApplicationService{
		repo:   repo,
		notify: notify,
		now:    deps.Now,
		log:    log.With(zap.String("service", "salon_application")),
	}
}

func (s *salonApplicationService) Submit(ctx context.Context, userID uuid.UUID, req *request.SalonApplicationRequest) (*response.SalonApplicationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Salon application validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	owned, err := s.repo.Salon.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check owned salon: %w", err)
	}
	if owned != nil {
		return nil, fmt.Errorf("%w: you already own a salon", utils.ErrConflict)
	}

	pending, err := s.repo.Application.HasPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check pending application: %w", err)
	}
	if pending {
		return nil, fmt.Errorf("%w: you already have a pending application", utils.ErrConflict)
	}

	now := s.now()
	app := &entity.SalonApplication{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:            userID,
		SalonName:         req.SalonName,
		BusinessEmail:     req.BusinessEmail,
		Phone:             req.Phone,
		Website:           req.Website,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		PostalCode:        req.PostalCode,
		Services:          req.Services,
		Description:       req.Description,
		YearsInBusiness:   req.YearsInBusiness,
		StaffCount:        req.StaffCount,
		ApplicationReason: req.ApplicationReason,
		Status:            entity.ApplicationStatusPending,
	}

	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.log.Error("Failed to create salon application", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("create salon application: %w", err)
	}

	s.log.Info("Salon application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("salon_name", app.SalonName))

	resp := response.SalonApplicationToResponse(app)
	return &resp, nil
}

func (s *salonApplicationService) GetMyApplication(ctx context.Context, userID uuid.UUID) (*response.MyApplicationResponse, error) {
	app, err := s.repo.Application.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	if app == nil {
		return &response.MyApplicationResponse{}, nil
	}

	resp := response.SalonApplicationToResponse(app)
	return &response.MyApplicationResponse{HasApplication: true, Application: &resp}, nil
}

func (s *salonApplicationService) ListApplications(ctx context.Context, req *request.ApplicationListQuery) (*response.PaginatedResponse[response.SalonApplicationResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if req.Page < 1 {
		req.Page = 1
	}

	status := entity.ApplicationStatus(req.Status)
	apps, err := s.repo.Application.FindAll(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list salon applications", zap.Error(err))
		return nil, fmt.Errorf("list salon applications: %w", err)
	}

	total, err := s.repo.Application.Count(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count salon applications: %w", err)
	}

	data := make([]response.SalonApplicationResponse, len(apps))
	for i, app := range apps {
		data[i] = response.SalonApplicationToResponse(app)
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

// pendingApplication loads applicationID and its applicant, requiring the
// application to still await review.
func (s *salonApplicationService) pendingApplication(ctx context.Context, applicationID string) (*entity.SalonApplication, *entity.User, error) {
	id, err := uuid.Parse(applicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid application ID", utils.ErrValidation)
	}

	app, err := s.repo.Application.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find application: %w", err)
	}
	if app == nil {
		return nil, nil, fmt.Errorf("%w: application not found", utils.ErrNotFound)
	}
	if app.Status != entity.ApplicationStatusPending {
		return nil, nil, fmt.Errorf("%w: application already %s", utils.ErrInvalidState, app.Status)
	}

	applicant, err := s.repo.User.FindByID(ctx, app.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("find applicant: %w", err)
	}
	if applicant == nil {
		return nil, nil, fmt.Errorf("%w: applicant no longer exists", utils.ErrNotFound)
	}
	return app, applicant, nil
}

func (s *salonApplicationService) Approve(ctx context.Context, adminID uuid.UUID, applicationID string, req *request.ReviewApplicationRequest) (*response.ApprovedApplicationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	app, applicant, err := s.pendingApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	owned, err := s.repo.Salon.FindByOwner(ctx, applicant.ID)
	if err != nil {
		return nil, fmt.Errorf("check owned salon: %w", err)
	}
	if owned != nil {
		return nil, fmt.Errorf("%w: applicant already owns a salon", utils.ErrConflict)
	}

	now := s.now()
	salon := app.NewSalon(now)
	applied, err := s.repo.Application.Approve(ctx, app.ID, adminID, req.Notes, salon)
	if err != nil {
		s.log.Error("Failed to approve salon application", zap.Error(err), zap.String("application_id", applicationID))
		return nil, fmt.Errorf("approve application: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: application was reviewed by someone else", utils.ErrConflict)
	}

	app.Status = entity.ApplicationStatusApproved
	app.ReviewedBy = &adminID
	app.ReviewedAt = &now
	app.AdminNotes = req.Notes
	app.SalonID = &salon.ID

	s.log.Info("Salon application approved",
		zap.String("application_id", applicationID),
		zap.String("salon_id", salon.ID.String()),
		zap.String("owner_id", applicant.ID.String()),
		zap.String("reviewed_by", adminID.String()))
	s.notify.ApplicationReviewed(ctx, applicant, app, salon)

	return &response.ApprovedApplicationResponse{
		Application: response.SalonApplicationToResponse(app),
		Salon:       response.SalonToResponse(salon),
	}, nil
}

func (s *salonApplicationService) Reject(ctx context.Context, adminID uuid.UUID, applicationID string, req *request.ReviewApplicationRequest) (*response.SalonApplicationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	app, applicant, err := s.pendingApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.Application.Reject(ctx, app.ID, adminID, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("reject application: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: application was reviewed by someone else", utils.ErrConflict)
	}

	now := s.now()
	app.Status = entity.ApplicationStatusRejected
	app.ReviewedBy = &adminID
	app.ReviewedAt = &now
	app.AdminNotes = req.Notes

	s.log.Info("Salon application rejected",
		zap.String("application_id", applicationID),
		zap.String("reviewed_by", adminID.String()))
	s.notify.ApplicationReviewed(ctx, applicant, app, nil)

	resp := response.SalonApplicationToResponse(app)
	return &resp, nil
}
