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

type SalonService interface {
	// Public catalogue
	GetSalons(ctx context.Context, req *request.SalonListQuery) (*response.PaginatedResponse[response.SalonResponse], error)
	GetSalonByID(ctx context.Context, salonID string) (*response.SalonResponse, error)
	GetSalonServices(ctx context.Context, salonID string) ([]response.ServiceResponse, error)

	// Owner
	GetMySalon(ctx context.Context, ownerID uuid.UUID) (*response.SalonResponse, error)
	UpdateMySalon(ctx context.Context, ownerID uuid.UUID, req *request.UpdateSalonRequest) (*response.SalonResponse, error)
	CreateService(ctx context.Context, ownerID uuid.UUID, req *request.ServiceRequest) (*response.ServiceResponse, error)
	UpdateService(ctx context.Context, ownerID uuid.UUID, serviceID string, req *request.UpdateServiceRequest) (*response.ServiceResponse, error)
	DeleteService(ctx context.Context, ownerID uuid.UUID, serviceID string) error

	// Admin
	CreateSalon(ctx context.Context, req *request.CreateSalonRequest) (*response.SalonResponse, error)
}

type salonService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewSalonService(repo *repository.Repository, log *zap.Logger) SalonService {
	return &salonService{
		repo: repo,
		log:  log.With(zap.String("service", "salon")),
	}
}

func (s *salonService) GetSalons(ctx context.Context, req *request.SalonListQuery) (*response.PaginatedResponse[response.SalonResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	filter := repository.SalonFilter{
		City:   req.City,
		Search: req.Search,
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}

	salons, err := s.repo.Salon.FindAll(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list salons", zap.Error(err))
		return nil, fmt.Errorf("list salons: %w", err)
	}

	total, err := s.repo.Salon.Count(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count salons", zap.Error(err))
		return nil, fmt.Errorf("count salons: %w", err)
	}

	data := make([]response.SalonResponse, len(salons))
	for i, salon := range salons {
		data[i] = response.SalonToResponse(salon)
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *salonService) activeSalon(ctx context.Context, salonID string) (*entity.Salon, error) {
	id, err := uuid.Parse(salonID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salon ID", utils.ErrValidation)
	}

	salon, err := s.repo.Salon.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find salon: %w", err)
	}
	if salon == nil || !salon.IsActive {
		return nil, fmt.Errorf("%w: salon not found", utils.ErrNotFound)
	}
	return salon, nil
}

func (s *salonService) servicesOf(ctx context.Context, salonID uuid.UUID, activeOnly bool) ([]response.ServiceResponse, error) {
	services, err := s.repo.Service.FindBySalon(ctx, salonID, activeOnly)
	if err != nil {
		s.log.Error("Failed to list services", zap.Error(err), zap.String("salon_id", salonID.String()))
		return nil, fmt.Errorf("list services: %w", err)
	}

	out := make([]response.ServiceResponse, len(services))
	for i, svc := range services {
		out[i] = response.ServiceToResponse(svc)
	}
	return out, nil
}

func (s *salonService) GetSalonByID(ctx context.Context, salonID string) (*response.SalonResponse, error) {
	salon, err := s.activeSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}

	services, err := s.servicesOf(ctx, salon.ID, true)
	if err != nil {
		return nil, err
	}

	resp := response.SalonToResponse(salon)
	resp.Services = services
	return &resp, nil
}

func (s *salonService) GetSalonServices(ctx context.Context, salonID string) ([]response.ServiceResponse, error) {
	salon, err := s.activeSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	return s.servicesOf(ctx, salon.ID, true)
}

func (s *salonService) GetMySalon(ctx context.Context, ownerID uuid.UUID) (*response.SalonResponse, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	services, err := s.servicesOf(ctx, salon.ID, false)
	if err != nil {
		return nil, err
	}

	resp := response.SalonToResponse(salon)
	resp.Services = services
	return &resp, nil
}

func (s *salonService) UpdateMySalon(ctx context.Context, ownerID uuid.UUID, req *request.UpdateSalonRequest) (*response.SalonResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		salon.Name = *req.Name
	}
	if req.Description != nil {
		salon.Description = req.Description
	}
	if req.Address != nil {
		salon.Address = *req.Address
	}
	if req.City != nil {
		salon.City = *req.City
	}
	if req.Phone != nil {
		salon.Phone = req.Phone
	}
	if req.Email != nil {
		salon.Email = req.Email
	}
	if req.IsActive != nil {
		salon.IsActive = *req.IsActive
	}
	salon.UpdatedAt = time.Now()

	if err := s.repo.Salon.Update(ctx, salon); err != nil {
		s.log.Error("Failed to update salon", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return nil, fmt.Errorf("update salon: %w", err)
	}

	s.log.Info("Salon updated", zap.String("salon_id", salon.ID.String()))
	resp := response.SalonToResponse(salon)
	return &resp, nil
}

func (s *salonService) CreateService(ctx context.Context, ownerID uuid.UUID, req *request.ServiceRequest) (*response.ServiceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	svc := &entity.Service{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SalonID:         salon.ID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}

	if err := s.repo.Service.Create(ctx, svc); err != nil {
		s.log.Error("Failed to create service", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.log.Info("Service created",
		zap.String("service_id", svc.ID.String()),
		zap.String("salon_id", salon.ID.String()),
		zap.Int("duration", svc.DurationMinutes))

	resp := response.ServiceToResponse(svc)
	return &resp, nil
}

// ownedService loads serviceID and checks it belongs to the owner's salon.
func (s *salonService) ownedService(ctx context.Context, ownerID uuid.UUID, serviceID string) (*entity.Service, error) {
	id, err := uuid.Parse(serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service ID", utils.ErrValidation)
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	svc, err := s.repo.Service.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	if svc == nil || svc.SalonID != salon.ID {
		return nil, fmt.Errorf("%w: service not found", utils.ErrNotFound)
	}
	return svc, nil
}

func (s *salonService) UpdateService(ctx context.Context, ownerID uuid.UUID, serviceID string, req *request.UpdateServiceRequest) (*response.ServiceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	svc, err := s.ownedService(ctx, ownerID, serviceID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = req.Description
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	svc.UpdatedAt = time.Now()

	if err := s.repo.Service.Update(ctx, svc); err != nil {
		s.log.Error("Failed to update service", zap.Error(err), zap.String("service_id", serviceID))
		return nil, fmt.Errorf("update service: %w", err)
	}

	s.log.Info("Service updated", zap.String("service_id", serviceID))
	resp := response.ServiceToResponse(svc)
	return &resp, nil
}

// DeleteService deactivates the service; existing bookings keep referencing it.
func (s *salonService) DeleteService(ctx context.Context, ownerID uuid.UUID, serviceID string) error {
	svc, err := s.ownedService(ctx, ownerID, serviceID)
	if err != nil {
		return err
	}

	if err := s.repo.Service.Deactivate(ctx, svc.ID); err != nil {
		s.log.Error("Failed to deactivate service", zap.Error(err), zap.String("service_id", serviceID))
		return fmt.Errorf("delete service: %w", err)
	}

	s.log.Info("Service deactivated", zap.String("service_id", serviceID))
	return nil
}

func (s *salonService) CreateSalon(ctx context.Context, req *request.CreateSalonRequest) (*response.SalonResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	ownerID, _ := uuid.Parse(req.OwnerID)
	owner, err := s.repo.User.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: owner not found", utils.ErrNotFound)
	}
	if owner.Role != entity.RoleSalonOwner {
		return nil, fmt.Errorf("%w: user %s is not a salon owner", utils.ErrValidation, owner.Username)
	}

	existing, err := s.repo.Salon.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner salon: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: owner already has a salon", utils.ErrConflict)
	}

	now := time.Now()
	salon := &entity.Salon{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Phone:       req.Phone,
		Email:       req.Email,
		IsActive:    true,
	}

	if err := s.repo.Salon.Create(ctx, salon); err != nil {
		s.log.Error("Failed to create salon", zap.Error(err), zap.String("owner_id", req.OwnerID))
		return nil, fmt.Errorf("create salon: %w", err)
	}

	s.log.Info("Salon created",
		zap.String("salon_id", salon.ID.String()),
		zap.String("owner_id", req.OwnerID))

	resp := response.SalonToResponse(salon)
	return &resp, nil
}
