package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	FindBySalon(ctx context.Context, salonID uuid.UUID, activeOnly bool) ([]*entity.Service, error)
	Update(ctx context.Context, service *entity.Service) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type serviceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewServiceRepository(db database.PgxIface, log *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:  db,
		log: log.With(zap.String("repository", "service")),
	}
}

const serviceColumns = `id, salon_id, name, description, price, duration_minutes, is_active,
	created_at, updated_at`

func scanService(row rowScanner) (*entity.Service, error) {
	var s entity.Service
	err := row.Scan(
		&s.ID,
		&s.SalonID,
		&s.Name,
		&s.Description,
		&s.Price,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *entity.Service) error {
	query := `
		INSERT INTO services (id, salon_id, name, description, price, duration_minutes,
		                      is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		service.ID,
		service.SalonID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.IsActive,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create service",
			zap.Error(err),
			zap.String("salon_id", service.SalonID.String()),
			zap.String("name", service.Name),
		)
		return fmt.Errorf("create service %s: %w", service.Name, err)
	}

	return nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	service, err := scanService(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service", zap.Error(err), zap.String("service_id", id.String()))
		return nil, fmt.Errorf("find service %s: %w", id.String(), err)
	}

	return service, nil
}

func (r *serviceRepository) FindBySalon(ctx context.Context, salonID uuid.UUID, activeOnly bool) ([]*entity.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE salon_id = $1 AND (is_active = true OR NOT $2)
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, salonID, activeOnly)
	if err != nil {
		r.log.Error("Failed to list services", zap.Error(err), zap.String("salon_id", salonID.String()))
		return nil, fmt.Errorf("list services of salon %s: %w", salonID.String(), err)
	}
	defer rows.Close()

	var services []*entity.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service rows: %w", err)
	}

	return services, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *entity.Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, price = $4, duration_minutes = $5, is_active = $6,
		    updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		service.ID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.IsActive,
		service.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update service", zap.Error(err), zap.String("service_id", service.ID.String()))
		return fmt.Errorf("update service %s: %w", service.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s not found", service.ID.String())
	}

	return nil
}

// Deactivate hides a service from booking without breaking historical bookings.
func (r *serviceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE services SET is_active = false, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to deactivate service", zap.Error(err), zap.String("service_id", id.String()))
		return fmt.Errorf("deactivate service %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s not found", id.String())
	}

	return nil
}
