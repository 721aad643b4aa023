package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SalonFilter struct {
	City   string
	Search string
	Limit  int
	Offset int
}

type SalonRepository interface {
	Create(ctx context.Context, salon *entity.Salon) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Salon, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Salon, error)
	FindAll(ctx context.Context, filter SalonFilter) ([]*entity.Salon, error)
	Count(ctx context.Context, filter SalonFilter) (int64, error)
	Update(ctx context.Context, salon *entity.Salon) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
}

type salonRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSalonRepository(db database.PgxIface, log *zap.Logger) SalonRepository {
	return &salonRepository{
		db:  db,
		log: log.With(zap.String("repository", "salon")),
	}
}

const salonColumns = `id, owner_id, name, description, address, city, phone, email, rating,
	is_active, created_at, updated_at, deleted_at`

func scanSalon(row rowScanner) (*entity.Salon, error) {
	var s entity.Salon
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Description,
		&s.Address,
		&s.City,
		&s.Phone,
		&s.Email,
		&s.Rating,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func insertSalon(ctx context.Context, db execer, salon *entity.Salon) error {
	query := `
		INSERT INTO salons (id, owner_id, name, description, address, city, phone, email,
		                    rating, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := db.Exec(ctx, query,
		salon.ID,
		salon.OwnerID,
		salon.Name,
		salon.Description,
		salon.Address,
		salon.City,
		salon.Phone,
		salon.Email,
		salon.Rating,
		salon.IsActive,
		salon.CreatedAt,
		salon.UpdatedAt,
	)
	return err
}

func (r *salonRepository) Create(ctx context.Context, salon *entity.Salon) error {
	if err := insertSalon(ctx, r.db, salon); err != nil {
		r.log.Error("Failed to create salon", zap.Error(err), zap.String("name", salon.Name))
		return fmt.Errorf("create salon %s: %w", salon.Name, err)
	}

	return nil
}

func (r *salonRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Salon, error) {
	query := `SELECT ` + salonColumns + ` FROM salons WHERE id = $1 AND deleted_at IS NULL`

	salon, err := scanSalon(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find salon", zap.Error(err), zap.String("salon_id", id.String()))
		return nil, fmt.Errorf("find salon %s: %w", id.String(), err)
	}

	return salon, nil
}

func (r *salonRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Salon, error) {
	query := `
		SELECT ` + salonColumns + `
		FROM salons
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT 1
	`

	salon, err := scanSalon(r.db.QueryRow(ctx, query, ownerID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find salon by owner", zap.Error(err), zap.String("owner_id", ownerID.String()))
		return nil, fmt.Errorf("find salon for owner %s: %w", ownerID.String(), err)
	}

	return salon, nil
}

func salonWhere(filter SalonFilter) (string, []any) {
	where := `WHERE deleted_at IS NULL AND is_active = true`
	args := []any{}

	if filter.City != "" {
		args = append(args, filter.City)
		where += fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", len(args), len(args))
	}

	return where, args
}

func (r *salonRepository) FindAll(ctx context.Context, filter SalonFilter) ([]*entity.Salon, error) {
	where, args := salonWhere(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM salons
		%s
		ORDER BY rating DESC, name
		LIMIT $%d OFFSET $%d
	`, salonColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list salons", zap.Error(err))
		return nil, fmt.Errorf("list salons: %w", err)
	}
	defer rows.Close()

	var salons []*entity.Salon
	for rows.Next() {
		salon, err := scanSalon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan salon row: %w", err)
		}
		salons = append(salons, salon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate salon rows: %w", err)
	}

	return salons, nil
}

func (r *salonRepository) Count(ctx context.Context, filter SalonFilter) (int64, error) {
	where, args := salonWhere(filter)
	query := `SELECT COUNT(*) FROM salons ` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count salons", zap.Error(err))
		return 0, fmt.Errorf("count salons: %w", err)
	}

	return count, nil
}

func (r *salonRepository) Update(ctx context.Context, salon *entity.Salon) error {
	query := `
		UPDATE salons
		SET name = $2, description = $3, address = $4, city = $5, phone = $6, email = $7,
		    is_active = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		salon.ID,
		salon.Name,
		salon.Description,
		salon.Address,
		salon.City,
		salon.Phone,
		salon.Email,
		salon.IsActive,
		salon.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update salon", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return fmt.Errorf("update salon %s: %w", salon.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("salon %s not found", salon.ID.String())
	}

	return nil
}

func (r *salonRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	query := `UPDATE salons SET rating = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, rating); err != nil {
		r.log.Error("Failed to update salon rating", zap.Error(err), zap.String("salon_id", id.String()))
		return fmt.Errorf("update rating of salon %s: %w", id.String(), err)
	}

	return nil
}
