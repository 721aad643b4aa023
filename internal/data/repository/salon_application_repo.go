package repository

import (
	"context"
	"errors"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var errNotPending = errors.New("application is not pending")

type SalonApplicationRepository interface {
	Create(ctx context.Context, app *entity.SalonApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SalonApplication, error)
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.SalonApplication, error)
	HasPending(ctx context.Context, userID uuid.UUID) (bool, error)
	FindAll(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.SalonApplication, error)
	Count(ctx context.Context, status entity.ApplicationStatus) (int64, error)

	// Approve marks a pending application approved, creates salon and
	// promotes a customer applicant to salon_owner in one transaction.
	// applied is false when the application was no longer pending.
	Approve(ctx context.Context, id, reviewerID uuid.UUID, notes *string, salon *entity.Salon) (applied bool, err error)
	// Reject marks a pending application rejected.
	Reject(ctx context.Context, id, reviewerID uuid.UUID, notes *string) (applied bool, err error)
}

type salonApplicationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSalonApplicationRepository(db database.PgxIface, log *zap.Logger) SalonApplicationRepository {
	return &salonApplicationRepository{
		db:  db,
		log: log.With(zap.String("repository", "salon_application")),
	}
}

const salonApplicationColumns = `id, user_id, salon_name, business_email, phone, website, address, city,
	state, postal_code, services, description, years_in_business, staff_count, application_reason,
	status, admin_notes, reviewed_by, reviewed_at, salon_id, created_at, updated_at`

func scanSalonApplication(row rowScanner) (*entity.SalonApplication, error) {
	var a entity.SalonApplication
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.SalonName,
		&a.BusinessEmail,
		&a.Phone,
		&a.Website,
		&a.Address,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Services,
		&a.Description,
		&a.YearsInBusiness,
		&a.StaffCount,
		&a.ApplicationReason,
		&a.Status,
		&a.AdminNotes,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.SalonID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *salonApplicationRepository) Create(ctx context.Context, app *entity.SalonApplication) error {
	if app.Services == nil {
		app.Services = []string{}
	}

	query := `
		INSERT INTO salon_applications (id, user_id, salon_name, business_email, phone, website,
		                                address, city, state, postal_code, services, description,
		                                years_in_business, staff_count, application_reason, status,
		                                created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		app.ID,
		app.UserID,
		app.SalonName,
		app.BusinessEmail,
		app.Phone,
		app.Website,
		app.Address,
		app.City,
		app.State,
		app.PostalCode,
		app.Services,
		app.Description,
		app.YearsInBusiness,
		app.StaffCount,
		app.ApplicationReason,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create salon application",
			zap.Error(err),
			zap.String("user_id", app.UserID.String()),
			zap.String("salon_name", app.SalonName),
		)
		return fmt.Errorf("create salon application for user %s: %w", app.UserID.String(), err)
	}

	return nil
}

func (r *salonApplicationRepository) findOne(ctx context.Context, where string, arg any) (*entity.SalonApplication, error) {
	query := `SELECT ` + salonApplicationColumns + ` FROM salon_applications WHERE ` + where

	app, err := scanSalonApplication(r.db.QueryRow(ctx, query, arg))
	if isNoRows(err) {
		return nil, nil
	}
	return app, err
}

func (r *salonApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SalonApplication, error) {
	app, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		r.log.Error("Failed to find salon application", zap.Error(err), zap.String("application_id", id.String()))
		return nil, fmt.Errorf("find salon application %s: %w", id.String(), err)
	}
	return app, nil
}

func (r *salonApplicationRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.SalonApplication, error) {
	app, err := r.findOne(ctx, "user_id = $1 ORDER BY created_at DESC LIMIT 1", userID)
	if err != nil {
		r.log.Error("Failed to find user application", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find application of user %s: %w", userID.String(), err)
	}
	return app, nil
}

func (r *salonApplicationRepository) HasPending(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM salon_applications WHERE user_id = $1 AND status = 'pending')`
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		r.log.Error("Failed to check pending application", zap.Error(err), zap.String("user_id", userID.String()))
		return false, fmt.Errorf("check pending application of user %s: %w", userID.String(), err)
	}
	return exists, nil
}

// statusFilter matches every status when status is empty.
const statusFilter = `($1 = '' OR status = $1)`

func (r *salonApplicationRepository) FindAll(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.SalonApplication, error) {
	query := `
		SELECT ` + salonApplicationColumns + `
		FROM salon_applications
		WHERE ` + statusFilter + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to list salon applications", zap.Error(err), zap.String("status", string(status)))
		return nil, fmt.Errorf("list salon applications: %w", err)
	}
	defer rows.Close()

	var apps []*entity.SalonApplication
	for rows.Next() {
		app, err := scanSalonApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan salon application row: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate salon application rows: %w", err)
	}

	return apps, nil
}

func (r *salonApplicationRepository) Count(ctx context.Context, status entity.ApplicationStatus) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM salon_applications WHERE ` + statusFilter
	if err := r.db.QueryRow(ctx, query, string(status)).Scan(&count); err != nil {
		r.log.Error("Failed to count salon applications", zap.Error(err))
		return 0, fmt.Errorf("count salon applications: %w", err)
	}
	return count, nil
}

func (r *salonApplicationRepository) Approve(ctx context.Context, id, reviewerID uuid.UUID, notes *string, salon *entity.Salon) (bool, error) {
	applied := false
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertSalon(ctx, tx, salon); err != nil {
			return fmt.Errorf("create salon: %w", err)
		}

		result, err := tx.Exec(ctx, `
			UPDATE salon_applications
			SET status = 'approved', reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3,
			    salon_id = $4, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'`,
			id, reviewerID, notes, salon.ID)
		if err != nil {
			return fmt.Errorf("approve application: %w", err)
		}
		if result.RowsAffected() == 0 {
			// Rolls the salon insert back.
			return errNotPending
		}

		if _, err := tx.Exec(ctx, `
			UPDATE users SET role = 'salon_owner', updated_at = NOW()
			WHERE id = $1 AND role = 'customer'`, salon.OwnerID); err != nil {
			return fmt.Errorf("promote applicant: %w", err)
		}

		applied = true
		return nil
	})
	if errors.Is(err, errNotPending) {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to approve salon application", zap.Error(err), zap.String("application_id", id.String()))
		return false, err
	}
	return applied, nil
}

func (r *salonApplicationRepository) Reject(ctx context.Context, id, reviewerID uuid.UUID, notes *string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE salon_applications
		SET status = 'rejected', reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, reviewerID, notes)
	if err != nil {
		r.log.Error("Failed to reject salon application", zap.Error(err), zap.String("application_id", id.String()))
		return false, fmt.Errorf("reject salon application %s: %w", id.String(), err)
	}
	return result.RowsAffected() == 1, nil
}
