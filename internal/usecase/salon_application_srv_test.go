package usecase

import (
	"context"
	"testing"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/dto/request"
	"salon-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationRequest() *request.SalonApplicationRequest {
	return &request.SalonApplicationRequest{
		SalonName:       "Maria's Hair Lounge",
		BusinessEmail:   "hello@marias.example.com",
		Phone:           "09171234567",
		Address:         "45 Rizal Ave",
		City:            "Quezon City",
		State:           "Metro Manila",
		PostalCode:      "1100",
		Services:        []string{"Haircut", "Rebond"},
		Description:     "Neighbourhood salon open since 2019.",
		YearsInBusiness: 6,
		StaffCount:      4,
	}
}

func TestSubmitSalonApplication(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	mine, err := svc.Application.GetMyApplication(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.False(t, mine.HasApplication)
	assert.Nil(t, mine.Application)

	app, err := svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatusPending, app.Status)
	assert.Equal(t, "Maria's Hair Lounge", app.SalonName)

	mine, err = svc.Application.GetMyApplication(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, mine.HasApplication)
	require.NotNil(t, mine.Application)
	assert.Equal(t, app.ID, mine.Application.ID)

	_, err = svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestSubmitSalonApplicationRejected(t *testing.T) {
	tests := []struct {
		name    string
		user    func(f *fixture) *entity.User
		modify  func(req *request.SalonApplicationRequest)
		wantErr error
	}{
		{
			name:    "MissingSalonName",
			user:    func(f *fixture) *entity.User { return f.customer },
			modify:  func(req *request.SalonApplicationRequest) { req.SalonName = "" },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "NoStaff",
			user:    func(f *fixture) *entity.User { return f.customer },
			modify:  func(req *request.SalonApplicationRequest) { req.StaffCount = 0 },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "BadEmail",
			user:    func(f *fixture) *entity.User { return f.customer },
			modify:  func(req *request.SalonApplicationRequest) { req.BusinessEmail = "not-an-email" },
			wantErr: utils.ErrValidation,
		},
		{
			name:    "AlreadyOwnsSalon",
			user:    func(f *fixture) *entity.User { return f.owner },
			modify:  func(req *request.SalonApplicationRequest) {},
			wantErr: utils.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.services(Deps{})

			req := applicationRequest()
			tt.modify(req)
			_, err := svc.Application.Submit(context.Background(), tt.user(f).ID, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.applications.apps)
		})
	}
}

func TestApproveSalonApplication(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()
	admin := f.owner.ID

	app, err := svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	require.NoError(t, err)

	notes := "Welcome aboard"
	approved, err := svc.Application.Approve(ctx, admin, app.ID, &request.ReviewApplicationRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatusApproved, approved.Application.Status)
	require.NotNil(t, approved.Application.SalonID)
	assert.Equal(t, approved.Salon.ID, *approved.Application.SalonID)
	assert.Equal(t, "Maria's Hair Lounge", approved.Salon.Name)

	salon, err := f.salons.FindByOwner(ctx, f.customer.ID)
	require.NoError(t, err)
	require.NotNil(t, salon)
	assert.Equal(t, "Quezon City", salon.City)
	assert.True(t, salon.IsActive)

	user, _ := f.users.FindByID(ctx, f.customer.ID)
	assert.Equal(t, entity.RoleSalonOwner, user.Role)
	assert.Equal(t, 1, f.notifications.ofType(entity.NotificationApplicationUpdate))

	// A reviewed application cannot be reviewed again.
	_, err = svc.Application.Approve(ctx, admin, app.ID, &request.ReviewApplicationRequest{})
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	_, err = svc.Application.Reject(ctx, admin, app.ID, &request.ReviewApplicationRequest{})
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	// The new owner cannot apply for a second salon.
	_, err = svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestRejectSalonApplication(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	app, err := svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	require.NoError(t, err)

	notes := "Business permit missing"
	rejected, err := svc.Application.Reject(ctx, f.owner.ID, app.ID, &request.ReviewApplicationRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.AdminNotes)
	assert.Equal(t, notes, *rejected.AdminNotes)

	user, _ := f.users.FindByID(ctx, f.customer.ID)
	assert.Equal(t, entity.RoleCustomer, user.Role)
	owned, _ := f.salons.FindByOwner(ctx, f.customer.ID)
	assert.Nil(t, owned)
	assert.Equal(t, 1, f.notifications.ofType(entity.NotificationApplicationUpdate))

	// Rejection frees the applicant to apply again.
	_, err = svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	assert.NoError(t, err)
}

func TestReviewSalonApplicationLookup(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	_, err := svc.Application.Approve(ctx, f.owner.ID, "not-a-uuid", &request.ReviewApplicationRequest{})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Application.Reject(ctx, f.owner.ID, f.salon.ID.String(), &request.ReviewApplicationRequest{})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListSalonApplications(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	first, err := svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	require.NoError(t, err)
	_, err = svc.Application.Reject(ctx, f.owner.ID, first.ID, &request.ReviewApplicationRequest{})
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	second, err := svc.Application.Submit(ctx, f.customer.ID, applicationRequest())
	require.NoError(t, err)

	all, err := svc.Application.ListApplications(ctx, &request.ApplicationListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)
	assert.Equal(t, int64(2), all.Pagination.Total)

	pending, err := svc.Application.ListApplications(ctx, &request.ApplicationListQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending.Data, 1)
	assert.Equal(t, second.ID, pending.Data[0].ID)

	_, err = svc.Application.ListApplications(ctx, &request.ApplicationListQuery{Status: "archived"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}
