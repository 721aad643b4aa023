package usecase

import (
	"context"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultSlotDuration is used when availability is requested without a service.
const defaultSlotDuration = 60

type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, salonID, date, serviceID string) (*response.AvailableSlotsResponse, error)
}

// slotGrid is the fixed grid of bookable start times, in minutes after midnight.
type slotGrid struct {
	open  int
	close int
	step  int
}

func newSlotGrid(config utils.BookingConfig) slotGrid {
	g := slotGrid{open: config.OpenHour * 60, close: config.CloseHour * 60, step: config.SlotMinutes}
	if g.close <= g.open {
		g.open, g.close = 9*60, 18*60
	}
	if g.step <= 0 {
		g.step = 30
	}
	return g
}

// Starts lists the grid start times whose [start, start+duration) fits
// before closing.
func (g slotGrid) Starts(duration int) []int {
	var starts []int
	for start := g.open; start+duration <= g.close; start += g.step {
		starts = append(starts, start)
	}
	return starts
}

// Fits reports whether an interval lies inside business hours.
func (g slotGrid) Fits(start, end int) bool {
	return start >= g.open && end <= g.close
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// findConflict returns the first booking that still blocks its slot at now
// and overlaps [start, end).
func findConflict(bookings []*entity.Booking, start, end int, now time.Time) *entity.Booking {
	for _, b := range bookings {
		if !b.BlocksSlot(now) {
			continue
		}
		bStart, bEnd, err := b.Window()
		if err != nil {
			continue
		}
		if overlaps(start, end, bStart, bEnd) {
			return b
		}
	}
	return nil
}

func displayTime(minute int) string {
	return time.Date(2000, 1, 1, minute/60, minute%60, 0, 0, time.UTC).Format("3:04 PM")
}

type availabilityService struct {
	repo *repository.Repository
	grid slotGrid
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo: repo,
		grid: newSlotGrid(config.Booking),
		loc:  config.App.Location(),
		now:  deps.Now,
		log:  log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, salonID, date, serviceID string) (*response.AvailableSlotsResponse, error) {
	salonUUID, err := uuid.Parse(salonID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salon id %q", utils.ErrValidation, salonID)
	}

	day, err := time.ParseInLocation(entity.DateLayout, date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must use YYYY-MM-DD", utils.ErrValidation)
	}

	salon, err := s.repo.Salon.FindByID(ctx, salonUUID)
	if err != nil {
		s.log.Error("Failed to find salon", zap.Error(err), zap.String("salon_id", salonID))
		return nil, fmt.Errorf("find salon: %w", err)
	}
	if salon == nil {
		return nil, fmt.Errorf("%w: salon %s", utils.ErrNotFound, salonID)
	}

	resp := &response.AvailableSlotsResponse{
		Date:      day.Format(entity.DateLayout),
		SalonID:   salon.ID.String(),
		SalonName: salon.Name,
		Duration:  defaultSlotDuration,
	}

	if serviceID != "" {
		service, err := loadSalonService(ctx, s.repo, salon.ID, serviceID)
		if err != nil {
			return nil, err
		}
		resp.ServiceID = service.ID.String()
		resp.Service = service.Name
		resp.Duration = service.DurationMinutes
	}

	bookings, err := s.repo.Booking.FindActiveBySalonAndDate(ctx, salon.ID, day)
	if err != nil {
		s.log.Error("Failed to load bookings for availability",
			zap.Error(err),
			zap.String("salon_id", salonID),
			zap.String("date", date))
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	now := s.now()
	starts := s.grid.Starts(resp.Duration)
	resp.Slots = make([]response.SlotResponse, 0, len(starts))
	for _, start := range starts {
		end := start + resp.Duration
		if findConflict(bookings, start, end, now) != nil {
			continue
		}
		resp.Slots = append(resp.Slots, response.SlotResponse{
			Time:        entity.FormatClock(start),
			DisplayTime: displayTime(start),
			EndTime:     entity.FormatClock(end),
		})
	}
	resp.TotalSlots = len(resp.Slots)

	return resp, nil
}

// loadSalonService returns the active service serviceID of salonID.
func loadSalonService(ctx context.Context, repo *repository.Repository, salonID uuid.UUID, serviceID string) (*entity.Service, error) {
	serviceUUID, err := uuid.Parse(serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service id %q", utils.ErrValidation, serviceID)
	}

	service, err := repo.Service.FindByID(ctx, serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	if service == nil || service.SalonID != salonID || !service.IsActive {
		return nil, fmt.Errorf("%w: service %s", utils.ErrNotFound, serviceID)
	}
	return service, nil
}
