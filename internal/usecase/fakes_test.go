package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
)

// The fakes embed the repository interfaces so that methods a test does not
// need panic instead of silently returning zero values.

type fakeUsers struct {
	repository.UserRepository
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (f *fakeUsers) findBy(match func(u *entity.User) bool) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.findBy(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return f.findBy(func(u *entity.User) bool { return u.Username == username }), nil
}

func (f *fakeUsers) FindByGoogleID(_ context.Context, googleID string) (*entity.User, error) {
	return f.findBy(func(u *entity.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }), nil
}

func (f *fakeUsers) Update(ctx context.Context, user *entity.User) error {
	return f.Create(ctx, user)
}

func (f *fakeUsers) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeUsers) update(id uuid.UUID, fn func(u *entity.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	return f.update(id, func(u *entity.User) { u.EmailVerified = true })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return f.update(id, func(u *entity.User) { u.PasswordHash = passwordHash })
}

// promote mirrors the role update of an approved salon application.
func (f *fakeUsers) promote(id uuid.UUID) {
	_ = f.update(id, func(u *entity.User) {
		if u.Role == entity.RoleCustomer {
			u.Role = entity.RoleSalonOwner
		}
	})
}

type fakeSalons struct {
	repository.SalonRepository
	mu      sync.Mutex
	salons  map[uuid.UUID]*entity.Salon
	ratings map[uuid.UUID]float64
}

func newFakeSalons(salons ...*entity.Salon) *fakeSalons {
	f := &fakeSalons{salons: make(map[uuid.UUID]*entity.Salon), ratings: make(map[uuid.UUID]float64)}
	for _, s := range salons {
		f.salons[s.ID] = s
	}
	return f
}

func (f *fakeSalons) FindByID(_ context.Context, id uuid.UUID) (*entity.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.salons[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (f *fakeSalons) FindByOwner(_ context.Context, ownerID uuid.UUID) (*entity.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.salons {
		if s.OwnerID == ownerID {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeSalons) UpdateRating(_ context.Context, id uuid.UUID, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[id] = rating
	return nil
}

func (f *fakeSalons) Update(_ context.Context, salon *entity.Salon) error {
	f.insert(salon)
	return nil
}

func (f *fakeSalons) insert(salon *entity.Salon) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *salon
	f.salons[salon.ID] = &c
}

type fakeServices struct {
	repository.ServiceRepository
	mu       sync.Mutex
	services map[uuid.UUID]*entity.Service
}

func newFakeServices(services ...*entity.Service) *fakeServices {
	f := &fakeServices{services: make(map[uuid.UUID]*entity.Service)}
	for _, s := range services {
		f.services[s.ID] = s
	}
	return f
}

func (f *fakeServices) FindByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.services[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (f *fakeServices) FindBySalon(_ context.Context, salonID uuid.UUID, activeOnly bool) ([]*entity.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Service
	for _, s := range f.services {
		if s.SalonID != salonID || (activeOnly && !s.IsActive) {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeServices) Create(_ context.Context, s *entity.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *s
	f.services[s.ID] = &c
	return nil
}

func (f *fakeServices) Update(ctx context.Context, s *entity.Service) error {
	return f.Create(ctx, s)
}

func (f *fakeServices) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.services[id]; ok {
		s.IsActive = false
	}
	return nil
}

// fakeBookings mirrors the SQL predicates of the postgres repository.
type fakeBookings struct {
	repository.BookingRepository
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	txns     *fakeTransactions
}

func newFakeBookings(txns *fakeTransactions) *fakeBookings {
	return &fakeBookings{bookings: make(map[uuid.UUID]*entity.Booking), txns: txns}
}

func (f *fakeBookings) put(b *entity.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *b
	f.bookings[b.ID] = &c
}

func (f *fakeBookings) get(id uuid.UUID) *entity.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		c := *b
		return &c
	}
	return nil
}

func (f *fakeBookings) Create(ctx context.Context, b *entity.Booking, txn *entity.Transaction) error {
	f.put(b)
	if txn != nil {
		return f.txns.Create(ctx, txn)
	}
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	return f.get(id), nil
}

func (f *fakeBookings) FindActiveBySalonAndDate(_ context.Context, salonID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.SalonID != salonID || !sameDay(b.BookingDate, date) || b.Status == entity.BookingStatusCancelled {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime < out[j].BookingTime })
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (f *fakeBookings) update(id uuid.UUID, fn func(b *entity.Booking)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return utils.ErrNotFound
	}
	fn(b)
	return nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uuid.UUID, status entity.BookingStatus) error {
	return f.update(id, func(b *entity.Booking) { b.Status = status })
}

func (f *fakeBookings) UpdatePaymentStatus(_ context.Context, id uuid.UUID, ps entity.PaymentStatus) error {
	return f.update(id, func(b *entity.Booking) { b.PaymentStatus = ps })
}

func (f *fakeBookings) SetStatuses(_ context.Context, id uuid.UUID, status entity.BookingStatus, ps entity.PaymentStatus) error {
	return f.update(id, func(b *entity.Booking) {
		b.Status = status
		b.PaymentStatus = ps
	})
}

func (f *fakeBookings) AttachPayment(_ context.Context, id uuid.UUID, method entity.PaymentMethod, paymentID string, hold *time.Time) error {
	return f.update(id, func(b *entity.Booking) {
		b.PaymentMethod = method
		b.PaymentID = &paymentID
		b.HoldExpiresAt = hold
	})
}

func (f *fakeBookings) MarkPaid(_ context.Context, id uuid.UUID, method entity.PaymentMethod) error {
	return f.update(id, func(b *entity.Booking) {
		b.PaymentStatus = entity.PaymentStatusCompleted
		b.PaymentMethod = method
		b.HoldExpiresAt = nil
		if b.Status == entity.BookingStatusPending {
			b.Status = entity.BookingStatusConfirmed
		}
	})
}

func expiredPending(b *entity.Booking, cutoff time.Time) bool {
	return b.Status == entity.BookingStatusPending &&
		b.PaymentStatus == entity.PaymentStatusPending &&
		b.PaymentMethod != entity.PaymentMethodPayLater &&
		b.CreatedAt.Before(cutoff)
}

func (f *fakeBookings) FindExpiredPending(_ context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Booking
	for _, b := range f.bookings {
		if expiredPending(b, cutoff) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookings) CancelExpired(ctx context.Context, ids []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	var cancelled []uuid.UUID
	for _, id := range ids {
		if b, ok := f.bookings[id]; ok && expiredPending(b, cutoff) {
			b.Status = entity.BookingStatusCancelled
			cancelled = append(cancelled, id)
		}
	}
	f.mu.Unlock()

	for _, id := range cancelled {
		if _, err := f.txns.CancelPendingByBooking(ctx, id); err != nil {
			return nil, err
		}
	}
	return cancelled, nil
}

type fakeTransactions struct {
	repository.TransactionRepository
	mu   sync.Mutex
	txns map[uuid.UUID]*entity.Transaction
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{txns: make(map[uuid.UUID]*entity.Transaction)}
}

func (f *fakeTransactions) all() []*entity.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Transaction, 0, len(f.txns))
	for _, t := range f.txns {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeTransactions) find(match func(t *entity.Transaction) bool) *entity.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if match(t) {
			c := *t
			return &c
		}
	}
	return nil
}

func (f *fakeTransactions) Create(_ context.Context, t *entity.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *t
	f.txns[t.ID] = &c
	return nil
}

func (f *fakeTransactions) FindByID(_ context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return f.find(func(t *entity.Transaction) bool { return t.ID == id }), nil
}

func (f *fakeTransactions) FindByProviderID(_ context.Context, providerID string) (*entity.Transaction, error) {
	return f.find(func(t *entity.Transaction) bool {
		return t.Type == entity.TransactionTypePayment && t.ProviderID != nil && *t.ProviderID == providerID
	}), nil
}

func (f *fakeTransactions) FindPendingByBooking(_ context.Context, bookingID uuid.UUID) (*entity.Transaction, error) {
	return f.find(func(t *entity.Transaction) bool {
		return t.BookingID == bookingID && t.Type == entity.TransactionTypePayment &&
			(t.Status == entity.TransactionStatusPending || t.Status == entity.TransactionStatusProcessing)
	}), nil
}

func (f *fakeTransactions) FindCompletedPayment(_ context.Context, bookingID uuid.UUID) (*entity.Transaction, error) {
	return f.find(func(t *entity.Transaction) bool {
		return t.BookingID == bookingID && t.Type == entity.TransactionTypePayment && t.Status == entity.TransactionStatusCompleted
	}), nil
}

func (f *fakeTransactions) UpdateProvider(_ context.Context, id uuid.UUID, method entity.PaymentMethod, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.txns[id]; ok {
		t.PaymentMethod = method
		t.ProviderID = &providerID
	}
	return nil
}

// transition applies to when the row is in one of from.
func (f *fakeTransactions) transition(id uuid.UUID, to entity.TransactionStatus, fn func(t *entity.Transaction), from ...entity.TransactionStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[id]
	if !ok {
		return false
	}
	for _, s := range from {
		if t.Status == s {
			t.Status = to
			if fn != nil {
				fn(t)
			}
			return true
		}
	}
	return false
}

func (f *fakeTransactions) MarkCompleted(_ context.Context, id uuid.UUID, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (bool, error) {
	return f.transition(id, entity.TransactionStatusCompleted, func(t *entity.Transaction) {
		t.PaymentMethod = method
		if providerTxnID != "" {
			t.ProviderTransactionID = &providerTxnID
		}
		if t.Metadata == nil {
			t.Metadata = map[string]any{}
		}
		for k, v := range metadata {
			t.Metadata[k] = v
		}
		now := time.Now()
		t.ProcessedAt = &now
	}, entity.TransactionStatusPending, entity.TransactionStatusProcessing), nil
}

func (f *fakeTransactions) MarkFailed(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	return f.transition(id, entity.TransactionStatusFailed, func(t *entity.Transaction) {
		if t.Metadata == nil {
			t.Metadata = map[string]any{}
		}
		t.Metadata["failure_reason"] = reason
	}, entity.TransactionStatusPending, entity.TransactionStatusProcessing), nil
}

func (f *fakeTransactions) SettleLate(_ context.Context, id uuid.UUID, status entity.TransactionStatus, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (bool, error) {
	return f.transition(id, status, func(t *entity.Transaction) {
		t.PaymentMethod = method
		if providerTxnID != "" {
			t.ProviderTransactionID = &providerTxnID
		}
		if t.Metadata == nil {
			t.Metadata = map[string]any{}
		}
		for k, v := range metadata {
			t.Metadata[k] = v
		}
	}, entity.TransactionStatusCancelled, entity.TransactionStatusFailed), nil
}

func (f *fakeTransactions) byBooking(bookingID uuid.UUID, to entity.TransactionStatus) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.txns {
		if t.BookingID == bookingID && t.Status == entity.TransactionStatusPending {
			t.Status = to
			n++
		}
	}
	return n
}

func (f *fakeTransactions) FailPendingByBooking(_ context.Context, bookingID uuid.UUID, _ string) (int64, error) {
	return f.byBooking(bookingID, entity.TransactionStatusFailed), nil
}

func (f *fakeTransactions) CancelPendingByBooking(_ context.Context, bookingID uuid.UUID) (int64, error) {
	return f.byBooking(bookingID, entity.TransactionStatusCancelled), nil
}

func (f *fakeTransactions) MarkRefunded(_ context.Context, id uuid.UUID) (bool, error) {
	return f.transition(id, entity.TransactionStatusRefunded, nil, entity.TransactionStatusCompleted), nil
}

func (f *fakeTransactions) matching(filter repository.TransactionFilter) []*entity.Transaction {
	var out []*entity.Transaction
	for _, t := range f.all() {
		if t.SalonID == filter.SalonID && (filter.Status == "" || t.Status == filter.Status) {
			out = append(out, t)
		}
	}
	// newest first, like the SQL
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeTransactions) ListBySalon(_ context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	out := f.matching(filter)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeTransactions) CountBySalon(_ context.Context, filter repository.TransactionFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func (f *fakeTransactions) SummaryBySalon(_ context.Context, salonID uuid.UUID) (*repository.TransactionSummary, error) {
	var s repository.TransactionSummary
	for _, t := range f.all() {
		if t.SalonID != salonID {
			continue
		}
		s.TransactionCount++
		switch t.Status {
		case entity.TransactionStatusCompleted:
			s.TotalPlatformFees += t.PlatformFee
			if t.Type == entity.TransactionTypePayment {
				if t.SalonPayout > 0 {
					s.TotalRevenue += t.SalonPayout
				} else {
					s.TotalRevenue += t.Amount
				}
			}
		case entity.TransactionStatusPending:
			s.PendingPayments += t.Amount
		}
	}
	return &s, nil
}

type fakeWebhookEvents struct {
	repository.WebhookEventRepository
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeWebhookEvents() *fakeWebhookEvents {
	return &fakeWebhookEvents{seen: make(map[string]bool)}
}

func (f *fakeWebhookEvents) IsProcessed(_ context.Context, provider, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[provider+"/"+eventID], nil
}

func (f *fakeWebhookEvents) MarkProcessed(_ context.Context, e *entity.ProcessedWebhookEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := e.Provider + "/" + e.EventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeNotifications struct {
	repository.NotificationRepository
	mu    sync.Mutex
	items []*entity.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	return nil
}

func (f *fakeNotifications) ofType(typ entity.NotificationType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if n.Type == typ {
			count++
		}
	}
	return count
}

func (f *fakeNotifications) forUser(userID uuid.UUID, unreadOnly bool) []*entity.Notification {
	var out []*entity.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotifications) FindByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.forUser(userID, unreadOnly)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) CountByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.forUser(userID, unreadOnly))), nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, item := range f.forUser(userID, true) {
		item.IsRead = true
		n++
	}
	return n, nil
}

type fakeSessions struct {
	repository.SessionRepository
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func (f *fakeSessions) Create(_ context.Context, s *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *s
	f.sessions[s.Token] = &c
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[token]; ok {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (f *fakeSessions) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

// active counts the unrevoked sessions of userID.
func (f *fakeSessions) active(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			count++
		}
	}
	return count
}

type fakeOTPs struct {
	repository.OTPRepository
	mu   sync.Mutex
	otps []*entity.OTP
}

func (f *fakeOTPs) Create(_ context.Context, otp *entity.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *otp
	f.otps = append(f.otps, &c)
	return nil
}

func (f *fakeOTPs) FindValid(_ context.Context, email, code string, otpType entity.OTPType) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.otps {
		if o.Email == email && o.OTPCode == code && o.OTPType == otpType && !o.IsUsed {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeOTPs) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.otps {
		if o.ID == id && !o.IsUsed {
			o.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPs) InvalidateAll(_ context.Context, email string, otpType entity.OTPType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.otps {
		if o.Email == email && o.OTPType == otpType {
			o.IsUsed = true
		}
	}
	return nil
}

// latest returns the newest code issued to email.
func (f *fakeOTPs) latest(email string) *entity.OTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.otps) - 1; i >= 0; i-- {
		if f.otps[i].Email == email {
			c := *f.otps[i]
			return &c
		}
	}
	return nil
}

type fakeChats struct {
	repository.ChatRepository
	mu       sync.Mutex
	chats    map[uuid.UUID]*entity.Chat
	messages []*entity.Message
}

func (f *fakeChats) Find(_ context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.CustomerID == customerID && c.SalonID == salonID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeChats) GetOrCreate(ctx context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error) {
	if c, _ := f.Find(ctx, customerID, salonID); c != nil {
		return c, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &entity.Chat{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, CustomerID: customerID, SalonID: salonID}
	f.chats[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeChats) FindByID(_ context.Context, id uuid.UUID) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.chats[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeChats) AddMessage(_ context.Context, msg *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *msg
	f.messages = append(f.messages, &c)
	if chat, ok := f.chats[msg.ChatID]; ok {
		at := msg.CreatedAt
		chat.LastMessageAt = &at
	}
	return nil
}

func (f *fakeChats) FindMessage(_ context.Context, id uuid.UUID) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeChats) ListMessages(_ context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			c := *m
			out = append(out, &c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChats) MarkRead(_ context.Context, chatID uuid.UUID, reader entity.SenderType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.ChatID == chatID && m.SenderType != reader && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeChats) MarkMessageRead(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			m.IsRead = true
		}
	}
	return nil
}

type fakeReviews struct {
	repository.ReviewRepository
	mu      sync.Mutex
	reviews map[uuid.UUID]*entity.Review
}

func (f *fakeReviews) Create(_ context.Context, r *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *r
	f.reviews[r.ID] = &c
	return nil
}

func (f *fakeReviews) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (f *fakeReviews) ExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID != nil && *r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) UpdateStatus(_ context.Context, id uuid.UUID, status entity.ReviewStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		r.Status = status
	}
	return nil
}

func (f *fakeReviews) Respond(_ context.Context, id uuid.UUID, response string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		r.OwnerResponse = &response
	}
	return nil
}

// Stats averages the approved reviews of salonID.
func (f *fakeReviews) Stats(_ context.Context, salonID uuid.UUID) (*repository.ReviewStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repository.ReviewStats{Distribution: map[int]int64{}}
	sum := 0
	for _, r := range f.reviews {
		if r.SalonID != salonID || r.Status != entity.ReviewStatusApproved {
			continue
		}
		sum += r.Rating
		stats.Total++
		stats.Distribution[r.Rating]++
	}
	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

// fakeApplications approves into the salon and user fakes, the way the
// postgres repository does inside one transaction.
type fakeApplications struct {
	repository.SalonApplicationRepository
	mu     sync.Mutex
	apps   map[uuid.UUID]*entity.SalonApplication
	users  *fakeUsers
	salons *fakeSalons
}

func (f *fakeApplications) Create(_ context.Context, app *entity.SalonApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.UserID == app.UserID && a.Status == entity.ApplicationStatusPending {
			return errors.New("duplicate key value violates unique constraint \"idx_salon_applications_pending\"")
		}
	}
	c := *app
	f.apps[app.ID] = &c
	return nil
}

func (f *fakeApplications) FindByID(_ context.Context, id uuid.UUID) (*entity.SalonApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apps[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (f *fakeApplications) sorted(match func(a *entity.SalonApplication) bool) []*entity.SalonApplication {
	var out []*entity.SalonApplication
	for _, a := range f.apps {
		if match(a) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeApplications) FindLatestByUser(_ context.Context, userID uuid.UUID) (*entity.SalonApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(a *entity.SalonApplication) bool { return a.UserID == userID })
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (f *fakeApplications) HasPending(_ context.Context, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(a *entity.SalonApplication) bool {
		return a.UserID == userID && a.Status == entity.ApplicationStatusPending
	})
	return len(out) > 0, nil
}

func (f *fakeApplications) FindAll(_ context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.SalonApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(a *entity.SalonApplication) bool { return status == "" || a.Status == status })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeApplications) Count(ctx context.Context, status entity.ApplicationStatus) (int64, error) {
	all, _ := f.FindAll(ctx, status, len(f.apps)+1, 0)
	return int64(len(all)), nil
}

func (f *fakeApplications) review(id, reviewerID uuid.UUID, notes *string, status entity.ApplicationStatus) (*entity.SalonApplication, bool) {
	a, ok := f.apps[id]
	if !ok || a.Status != entity.ApplicationStatusPending {
		return nil, false
	}
	now := time.Now()
	a.Status = status
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	a.AdminNotes = notes
	return a, true
}

func (f *fakeApplications) Approve(_ context.Context, id, reviewerID uuid.UUID, notes *string, salon *entity.Salon) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.review(id, reviewerID, notes, entity.ApplicationStatusApproved)
	if !ok {
		return false, nil
	}
	a.SalonID = &salon.ID
	f.salons.insert(salon)
	f.users.promote(salon.OwnerID)
	return true, nil
}

func (f *fakeApplications) Reject(_ context.Context, id, reviewerID uuid.UUID, notes *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.review(id, reviewerID, notes, entity.ApplicationStatusRejected)
	return ok, nil
}

// fixture is a salon with one owner, one customer and two services, stored
// in fakes behind a repository.Repository.
type fixture struct {
	repo          *repository.Repository
	bookings      *fakeBookings
	txns          *fakeTransactions
	webhooks      *fakeWebhookEvents
	notifications *fakeNotifications
	salons        *fakeSalons
	users         *fakeUsers
	catalog       *fakeServices
	sessions      *fakeSessions
	otps          *fakeOTPs
	chats         *fakeChats
	reviews       *fakeReviews
	applications  *fakeApplications

	config   *utils.Config
	owner    *entity.User
	customer *entity.User
	salon    *entity.Salon
	haircut  *entity.Service // 60 minutes
	color    *entity.Service // 90 minutes
	now      time.Time
}

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

const testDate = "2025-06-02"

func newFixture() *fixture {
	owner := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "owner", Email: "owner@example.com", Role: entity.RoleSalonOwner, IsActive: true}
	customer := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "maria", Email: "maria@example.com", Role: entity.RoleCustomer, IsActive: true}
	salon := &entity.Salon{Base: entity.Base{ID: uuid.New()}, OwnerID: owner.ID, Name: "Glow Studio", Address: "12 Mabini St", City: "Manila", IsActive: true}
	haircut := &entity.Service{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, SalonID: salon.ID, Name: "Haircut", Price: 500, DurationMinutes: 60, IsActive: true}
	color := &entity.Service{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, SalonID: salon.ID, Name: "Hair Color", Price: 1999.99, DurationMinutes: 90, IsActive: true}

	txns := newFakeTransactions()
	f := &fixture{
		txns:          txns,
		bookings:      newFakeBookings(txns),
		webhooks:      newFakeWebhookEvents(),
		notifications: &fakeNotifications{},
		salons:        newFakeSalons(salon),
		users:         newFakeUsers(owner, customer),
		catalog:       newFakeServices(haircut, color),
		sessions:      &fakeSessions{sessions: make(map[uuid.UUID]*entity.Session)},
		otps:          &fakeOTPs{},
		chats:         &fakeChats{chats: make(map[uuid.UUID]*entity.Chat)},
		reviews:       &fakeReviews{reviews: make(map[uuid.UUID]*entity.Review)},
		owner:         owner,
		customer:      customer,
		salon:         salon,
		haircut:       haircut,
		color:         color,
		now:           testNow,
		config: &utils.Config{
			App: utils.AppConfig{FrontendURL: "http://localhost:3000"},
			Booking: utils.BookingConfig{
				OpenHour:             9,
				CloseHour:            18,
				SlotMinutes:          30,
				PaymentWindowMinutes: 15,
				LockTTL:              5 * time.Second,
				LockWait:             2 * time.Second,
			},
			Payment: utils.PaymentConfig{Currency: "PHP", PlatformFeeRate: 0.03},
			OTP:     utils.OTPConfig{Length: 6, ExpiryMinutes: 10},
		},
	}
	f.applications = &fakeApplications{apps: make(map[uuid.UUID]*entity.SalonApplication), users: f.users, salons: f.salons}
	f.repo = &repository.Repository{
		User:         f.users,
		Session:      f.sessions,
		OTP:          f.otps,
		Salon:        f.salons,
		Service:      f.catalog,
		Booking:      f.bookings,
		Transaction:  txns,
		WebhookEvent: f.webhooks,
		Notification: f.notifications,
		Chat:         f.chats,
		Review:       f.reviews,
		Application:  f.applications,
	}
	return f
}

func (f *fixture) clock() time.Time { return f.now }

// addBooking stores a booking of the haircut service at clock on testDate.
func (f *fixture) addBooking(clock string, method entity.PaymentMethod, createdAt time.Time) *entity.Booking {
	day, _ := time.ParseInLocation(entity.DateLayout, testDate, time.UTC)
	b := &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt},
		CustomerID:      f.customer.ID,
		SalonID:         f.salon.ID,
		ServiceID:       f.haircut.ID,
		BookingDate:     day,
		BookingTime:     clock,
		DurationMinutes: f.haircut.DurationMinutes,
		CustomerName:    "Maria",
		CustomerEmail:   f.customer.Email,
		Price:           f.haircut.Price,
		Status:          entity.BookingStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
		PaymentMethod:   method,
	}
	if method != entity.PaymentMethodPayLater {
		hold := createdAt.Add(15 * time.Minute)
		b.HoldExpiresAt = &hold
	}
	f.bookings.put(b)
	return b
}

// addPendingTxn records the pending payment of b under providerID.
func (f *fixture) addPendingTxn(b *entity.Booking, providerID string) *entity.Transaction {
	txn := newPaymentTransaction(b, f.config.Payment, "test payment", b.CreatedAt)
	if providerID != "" {
		txn.ProviderID = &providerID
		b.PaymentID = &providerID
		f.bookings.put(b)
	}
	_ = f.txns.Create(context.Background(), txn)
	return txn
}
