package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/mailer"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionLifetime = 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	GoogleLogin(ctx context.Context, req *request.GoogleLoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	SendOTP(ctx context.Context, req *request.SendOTPRequest) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type authService struct {
	repo   *repository.Repository // user, session and otp repositories
	config *utils.Config
	mailer mailer.Sender
	google IdentityVerifier
	now    func() time.Time
	log    *zap.Logger
}

func NewAuthService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		mailer: deps.Mailer,
		google: deps.Google,
		now:    deps.Now,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Email and username must be unused
	existingUser, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("%w: email already registered", utils.ErrConflict)
	}

	existingUser, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to check username", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("%w: username already taken", utils.ErrConflict)
	}

	// 3. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := entity.RoleCustomer
	if req.Role != "" {
		role = entity.UserRole(req.Role)
	}

	// 4. Create user
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:      req.Username,
		Email:         strings.ToLower(req.Email),
		PasswordHash:  hashedPassword,
		FullName:      req.FullName,
		Phone:         req.Phone,
		Role:          role,
		EmailVerified: false,
		IsActive:      true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("create account: %w", err)
	}

	// 5. Verification code; delivery problems do not undo the registration
	if err := s.issueOTP(ctx, user, entity.OTPTypeEmailVerification); err != nil {
		s.log.Warn("Verification code not delivered", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	// 6. Auto login after register
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Warn("Failed to create session after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	// Try the identifier as an email first, then as a username
	user, err := s.repo.User.FindByEmail(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("identifier", req.Username))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		user, err = s.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			s.log.Error("Failed to find user by username", zap.Error(err), zap.String("identifier", req.Username))
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	if user == nil || user.PasswordHash == "" || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt", zap.String("identifier", req.Username))
		return nil, fmt.Errorf("%w: invalid credentials", utils.ErrUnauthorized)
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: account is deactivated", utils.ErrForbidden)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

// GoogleLogin signs in with a Google ID token, linking the Google account to
// an existing user with the same email or creating a new customer.
func (s *authService) GoogleLogin(ctx context.Context, req *request.GoogleLoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if s.google == nil {
		return nil, fmt.Errorf("%w: google login is not configured", utils.ErrUnavailable)
	}

	identity, err := s.google.Verify(ctx, req.Token)
	if err != nil {
		s.log.Warn("Google token rejected", zap.Error(err))
		return nil, err
	}
	if !identity.EmailVerified {
		return nil, fmt.Errorf("%w: google email is not verified", utils.ErrUnauthorized)
	}

	user, err := s.repo.User.FindByGoogleID(ctx, identity.Subject)
	if err != nil {
		return nil, fmt.Errorf("find user by google id: %w", err)
	}

	if user == nil {
		user, err = s.repo.User.FindByEmail(ctx, identity.Email)
		if err != nil {
			return nil, fmt.Errorf("find user by email: %w", err)
		}

		if user != nil {
			user.GoogleID = &identity.Subject
			user.EmailVerified = true
			user.UpdatedAt = s.now()
			if err := s.repo.User.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
			s.log.Info("Google account linked", zap.String("user_id", user.ID.String()))
		} else {
			user, err = s.createGoogleUser(ctx, identity.Subject, identity.Email, identity.Name)
			if err != nil {
				return nil, err
			}
		}
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", utils.ErrForbidden)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in with Google", zap.String("user_id", user.ID.String()))
	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) createGoogleUser(ctx context.Context, subject, email, name string) (*entity.User, error) {
	base := strings.SplitN(email, "@", 2)[0]
	username := base
	for i := 0; i < 5; i++ {
		existing, err := s.repo.User.FindByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if existing == nil {
			break
		}
		username = fmt.Sprintf("%s%s", base, utils.GenerateOTP(4))
	}

	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:      username,
		Email:         strings.ToLower(email),
		Role:          entity.RoleCustomer,
		GoogleID:      &subject,
		EmailVerified: true,
		IsActive:      true,
	}
	if name != "" {
		user.FullName = &name
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.log.Error("Failed to create Google user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("User registered with Google", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	tokenUUID, err := uuid.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: invalid token format", utils.ErrUnauthorized)
	}

	if err := s.repo.Session.Revoke(ctx, tokenUUID); err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}

	s.log.Info("User logged out")
	return nil
}

func (s *authService) SendOTP(ctx context.Context, req *request.SendOTPRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user for OTP", zap.Error(err), zap.String("email", req.Email))
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: no account for %s", utils.ErrNotFound, req.Email)
	}

	otpType := entity.OTPType(req.Type)
	if otpType == entity.OTPTypeEmailVerification && user.EmailVerified {
		return fmt.Errorf("%w: email already verified", utils.ErrInvalidState)
	}

	return s.issueOTP(ctx, user, otpType)
}

// issueOTP replaces any outstanding code of otpType and emails a new one.
// The delivery error is returned so callers can decide if it is fatal.
func (s *authService) issueOTP(ctx context.Context, user *entity.User, otpType entity.OTPType) error {
	if err := s.repo.OTP.InvalidateAll(ctx, user.Email, otpType); err != nil {
		s.log.Warn("Failed to invalidate previous OTPs", zap.Error(err), zap.String("email", user.Email))
	}

	code := utils.GenerateOTP(s.config.OTP.Length)
	expiresAt := s.now().Add(time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute)

	otp := &entity.OTP{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		UserID:    user.ID,
		Email:     user.Email,
		OTPCode:   code,
		OTPType:   otpType,
		ExpiresAt: expiresAt,
	}

	if err := s.repo.OTP.Create(ctx, otp); err != nil {
		s.log.Error("Failed to save OTP", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("save otp: %w", err)
	}

	s.log.Info("OTP generated",
		zap.String("email", user.Email),
		zap.String("otp_type", string(otpType)),
		zap.Time("expires_at", expiresAt))

	if s.mailer == nil {
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()

	err := s.mailer.Send(sendCtx, mailer.Message{
		To:      user.Email,
		ToName:  user.DisplayName(),
		Subject: otpType.Subject(),
		TextBody: fmt.Sprintf("Hi %s,\n\nUse the code %s to %s. It expires in %d minutes.\n",
			user.DisplayName(), code, otpType.Purpose(), s.config.OTP.ExpiryMinutes),
	})
	if err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// consumeOTP validates code for email and marks it used.
func (s *authService) consumeOTP(ctx context.Context, email, code string, otpType entity.OTPType) (*entity.User, error) {
	otp, err := s.repo.OTP.FindValid(ctx, email, code, otpType)
	if err != nil {
		s.log.Error("Failed to find OTP", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find otp: %w", err)
	}
	if otp == nil || !otp.Usable(s.now()) {
		return nil, fmt.Errorf("%w: invalid or expired OTP", utils.ErrValidation)
	}

	claimed, err := s.repo.OTP.Claim(ctx, otp.ID)
	if err != nil {
		return nil, fmt.Errorf("claim otp: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: invalid or expired OTP", utils.ErrValidation)
	}

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no account for %s", utils.ErrNotFound, email)
	}
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Verify email validation failed", zap.Any("errors", errs))
		return fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.consumeOTP(ctx, req.Email, req.OTP, entity.OTPTypeEmailVerification)
	if err != nil {
		return err
	}

	if err := s.repo.User.MarkEmailVerified(ctx, user.ID); err != nil {
		s.log.Error("Failed to mark email verified", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("verify email: %w", err)
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.consumeOTP(ctx, req.Email, req.OTP, entity.OTPTypePasswordReset)
	if err != nil {
		return err
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.User.UpdatePassword(ctx, user.ID, hashed); err != nil {
		s.log.Error("Failed to update password", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("update password: %w", err)
	}

	// Existing sessions end with the old password
	if err := s.repo.Session.RevokeAllForUser(ctx, user.ID); err != nil {
		s.log.Warn("Failed to revoke sessions after reset", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	now := s.now()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    userID,
		Token:     utils.GenerateSessionToken(),
		ExpiresAt: now.Add(sessionLifetime),
	}

	if ip := utils.GetClientIP(ctx); ip != "" {
		session.IPAddress = &ip
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
