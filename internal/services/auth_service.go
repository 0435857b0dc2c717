package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/otp"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Notifier delivers one-time codes.
type Notifier interface {
	Deliver(ctx context.Context, channel models.OTPChannel, to, code string) error
}

// AuthService handles accounts, passwords and one-time codes.
type AuthService struct {
	store    *repository.Store
	otps     *otp.Manager
	notifier Notifier
	logger   *slog.Logger
}

func NewAuthService(store *repository.Store, otps *otp.Manager, notifier Notifier, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		otps:     otps,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// Register creates a user after checking that the email and phone are free.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := s.ensureFree(ctx, repository.ByEmail, email, ErrEmailTaken); err != nil {
		return nil, err
	}

	var phone *string
	if p := strings.TrimSpace(input.Phone); p != "" {
		if err := s.ensureFree(ctx, repository.ByPhone, p, ErrPhoneTaken); err != nil {
			return nil, err
		}
		phone = &p
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ensureFree(ctx context.Context, by repository.UserLookup, value string, taken error) error {
	_, err := s.store.FindUser(ctx, by, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check %s: %w", by, err)
	}
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.FindUser(ctx, repository.ByEmail, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SendOTP issues a code for a registered email or phone and delivers it.
func (s *AuthService) SendOTP(ctx context.Context, identifier string, channel models.OTPChannel) error {
	identifier, err := s.normalizeIdentifier(identifier, channel)
	if err != nil {
		return err
	}
	if _, err := s.findByIdentifier(ctx, identifier, channel); err != nil {
		return err
	}

	code, err := s.otps.Issue(ctx, identifier, channel)
	if err != nil {
		return fmt.Errorf("failed to issue code: %w", err)
	}

	if err := s.notifier.Deliver(ctx, channel, identifier, code); err != nil {
		s.logger.Error("otp delivery failed", "channel", channel, "error", err)
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	s.logger.Info("otp sent", "channel", channel)
	return nil
}

// VerifyOTP checks a code without consuming it.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string, channel models.OTPChannel) (bool, error) {
	identifier, err := s.normalizeIdentifier(identifier, channel)
	if err != nil {
		return false, err
	}
	return s.otps.Verify(ctx, identifier, code, channel)
}

// LoginWithPhone authenticates with a phone code and consumes it.
func (s *AuthService) LoginWithPhone(ctx context.Context, phone, code string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if err := s.checkCode(ctx, phone, code, models.OTPChannelPhone); err != nil {
		return nil, err
	}

	user, err := s.findByIdentifier(ctx, phone, models.OTPChannelPhone)
	if err != nil {
		return nil, err
	}

	if err := s.otps.Consume(ctx, phone, models.OTPChannelPhone); err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}
	return user, nil
}

// ResetPassword replaces the password of the account owning email once the
// emailed code is verified. The code is consumed on success.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if err := s.checkCode(ctx, email, code, models.OTPChannelEmail); err != nil {
		return err
	}

	user, err := s.findByIdentifier(ctx, email, models.OTPChannelEmail)
	if err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.UpdateUser(ctx, user.ID, repository.UserPatch{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.otps.Consume(ctx, email, models.OTPChannelEmail); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and everything the user owns.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AuthService) checkCode(ctx context.Context, identifier, code string, channel models.OTPChannel) error {
	ok, err := s.otps.Verify(ctx, identifier, code, channel)
	if err != nil {
		return fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

func (s *AuthService) normalizeIdentifier(identifier string, channel models.OTPChannel) (string, error) {
	switch channel {
	case models.OTPChannelEmail:
		return normalizeEmail(identifier)
	case models.OTPChannelPhone:
		return strings.TrimSpace(identifier), nil
	default:
		return "", ErrInvalidChannel
	}
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string, channel models.OTPChannel) (*models.User, error) {
	by := repository.ByEmail
	if channel == models.OTPChannelPhone {
		by = repository.ByPhone
	}

	user, err := s.store.FindUser(ctx, by, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hash), nil
}
