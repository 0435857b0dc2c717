package services

import (
	"errors"

	"github.com/yukikurage/daily-tracker/internal/repository"
)

var (
	ErrNotFound               = errors.New("resource not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("email already registered")
	ErrPhoneTaken             = errors.New("phone number already registered")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrPasswordTooShort       = errors.New("password too short")
	ErrFailedToHashPassword   = errors.New("failed to hash password")
	ErrInvalidChannel         = errors.New("channel must be email or phone")
	ErrInvalidOTP             = errors.New("invalid or expired code")
	ErrOTPDelivery            = errors.New("failed to deliver verification code")
	ErrTitleRequired          = errors.New("title is required")
	ErrNameRequired           = errors.New("name is required")
	ErrMessageRequired        = errors.New("message is required")
	ErrDuplicateTask          = errors.New("a task with this URL was added in the last 5 days")
	ErrInvalidParent          = errors.New("invalid parent folder")
	ErrInvalidFolder          = errors.New("folder does not exist")
	ErrFileContentMissing     = errors.New("file content is missing")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAIEmptyResponse        = errors.New("no response from AI service")
	ErrQuotaExceeded          = errors.New("daily chat limit reached")
)

// owned returns ErrNotFound for records that are missing or belong to
// someone else, so callers cannot discover foreign ids.
func owned[T any](record *T, err error, owner func(*T) string, userID string) (*T, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner(record) != userID {
		return nil, ErrNotFound
	}
	return record, nil
}
