// Package otp issues and verifies short-lived numeric codes used to confirm
// control of an email address or phone number.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/utils"
)

// Store persists one code per (identifier, channel).
type Store interface {
	SaveOTP(ctx context.Context, otp *models.OTP) error
	GetOTP(ctx context.Context, identifier string, channel models.OTPChannel) (*models.OTP, error)
	DeleteOTP(ctx context.Context, identifier string, channel models.OTPChannel) error
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		ttl:   constants.OTPTTL,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue generates a new code for the pair, replacing any code issued before.
func (m *Manager) Issue(ctx context.Context, identifier string, channel models.OTPChannel) (string, error) {
	code, err := utils.GenerateNumericCode(constants.OTPDigits)
	if err != nil {
		return "", err
	}

	record := &models.OTP{
		Identifier: identifier,
		Type:       channel,
		Code:       code,
		ExpiresAt:  m.now().Add(m.ttl),
	}
	if err := m.store.SaveOTP(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save otp: %w", err)
	}
	return code, nil
}

// Verify reports whether code is the live code for the pair. An expired code
// is removed. Verify never consumes a valid code.
func (m *Manager) Verify(ctx context.Context, identifier, code string, channel models.OTPChannel) (bool, error) {
	record, err := m.store.GetOTP(ctx, identifier, channel)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load otp: %w", err)
	}

	if m.now().After(record.ExpiresAt) {
		if err := m.store.DeleteOTP(ctx, identifier, channel); err != nil {
			return false, fmt.Errorf("failed to delete expired otp: %w", err)
		}
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) == 1, nil
}

// Consume deletes the pair's code so it cannot be replayed.
func (m *Manager) Consume(ctx context.Context, identifier string, channel models.OTPChannel) error {
	return m.store.DeleteOTP(ctx, identifier, channel)
}
