package constants

import "time"

const (
	// ContextKeyUserID is used both as the session key and the gin context key.
	ContextKeyUserID = "user_id"

	SessionCookieName = "tracker_session"

	MinPasswordLength = 8

	// DefaultUserID is assigned to records created without an owner.
	DefaultUserID = "default-user"

	OTPDigits = 6
	OTPTTL    = 5 * time.Minute

	// TaskDuplicateWindow bounds the URL uniqueness check for tasks.
	TaskDuplicateWindow = 5 * 24 * time.Hour

	DefaultChatDailyLimit = 50

	MaxUploadSize = 50 << 20
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
