package models

import "time"

type OTPChannel string

const (
	OTPChannelEmail OTPChannel = "email"
	OTPChannelPhone OTPChannel = "phone"
)

// Valid reports whether c is a known channel.
func (c OTPChannel) Valid() bool {
	return c == OTPChannelEmail || c == OTPChannelPhone
}

// OTP is the single live code for an (identifier, channel) pair.
type OTP struct {
	Identifier string     `gorm:"primaryKey;type:varchar(255)" json:"identifier"`
	Type       OTPChannel `gorm:"primaryKey;type:varchar(10)" json:"type"`
	Code       string     `gorm:"column:otp;type:varchar(10);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expiresAt"`
}

func (OTP) TableName() string { return "otp_codes" }
