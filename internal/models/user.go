package models

import (
	"time"

	"gorm.io/datatypes"
)

// User holds identity and authentication state. There is exactly one record
// per normalised (lower-cased) email, and at most one outstanding one-time
// code at any moment.
type User struct {
	BaseModel

	Name        string     `gorm:"size:50" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`

	IsVerified bool `gorm:"default:false" json:"isVerified"`

	// Pending one-time code. Only the SHA-256 digest of the code is stored;
	// both columns are cleared when the code is redeemed or superseded.
	OTPCodeHash  *string    `gorm:"index" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	// Federated identity. GoogleID links this record to a Google account;
	// Profile keeps the raw claims returned by the provider.
	GoogleID       *string        `gorm:"uniqueIndex" json:"-"`
	ProfilePicture string         `json:"profilePicture,omitempty"`
	Profile        datatypes.JSON `json:"-"`

	Notes []Note `gorm:"foreignKey:UserID" json:"-"`
}

// HasPendingCode reports whether an outstanding code exists, expired or not.
func (u *User) HasPendingCode() bool {
	return u.OTPCodeHash != nil && u.OTPExpiresAt != nil
}
