// Package model defines domain entities for the application.
package model

import (
	"regexp"
	"time"
)

// phonePattern accepts "+" followed by 10-15 digits, or NNN-NNN-NNNN.
var phonePattern = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)

// Customer represents a CRM customer.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidPhone reports whether phone matches one of the accepted formats.
// An empty phone is valid since the field is optional.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phonePattern.MatchString(phone)
}

// CustomerFilter narrows customer listings.
// String fields match partially and case-insensitively; PhonePrefix is a prefix match.
type CustomerFilter struct {
	Name          string
	Email         string
	PhonePrefix   string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	OrderBy       string
}
