package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse carries issued tokens and basic profile info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// ResetPasswordRequest initiates a password reset by email.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetPasswordRequest consumes a reset token.
type ConfirmResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UserInfo is the public profile slice embedded in auth responses.
type UserInfo struct {
	ID                      string  `json:"id"`
	Email                   string  `json:"email"`
	Username                string  `json:"username"`
	ProgramID               *string `json:"program_id,omitempty"`
	MastersDegreeID         *string `json:"masters_degree_id,omitempty"`
	SpecializationID        *string `json:"specialization_id,omitempty"`
	ProgramSpecializationID *string `json:"program_specialization_id,omitempty"`
}

// JWTClaims are the access-token claims. The academic IDs are cached here
// for visibility resolution without a user lookup; after a permanent
// academic selection they go stale, which is why selections revoke the
// user's refresh tokens and force re-authentication.
type JWTClaims struct {
	UserID                  string  `json:"uid"`
	Email                   string  `json:"email"`
	Username                string  `json:"username"`
	ProgramID               *string `json:"program_id,omitempty"`
	MastersDegreeID         *string `json:"masters_degree_id,omitempty"`
	SpecializationID        *string `json:"specialization_id,omitempty"`
	ProgramSpecializationID *string `json:"program_specialization_id,omitempty"`
	jwt.RegisteredClaims
}

// VisibilityIdentity maps cached claims onto the resolver's input triple,
// mirroring User.VisibilityIdentity.
func (c JWTClaims) VisibilityIdentity() AcademicIdentity {
	spec := c.SpecializationID
	if spec == nil {
		spec = c.ProgramSpecializationID
	}
	return AcademicIdentity{
		ProgramID:        c.ProgramID,
		MastersDegreeID:  c.MastersDegreeID,
		SpecializationID: spec,
	}
}
