package models

import "time"

// User represents an application user. The four academic reference fields
// encode the enrollment shape: base-program users carry program_id and may
// later acquire masters_degree_id, specialization_id and
// program_specialization_id through one-time permanent selections;
// direct-master's users carry masters_degree_id from registration and no
// program_id.
type User struct {
	ID                      string     `db:"id" json:"id"`
	Email                   string     `db:"email" json:"email"`
	Username                string     `db:"username" json:"username"`
	PasswordHash            string     `db:"password_hash" json:"-"`
	ProgramID               *string    `db:"program_id" json:"program_id,omitempty"`
	MastersDegreeID         *string    `db:"masters_degree_id" json:"masters_degree_id,omitempty"`
	SpecializationID        *string    `db:"specialization_id" json:"specialization_id,omitempty"`
	ProgramSpecializationID *string    `db:"program_specialization_id" json:"program_specialization_id,omitempty"`
	LastLogin               *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// VisibilityIdentity maps the stored academic fields onto the triple the
// visibility resolver consumes. The master's-track specialization wins over
// the year-3 program specialization when both are set, since the master's
// curriculum supersedes it.
func (u User) VisibilityIdentity() AcademicIdentity {
	spec := u.SpecializationID
	if spec == nil {
		spec = u.ProgramSpecializationID
	}
	return AcademicIdentity{
		ProgramID:        u.ProgramID,
		MastersDegreeID:  u.MastersDegreeID,
		SpecializationID: spec,
	}
}

// Pagination contains pagination metadata returned in list responses.
// HasMore is derived from the fetch-one-extra-row strategy, so there is no
// total count.
type Pagination struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}
