package models

// ProgramType distinguishes bachelor and master programs.
type ProgramType string

const (
	ProgramTypeBachelor ProgramType = "bachelor"
	ProgramTypeMaster   ProgramType = "master"
)

// Credit-hour totals partition programs semantically: 180hp and 300hp
// programs are base programs a student enrolls in directly, 120hp programs
// are standalone master's degrees.
const (
	CreditsBachelor          = 180
	CreditsMastersDegree     = 120
	CreditsIntegratedMasters = 300
)

// Program represents a degree program in the catalog. Programs are created
// by the bulk loader (upsert by code) and effectively immutable afterwards.
type Program struct {
	ID                   string      `db:"id" json:"id"`
	Name                 string      `db:"name" json:"name"`
	Code                 string      `db:"code" json:"code"`
	ProgramType          ProgramType `db:"program_type" json:"program_type"`
	Credits              int         `db:"credits" json:"credits"`
	HasIntegratedMasters bool        `db:"has_integrated_masters" json:"has_integrated_masters"`
}

// IsBaseProgram reports whether students enroll in this program directly
// and are eligible for a later master's-track selection.
func (p Program) IsBaseProgram() bool {
	return p.Credits == CreditsBachelor || p.Credits == CreditsIntegratedMasters
}

// IsMastersDegree reports whether this program can be chosen as a
// master's degree.
func (p Program) IsMastersDegree() bool {
	return p.Credits == CreditsMastersDegree
}

// Specialization is a named track under exactly one program. (name,
// program_id) is unique.
type Specialization struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ProgramID string `db:"program_id" json:"program_id"`
}
