package models

// Course is a reviewable course, linked to programs and specializations
// through the curriculum graph join tables.
type Course struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// CourseProgram links a course into a program's curriculum.
type CourseProgram struct {
	CourseID  string `db:"course_id" json:"course_id"`
	ProgramID string `db:"program_id" json:"program_id"`
}

// CourseSpecialization links a course into a specialization's curriculum.
type CourseSpecialization struct {
	CourseID         string `db:"course_id" json:"course_id"`
	SpecializationID string `db:"specialization_id" json:"specialization_id"`
}
