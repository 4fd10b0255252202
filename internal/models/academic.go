package models

// Institution is the root of the academic hierarchy.
type Institution struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// College belongs to an institution.
type College struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	InstitutionID int64  `db:"institution_id" json:"institution_id"`
}

// Department belongs to a college.
type Department struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CollegeID int64  `db:"college_id" json:"college_id"`
}

// Course belongs to a department.
type Course struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
}

// Level is a year of study offered by a course, e.g. "100".
type Level struct {
	ID       int64  `db:"id" json:"id"`
	Value    string `db:"value" json:"value"`
	CourseID int64  `db:"course_id" json:"course_id"`
}

// LevelAll is the wildcard level value.
const LevelAll = "All"

// InstitutionTree is the nested options payload used by registration forms.
type InstitutionTree struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Colleges []CollegeTree `json:"colleges"`
}

// CollegeTree nests departments under a college.
type CollegeTree struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Departments []DepartmentTree `json:"departments"`
}

// DepartmentTree nests courses under a department.
type DepartmentTree struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Courses []CourseTree `json:"courses"`
}

// CourseTree lists the levels of a course.
type CourseTree struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// NamedOption is a selectable hierarchy node.
type NamedOption struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// AcademicPlacement is the hierarchy chain a respondent registers with.
type AcademicPlacement struct {
	InstitutionID int64  `json:"institution_id" validate:"required,gt=0"`
	CollegeID     int64  `json:"college_id" validate:"required,gt=0"`
	DepartmentID  int64  `json:"department_id" validate:"required,gt=0"`
	CourseID      int64  `json:"course_id" validate:"required,gt=0"`
	Level         string `json:"level" validate:"required"`
}
