package models

import "time"

// UserRole represents the lifecycle role of an account.
type UserRole string

const (
	RoleUnverified UserRole = "UNVERIFIED"
	RoleVerified   UserRole = "VERIFIED"
	RoleRespondent UserRole = "RESPONDENT"
	RoleCreator    UserRole = "CREATOR"
)

// Registered reports whether the account finished registration.
func (r UserRole) Registered() bool {
	return r == RoleRespondent || r == RoleCreator
}

// Gender values stored on profiles.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// User is a registered or registering account.
type User struct {
	ID            string     `db:"id" json:"id"`
	ExternalID    string     `db:"external_id" json:"external_id"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	Gender        string     `db:"gender" json:"gender"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Role          UserRole   `db:"role" json:"role"`
	InstitutionID *int64     `db:"institution_id" json:"institution_id,omitempty"`
	CollegeID     *int64     `db:"college_id" json:"college_id,omitempty"`
	DepartmentID  *int64     `db:"department_id" json:"department_id,omitempty"`
	CourseID      *int64     `db:"course_id" json:"course_id,omitempty"`
	Level         *string    `db:"level" json:"level,omitempty"`
	Wallet        int64      `db:"wallet" json:"wallet"`
	OTPCode       *string    `db:"otp_code" json:"-"`
	OTPExpiresAt  *time.Time `db:"otp_expires_at" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile projects the user onto the attributes filter rules inspect.
func (u *User) Profile() Profile {
	p := Profile{
		InstitutionID: u.InstitutionID,
		CollegeID:     u.CollegeID,
		DepartmentID:  u.DepartmentID,
		CourseID:      u.CourseID,
		Gender:        u.Gender,
	}
	if u.Level != nil {
		p.Level = *u.Level
	}
	return p
}

// Profile is the respondent view used for eligibility matching.
type Profile struct {
	InstitutionID *int64
	CollegeID     *int64
	DepartmentID  *int64
	CourseID      *int64
	Gender        string
	Level         string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// RegistrationStatus answers the front end's "is this chat registered" check.
type RegistrationStatus struct {
	Registered bool     `json:"registered"`
	FirstName  string   `json:"first_name,omitempty"`
	Role       UserRole `json:"role,omitempty"`
	Wallet     int64    `json:"wallet"`
}
