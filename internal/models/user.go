package models

import "time"

// Role is the caller's access level.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleStateOfficer    Role = "state_officer"
	RoleDistrictOfficer Role = "district_officer"
	RoleRTOClerk        Role = "rto_clerk"
)

// Caller is the authenticated identity a question is asked under.
type Caller struct {
	UserID    int64  `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      Role   `json:"role"`
	State     string `json:"state,omitempty"`
	District  string `json:"district,omitempty"`
	RTOOffice string `json:"rtoOffice,omitempty"`
}

// Region describes the caller's jurisdiction for display.
func (c Caller) Region() string {
	region := c.State
	if region == "" {
		region = "All India"
	}
	if c.District != "" {
		region += " - " + c.District
	}
	return region
}

// User is a row of the users table.
type User struct {
	ID             int64      `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           Role       `json:"role" db:"role"`
	State          string     `json:"state,omitempty" db:"state"`
	District       string     `json:"district,omitempty" db:"district"`
	RTOOffice      string     `json:"rto_office,omitempty" db:"rto_office"`
	FailedAttempts int        `json:"-" db:"failed_attempts"`
	IsLocked       bool       `json:"-" db:"is_locked"`
	LockUntil      *time.Time `json:"-" db:"lock_until"`
}

// Caller returns the pipeline identity of the user.
func (u *User) Caller() Caller {
	return Caller{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		State:     u.State,
		District:  u.District,
		RTOOffice: u.RTOOffice,
	}
}
