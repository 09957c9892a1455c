package models

import "time"

// UserRole represents the review roles within the agency.
type UserRole string

const (
	RoleLOD      UserRole = "LOD"
	RoleStaff    UserRole = "STAFF"
	RoleDDD      UserRole = "DDD"
	RoleDirector UserRole = "DIRECTOR"
)

// User represents an agency reviewer stored in the users table. Reference
// data: the workflow engine only reads it to stamp trail entries and to route
// to the divisional DDD.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Division     string     `db:"division" json:"division"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Identity converts the user record into the explicit actor parameter the
// workflow engine expects.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Name:     u.FullName,
		Role:     u.Role,
		Division: NormalizeDivision(u.Division),
	}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Division string
	Active   *bool
	Search   string
}
