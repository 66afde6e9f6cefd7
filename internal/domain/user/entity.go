package user

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"  // Runs payroll and moves money
	RoleViewer Role = "viewer" // Read-only access
)

type User struct {
	ID           string
	CompanyID    string
	Username     string
	FullName     string
	Email        *string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin checks if user may mutate employees, top up and transfer
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
