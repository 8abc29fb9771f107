package user

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is one of the fixed set of roles a User can hold.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// AllRoles lists every Role, in the order they are created at startup.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole returns the Role named s (case-insensitive).
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Roles        []Role    `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SortRoles sorts roles by name, in place.
func SortRoles(roles []Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
}

// GetFilter selects a single User. The first non-empty field wins: ID, Email, Username.
type GetFilter struct {
	ID       string
	Email    string
	Username string
}

// QueryFilter selects Users holding any of Roles. An empty filter selects everyone.
type QueryFilter struct {
	Roles []Role
}

func (qf QueryFilter) IsEmpty() bool {
	return len(qf.Roles) == 0
}
