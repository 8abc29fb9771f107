package student

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("student user not found")

// Student links a user account to its student data.
type Student struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Number    string    `json:"student_number"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Repository interface {
	// CreateStudent fails with ErrUserNotFound when st.UserID does not reference a user.
	CreateStudent(ctx context.Context, st Student) (Student, error)
	// ExistsForUser reports whether a Student references the given user ID.
	ExistsForUser(ctx context.Context, userID string) (bool, error)
}
