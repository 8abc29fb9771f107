package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core/student"
)

type studentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Number    string    `db:"student_number"`
	CreatedAt time.Time `db:"created_at"`
}

type StudentRepository struct {
	exec sqlx.ExtContext
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository(exec sqlx.ExtContext) *StudentRepository {
	return &StudentRepository{exec: exec}
}

func (repo *StudentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if !validID(st.UserID) {
		return student.Student{}, student.ErrUserNotFound
	}
	st.ID = uuid.New().String()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	row := studentRow{ID: st.ID, UserID: st.UserID, Number: st.Number, CreatedAt: st.CreatedAt.UTC()}
	q := `INSERT INTO students (id, user_id, student_number, created_at)
	      VALUES (:id, :user_id, :student_number, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return student.Student{}, mapConstraintErr(err, "inserting student")
	}
	return st, nil
}

func (repo *StudentRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	if !validID(userID) {
		return false, nil
	}
	var ok bool
	if err := sqlx.GetContext(ctx, repo.exec, &ok, "SELECT EXISTS (SELECT 1 FROM students WHERE user_id = $1)", userID); err != nil {
		return false, errors.Wrap(err, "checking student")
	}
	return ok, nil
}
