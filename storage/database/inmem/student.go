package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/projectplatec/platec/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[st.UserID]; !ok {
		return student.Student{}, student.ErrUserNotFound
	}
	st.ID = uuid.New().String()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	stored := st
	repo.db.students[st.ID] = &stored
	return st, nil
}

func (repo *studentRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if st.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
