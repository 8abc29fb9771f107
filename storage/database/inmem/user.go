package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/projectplatec/platec/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

// withRoles returns a copy of usr with its current roles. Callers hold the lock.
func (repo *userRepository) withRoles(usr *user.User) user.User {
	u := *usr
	u.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	u.Roles = repo.roles(usr.ID)
	return u
}

func (repo *userRepository) roles(userID string) []user.Role {
	members := repo.db.userRoles[userID]
	roles := make([]user.Role, 0, len(members))
	for r := range members {
		roles = append(roles, r)
	}
	user.SortRoles(roles)
	return roles
}

// conflict reports a uniqueness violation of usr against every other stored user. Callers hold the lock.
func (repo *userRepository) conflict(usr user.User) error {
	for _, u := range repo.db.users {
		if u.ID == usr.ID {
			continue
		}
		if u.Email == usr.Email {
			return user.ErrEmailExists
		}
		if u.Username == usr.Username {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	if err := repo.conflict(usr); err != nil {
		return user.User{}, err
	}
	usr.Roles = nil
	stored := usr
	repo.db.users[usr.ID] = &stored
	return repo.withRoles(&stored), nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if usr, ok := repo.db.users[filter.ID]; ok {
			return repo.withRoles(usr), nil
		}
	case filter.Email != "":
		for _, usr := range repo.db.users {
			if usr.Email == filter.Email {
				return repo.withRoles(usr), nil
			}
		}
	case filter.Username != "":
		for _, usr := range repo.db.users {
			if usr.Username == filter.Username {
				return repo.withRoles(usr), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if !filter.IsEmpty() && !repo.hasAnyRole(usr.ID, filter.Roles) {
			continue
		}
		users = append(users, repo.withRoles(usr))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (repo *userRepository) hasAnyRole(userID string, roles []user.Role) bool {
	members := repo.db.userRoles[userID]
	for _, r := range roles {
		if _, ok := members[r]; ok {
			return true
		}
	}
	return false
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.conflict(usr); err != nil {
		return user.User{}, err
	}
	orig.Username = usr.Username
	orig.Email = usr.Email
	orig.FirstName = usr.FirstName
	orig.LastName = usr.LastName
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	}
	orig.UpdatedAt = usr.UpdatedAt
	return repo.withRoles(orig), nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	delete(repo.db.userRoles, id)
	for sID, st := range repo.db.students {
		if st.UserID == id {
			delete(repo.db.students, sID)
		}
	}
	return nil
}

func (repo *userRepository) RoleExists(ctx context.Context, role user.Role) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.roles[role]
	return ok, nil
}

func (repo *userRepository) CreateRole(ctx context.Context, role user.Role) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.roles[role] = struct{}{}
	return nil
}

func (repo *userRepository) AddUserToRole(ctx context.Context, userID string, role user.Role) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[userID]; !ok {
		return user.ErrNotFound
	}
	if _, ok := repo.db.roles[role]; !ok {
		return user.ErrRoleNotFound
	}
	members, ok := repo.db.userRoles[userID]
	if !ok {
		members = make(map[user.Role]struct{})
		repo.db.userRoles[userID] = members
	}
	members[role] = struct{}{}
	return nil
}

func (repo *userRepository) GetUserRoles(ctx context.Context, userID string) ([]user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if _, ok := repo.db.users[userID]; !ok {
		return nil, user.ErrNotFound
	}
	return repo.roles(userID), nil
}
