package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/projectplatec/platec/core/user"
)

const selectUsers = `
SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.created_at, u.updated_at,
       COALESCE(array_agg(ur.role_name ORDER BY ur.role_name) FILTER (WHERE ur.role_name IS NOT NULL), '{}'::text[]) AS roles
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
%s
GROUP BY u.id
ORDER BY u.created_at, u.email`

type userRow struct {
	ID           string         `db:"id"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	FirstName    null.String    `db:"first_name"`
	LastName     null.String    `db:"last_name"`
	PasswordHash []byte         `db:"password_hash"`
	Roles        pq.StringArray `db:"roles"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		FirstName:    null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:     null.NewString(usr.LastName, usr.LastName != ""),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (row userRow) toUser() user.User {
	roles := make([]user.Role, 0, len(row.Roles))
	for _, r := range row.Roles {
		roles = append(roles, user.Role(r))
	}
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		FirstName:    row.FirstName.String,
		LastName:     row.LastName.String,
		Roles:        roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

type UserRepository struct {
	exec sqlx.ExtContext
}

var _ user.Repository = (*UserRepository)(nil) // interface compliance check

// NewUserRepository works on a *sqlx.DB or a *sqlx.Tx.
func NewUserRepository(exec sqlx.ExtContext) *UserRepository {
	return &UserRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// validID reports whether id can be compared to a uuid column without a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (repo *UserRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	usr.Roles = nil
	q := `INSERT INTO users (id, username, email, first_name, last_name, password_hash, created_at, updated_at)
	      VALUES (:id, :username, :email, :first_name, :last_name, :password_hash, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, toRow(usr)); err != nil {
		return user.User{}, mapConstraintErr(err, "inserting user")
	}
	usr.Roles = []user.Role{}
	return usr, nil
}

func (repo *UserRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var where string
	var arg string
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where, arg = "WHERE u.id = $1", filter.ID
	case filter.Email != "":
		where, arg = "WHERE u.email = $1", filter.Email
	case filter.Username != "":
		where, arg = "WHERE u.username = $1", filter.Username
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, fmt.Sprintf(selectUsers, where), arg); err != nil {
		return user.User{}, trapNoRowsErr(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *UserRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var rows []userRow
	var err error
	if filter.IsEmpty() {
		err = sqlx.SelectContext(ctx, repo.exec, &rows, fmt.Sprintf(selectUsers, ""))
	} else {
		roles := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			roles = append(roles, string(r))
		}
		where := "WHERE u.id IN (SELECT user_id FROM user_roles WHERE role_name = ANY($1))"
		err = sqlx.SelectContext(ctx, repo.exec, &rows, fmt.Sprintf(selectUsers, where), pq.Array(roles))
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *UserRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	q := `UPDATE users
	      SET username = :username, email = :email, first_name = :first_name, last_name = :last_name,
	          password_hash = :password_hash, updated_at = :updated_at
	      WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, toRow(usr))
	if err != nil {
		return user.User{}, mapConstraintErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrNotFound
	}
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting user")
	} else if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *UserRepository) RoleExists(ctx context.Context, role user.Role) (bool, error) {
	var ok bool
	if err := sqlx.GetContext(ctx, repo.exec, &ok, "SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)", string(role)); err != nil {
		return false, errors.Wrap(err, "checking role")
	}
	return ok, nil
}

func (repo *UserRepository) CreateRole(ctx context.Context, role user.Role) error {
	if _, err := repo.exec.ExecContext(ctx, "INSERT INTO roles (name) VALUES ($1) ON CONFLICT DO NOTHING", string(role)); err != nil {
		return errors.Wrap(err, "inserting role")
	}
	return nil
}

func (repo *UserRepository) AddUserToRole(ctx context.Context, userID string, role user.Role) error {
	if !validID(userID) {
		return user.ErrNotFound
	}
	q := "INSERT INTO user_roles (user_id, role_name) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	if _, err := repo.exec.ExecContext(ctx, q, userID, string(role)); err != nil {
		return mapConstraintErr(err, "inserting user role")
	}
	return nil
}

func (repo *UserRepository) GetUserRoles(ctx context.Context, userID string) ([]user.Role, error) {
	usr, err := repo.GetUser(ctx, user.GetFilter{ID: userID})
	if err != nil {
		return nil, err
	}
	return usr.Roles, nil
}
