package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleNotFound       = errors.New("role not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	// Repository persists Users and their Role memberships.
	// CreateUser and UpdateUser must enforce username and email uniqueness atomically and report
	// a conflict with ErrUsernameExists or ErrEmailExists.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error

		RoleExists(ctx context.Context, role Role) (bool, error)
		CreateRole(ctx context.Context, role Role) error
		// AddUserToRole is a no-op when the User already holds role.
		AddUserToRole(ctx context.Context, userID string, role Role) error
		GetUserRoles(ctx context.Context, userID string) ([]Role, error)
	}

	// Service is the user directory: it owns credentials, uniqueness and role memberships.
	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	if validate == nil {
		validate = validator.New()
	}
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) FindByID(ctx context.Context, id string) (User, error) {
	id = core.CleanString(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

// Create stores usr with pwd as its credential.
// Policy violations and conflicts come back as a *core.ValidationError with one FieldError per cause.
func (svc *Service) Create(ctx context.Context, usr User, pwd string) (User, error) {
	usr = clean(usr)
	usr.ID = ""
	usr.Roles = nil

	flds, err := svc.check(ctx, usr)
	if err != nil {
		return User{}, err
	}
	flds = append(flds, checkPassword(pwd)...)
	if len(flds) > 0 {
		return User{}, core.NewValidationError(nil, flds...)
	}

	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	now := time.Now().UTC()
	usr.CreatedAt = now
	usr.UpdatedAt = now

	created, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, svc.conflictError(ctx, usr, err, "creating user")
	}
	return created, nil
}

// Update saves the identity fields of usr. The stored password hash is kept as is.
func (svc *Service) Update(ctx context.Context, usr User) (User, error) {
	if core.CleanString(usr.ID) == "" {
		return User{}, ErrNotFound
	}
	usr = clean(usr)

	flds, err := svc.check(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if len(flds) > 0 {
		return User{}, core.NewValidationError(nil, flds...)
	}

	usr.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, svc.conflictError(ctx, usr, err, "updating user")
	}
	return updated, nil
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if flds := checkPassword(pwd); len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, usr User) error {
	if core.CleanString(usr.ID) == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteUser(ctx, usr.ID)
}

// Authenticate returns the User owning email if pwd matches its credential.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.FindByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) All(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{})
}

func (svc *Service) UsersInRole(ctx context.Context, role Role) ([]User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return svc.repo.QueryUsers(ctx, QueryFilter{Roles: []Role{role}})
}

func (svc *Service) AddToRole(ctx context.Context, usr User, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return svc.repo.AddUserToRole(ctx, usr.ID, role)
}

func (svc *Service) Roles(ctx context.Context, usr User) ([]Role, error) {
	return svc.repo.GetUserRoles(ctx, usr.ID)
}

func (svc *Service) RoleExists(ctx context.Context, role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	return svc.repo.RoleExists(ctx, role)
}

func (svc *Service) CreateRole(ctx context.Context, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return svc.repo.CreateRole(ctx, role)
}

// check applies the username and email policy to usr, then looks for other Users holding either.
func (svc *Service) check(ctx context.Context, usr User) ([]core.FieldError, error) {
	var flds []core.FieldError
	if !usernameRegex.MatchString(usr.Username) {
		flds = append(flds, core.FieldError{Field: "username", Error: invalidUsernameMsg(usr.Username)})
	}
	if err := svc.validate.Var(usr.Email, "required,email"); err != nil {
		flds = append(flds, core.FieldError{Field: "email", Error: invalidEmailMsg(usr.Email)})
	}

	dups, err := svc.duplicates(ctx, usr)
	if err != nil {
		return nil, err
	}
	return append(flds, dups...), nil
}

func (svc *Service) duplicates(ctx context.Context, usr User) ([]core.FieldError, error) {
	var flds []core.FieldError
	if usr.Username != "" {
		taken, err := svc.taken(ctx, GetFilter{Username: usr.Username}, usr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "checking username uniqueness")
		}
		if taken {
			flds = append(flds, core.FieldError{Field: "username", Error: usernameTakenMsg(usr.Username)})
		}
	}
	if usr.Email != "" {
		taken, err := svc.taken(ctx, GetFilter{Email: usr.Email}, usr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "checking email uniqueness")
		}
		if taken {
			flds = append(flds, core.FieldError{Field: "email", Error: emailTakenMsg(usr.Email)})
		}
	}
	return flds, nil
}

func (svc *Service) taken(ctx context.Context, filter GetFilter, exclID string) (bool, error) {
	other, err := svc.repo.GetUser(ctx, filter)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return other.ID != exclID, nil
}

// conflictError turns a storage conflict into a *core.ValidationError.
// Concurrent writers may pass check and lose the race at the storage layer.
func (svc *Service) conflictError(ctx context.Context, usr User, err error, msg string) error {
	cause := errors.Cause(err)
	switch cause {
	case ErrEmailExists, ErrUsernameExists:
	default:
		return errors.Wrap(err, msg)
	}

	if flds, dErr := svc.duplicates(ctx, usr); dErr == nil && len(flds) > 0 {
		return core.NewValidationError(cause, flds...)
	}
	if cause == ErrEmailExists {
		return core.NewValidationError(cause, core.FieldError{Field: "email", Error: emailTakenMsg(usr.Email)})
	}
	return core.NewValidationError(cause, core.FieldError{Field: "username", Error: usernameTakenMsg(usr.Username)})
}

func clean(usr User) User {
	usr.ID = core.CleanString(usr.ID)
	usr.Username = core.CleanString(usr.Username, true /* lower */)
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	usr.FirstName = core.CleanString(usr.FirstName)
	usr.LastName = core.CleanString(usr.LastName)
	return usr
}
