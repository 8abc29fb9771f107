package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/student"
	"github.com/projectplatec/platec/core/user"
)

const (
	StepRoles    = "roles"
	StepAdmin    = "admin"
	StepBackfill = "backfill"
)

type (
	// Directory is what the reconciler needs from the user directory.
	Directory interface {
		RoleExists(ctx context.Context, role user.Role) (bool, error)
		CreateRole(ctx context.Context, role user.Role) error
		FindByEmail(ctx context.Context, email string) (user.User, error)
		Create(ctx context.Context, usr user.User, pwd string) (user.User, error)
		AddToRole(ctx context.Context, usr user.User, role user.Role) error
		Roles(ctx context.Context, usr user.User) ([]user.Role, error)
		All(ctx context.Context) ([]user.User, error)
	}

	// Reconciler brings roles, the seed administrator and legacy role assignments in line.
	// Every step is idempotent, so it is safe to run on every start.
	Reconciler struct {
		dir      Directory
		students student.Repository
		logger   core.Logger
		seed     core.SeedConfig
	}

	StepError struct {
		Step string
		Err  error
	}

	// Fault collects the steps that failed during a run.
	Fault struct {
		Steps []StepError
	}
)

func (se StepError) Error() string { return se.Step + ": " + se.Err.Error() }
func (se StepError) Unwrap() error { return se.Err }

func (f *Fault) Error() string {
	msgs := make([]string, 0, len(f.Steps))
	for _, s := range f.Steps {
		msgs = append(msgs, s.Error())
	}
	return "startup reconciliation failed: " + strings.Join(msgs, "; ")
}

func (f *Fault) Unwrap() []error {
	errs := make([]error, 0, len(f.Steps))
	for _, s := range f.Steps {
		errs = append(errs, s)
	}
	return errs
}

func (f *Fault) add(step string, err error) {
	f.Steps = append(f.Steps, StepError{Step: step, Err: err})
}

func NewReconciler(dir Directory, students student.Repository, logger core.Logger, conf *core.Config) *Reconciler {
	return &Reconciler{dir: dir, students: students, logger: logger, seed: conf.Seed}
}

// Run ensures the roles exist, then the seed administrator, then backfills users holding no role.
// A failing step does not stop the next ones; the failures come back together as a *Fault.
func (r *Reconciler) Run(ctx context.Context) error {
	fault := new(Fault)
	if err := r.ensureRoles(ctx); err != nil {
		fault.add(StepRoles, err)
	}
	if err := r.seedAdmin(ctx); err != nil {
		fault.add(StepAdmin, err)
	}
	if err := r.backfill(ctx); err != nil {
		fault.add(StepBackfill, err)
	}
	if len(fault.Steps) > 0 {
		return fault
	}
	return nil
}

func (r *Reconciler) ensureRoles(ctx context.Context) error {
	for _, role := range user.AllRoles {
		ok, err := r.dir.RoleExists(ctx, role)
		if err != nil {
			return errors.Wrapf(err, "checking role %s", role)
		}
		if ok {
			continue
		}
		if err = r.dir.CreateRole(ctx, role); err != nil {
			return errors.Wrapf(err, "creating role %s", role)
		}
		r.logger.Info(fmt.Sprintf("created role %s", role))
	}
	return nil
}

// seedAdmin creates the configured administrator when no account holds its email.
// An existing account is left as is, even when it lost the Admin role.
func (r *Reconciler) seedAdmin(ctx context.Context) error {
	existing, err := r.dir.FindByEmail(ctx, r.seed.AdminEmail)
	switch errors.Cause(err) {
	case nil:
		if !existing.HasRole(user.RoleAdmin) {
			r.logger.Warn(fmt.Sprintf("seed account %s does not hold the %s role", existing.Email, user.RoleAdmin))
		}
		return nil
	case user.ErrNotFound:
	default:
		return errors.Wrap(err, "finding seed admin")
	}

	admin, err := r.dir.Create(ctx, user.User{
		Username:  r.seed.AdminEmail,
		Email:     r.seed.AdminEmail,
		FirstName: r.seed.AdminFirstName,
		LastName:  r.seed.AdminLastName,
	}, r.seed.AdminPassword)
	if err != nil {
		return errors.Wrap(err, "creating seed admin")
	}
	if err = r.dir.AddToRole(ctx, admin, user.RoleAdmin); err != nil {
		return errors.Wrap(err, "adding admin role")
	}
	r.logger.Info(fmt.Sprintf("created administrator %s", admin.Email))
	return nil
}

// backfill gives every user without a role exactly one: Student when a student record
// references them, Teacher otherwise.
func (r *Reconciler) backfill(ctx context.Context) error {
	users, err := r.dir.All(ctx)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}

	var updated int
	for _, usr := range users {
		roles, err := r.dir.Roles(ctx, usr)
		if err != nil {
			return errors.Wrapf(err, "getting roles of %s", usr.ID)
		}
		if len(roles) > 0 {
			continue
		}

		isStudent, err := r.students.ExistsForUser(ctx, usr.ID)
		if err != nil {
			return errors.Wrapf(err, "looking up student record of %s", usr.ID)
		}
		role := user.RoleTeacher
		if isStudent {
			role = user.RoleStudent
		}
		if err = r.dir.AddToRole(ctx, usr, role); err != nil {
			return errors.Wrapf(err, "adding %s to role %s", usr.ID, role)
		}
		updated++
	}
	if updated > 0 {
		r.logger.Info(fmt.Sprintf("assigned a default role to %d user(s)", updated))
	}
	return nil
}
