package setup_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/setup"
	"github.com/projectplatec/platec/core/student"
	"github.com/projectplatec/platec/core/user"
	"github.com/projectplatec/platec/storage/database/inmem"
	"github.com/projectplatec/platec/tests"
)

var seed = core.SeedConfig{
	AdminEmail:     "admin@example.com",
	AdminPassword:  "Admin123!",
	AdminFirstName: "Admin",
	AdminLastName:  "User",
}

type fixture struct {
	rec      *setup.Reconciler
	usrSvc   *user.Service
	repo     user.Repository
	students student.Repository
	logger   *testutil.Logger
}

func newFixture(dir func(*user.Service) setup.Directory, students func(student.Repository) student.Repository) *fixture {
	db := inmemdb.Open()
	f := &fixture{
		repo:     inmemdb.NewUserRepository(db),
		students: inmemdb.NewStudentRepository(db),
		logger:   testutil.NewLogger(),
	}
	f.usrSvc = user.NewService(f.repo, nil)

	var d setup.Directory = f.usrSvc
	if dir != nil {
		d = dir(f.usrSvc)
	}
	st := f.students
	if students != nil {
		st = students(f.students)
	}
	f.rec = setup.NewReconciler(d, st, f.logger, &core.Config{Seed: seed})
	return f
}

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh store", func(t *testing.T) {
		f := newFixture(nil, nil)
		require.NoError(t, f.rec.Run(ctx))

		for _, role := range user.AllRoles {
			ok, err := f.usrSvc.RoleExists(ctx, role)
			require.NoError(t, err)
			assert.True(t, ok, role)
		}

		admin, err := f.usrSvc.FindByEmail(ctx, seed.AdminEmail)
		require.NoError(t, err)
		assert.Equal(t, []user.Role{user.RoleAdmin}, admin.Roles)
		assert.Equal(t, seed.AdminEmail, admin.Username)
		assert.Equal(t, "Admin User", admin.FullName())
		assert.NoError(t, admin.CheckPassword(seed.AdminPassword))
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(nil, nil)
		require.NoError(t, f.rec.Run(ctx))
		require.NoError(t, f.rec.Run(ctx))

		users, err := f.usrSvc.All(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, []user.Role{user.RoleAdmin}, users[0].Roles)
	})

	t.Run("backfill", func(t *testing.T) {
		f := newFixture(nil, nil)
		for _, role := range user.AllRoles {
			require.NoError(t, f.repo.CreateRole(ctx, role))
		}
		legacyTeacher := testutil.CreateUser(t, f.repo, "t1@x.com", "", "", "")
		legacyStudent := testutil.CreateUser(t, f.repo, "s1@x.com", "", "", "")
		_, err := f.students.CreateStudent(ctx, student.Student{UserID: legacyStudent.ID, Number: "S-1"})
		require.NoError(t, err)
		// a student record does not override an existing role
		assigned := testutil.CreateUser(t, f.repo, "s2@x.com", "", "", "", user.RoleTeacher)
		_, err = f.students.CreateStudent(ctx, student.Student{UserID: assigned.ID, Number: "S-2"})
		require.NoError(t, err)

		require.NoError(t, f.rec.Run(ctx))

		tests := []struct {
			email string
			want  []user.Role
		}{
			{legacyTeacher.Email, []user.Role{user.RoleTeacher}},
			{legacyStudent.Email, []user.Role{user.RoleStudent}},
			{assigned.Email, []user.Role{user.RoleTeacher}},
		}
		for _, tt := range tests {
			t.Run(tt.email, func(t *testing.T) {
				usr, err := f.usrSvc.FindByEmail(ctx, tt.email)
				require.NoError(t, err)
				assert.Equal(t, tt.want, usr.Roles)
			})
		}
	})

	t.Run("existing seed account is not repaired", func(t *testing.T) {
		f := newFixture(nil, nil)
		for _, role := range user.AllRoles {
			require.NoError(t, f.repo.CreateRole(ctx, role))
		}
		testutil.CreateUser(t, f.repo, seed.AdminEmail, "", "", "other-pwd", user.RoleTeacher)

		require.NoError(t, f.rec.Run(ctx))

		admin, err := f.usrSvc.FindByEmail(ctx, seed.AdminEmail)
		require.NoError(t, err)
		assert.Equal(t, []user.Role{user.RoleTeacher}, admin.Roles)
		assert.NoError(t, admin.CheckPassword("other-pwd"))
		assert.Len(t, f.logger.Levels("warn"), 1)
	})

	t.Run("failures are collected", func(t *testing.T) {
		errBoom := errors.New("boom")
		f := newFixture(
			func(svc *user.Service) setup.Directory { return failingCreate{Service: svc, err: errBoom} },
			func(repo student.Repository) student.Repository { return failingStudents{Repository: repo, err: errBoom} },
		)
		testutil.CreateUser(t, f.repo, "t1@x.com", "", "", "")

		err := f.rec.Run(ctx)
		require.Error(t, err)

		var fault *setup.Fault
		require.True(t, errors.As(err, &fault))
		var steps []string
		for _, s := range fault.Steps {
			steps = append(steps, s.Step)
		}
		assert.Equal(t, []string{setup.StepAdmin, setup.StepBackfill}, steps)
		assert.ErrorIs(t, err, errBoom)

		// roles were still created
		ok, err := f.usrSvc.RoleExists(ctx, user.RoleStudent)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

type failingCreate struct {
	*user.Service
	err error
}

func (d failingCreate) Create(context.Context, user.User, string) (user.User, error) {
	return user.User{}, d.err
}

type failingStudents struct {
	student.Repository
	err error
}

func (r failingStudents) ExistsForUser(context.Context, string) (bool, error) {
	return false, r.err
}
