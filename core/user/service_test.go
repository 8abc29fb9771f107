package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
	"github.com/projectplatec/platec/storage/database/inmem"
	"github.com/projectplatec/platec/tests"
)

func setup() (*user.Service, user.Repository) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewService(repo, nil), repo
}

func validationMessages(t *testing.T, err error) []string {
	t.Helper()
	vErr, ok := core.AsValidationError(err)
	require.True(t, ok, "want *core.ValidationError, got %v", err)
	return vErr.Messages()
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, _ := setup()
		usr, err := svc.Create(ctx, user.User{Username: " T1@X.com", Email: "T1@x.com ", FirstName: " A", LastName: "B"}, "1234")
		require.NoError(t, err)

		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "t1@x.com", usr.Username)
		assert.Equal(t, "t1@x.com", usr.Email)
		assert.Equal(t, "A", usr.FirstName)
		assert.Empty(t, usr.Roles)
		assert.NoError(t, usr.CheckPassword("1234"))
		assert.False(t, usr.CreatedAt.IsZero())

		found, err := svc.FindByEmail(ctx, "t1@x.com")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, found.ID)
	})

	t.Run("policy violations", func(t *testing.T) {
		svc, _ := setup()
		tests := []struct {
			name string
			usr  user.User
			pwd  string
			want []string
		}{
			{
				name: "short password",
				usr:  user.User{Username: "a@x.com", Email: "a@x.com"},
				pwd:  "123",
				want: []string{"Passwords must be at least 4 characters."},
			},
			{
				name: "invalid email",
				usr:  user.User{Username: "lol", Email: "lol"},
				pwd:  "1234",
				want: []string{"Email 'lol' is invalid."},
			},
			{
				name: "invalid username",
				usr:  user.User{Username: "a b", Email: "a@x.com"},
				pwd:  "1234",
				want: []string{"Username 'a b' is invalid, can only contain letters or digits."},
			},
			{
				name: "everything",
				usr:  user.User{},
				pwd:  "",
				want: []string{
					"Username '' is invalid, can only contain letters or digits.",
					"Email '' is invalid.",
					"Passwords must be at least 4 characters.",
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.usr, tt.pwd)
				assert.Equal(t, tt.want, validationMessages(t, err))
			})
		}

		all, err := svc.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, repo := setup()
		testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "")

		_, err := svc.Create(ctx, user.User{Username: "t1@x.com", Email: "T1@X.COM"}, "1234")
		assert.Equal(t, []string{
			"Username 't1@x.com' is already taken.",
			"Email 't1@x.com' is already taken.",
		}, validationMessages(t, err))

		all, err := svc.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("concurrent duplicates", func(t *testing.T) {
		svc, _ := setup()
		const n = 8

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Create(ctx, user.User{Username: "t1@x.com", Email: "t1@x.com"}, "1234")
			}(i)
		}
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.Contains(t, validationMessages(t, err), "Email 't1@x.com' is already taken.")
		}
		assert.Equal(t, 1, succeeded)

		all, err := svc.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "1234")
	other := testutil.CreateUser(t, repo, "t2@x.com", "C", "D", "")

	t.Run("success keeps password", func(t *testing.T) {
		usr.Email = "new@x.com"
		usr.Username = "new@x.com"
		usr.FirstName = "Z"
		updated, err := svc.Update(ctx, usr)
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", updated.Email)
		assert.Equal(t, "Z", updated.FirstName)
		assert.NoError(t, updated.CheckPassword("1234"))
	})

	t.Run("conflict", func(t *testing.T) {
		usr.Email = other.Email
		usr.Username = other.Username
		_, err := svc.Update(ctx, usr)
		assert.Equal(t, []string{
			"Username 't2@x.com' is already taken.",
			"Email 't2@x.com' is already taken.",
		}, validationMessages(t, err))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, user.User{ID: "lol", Username: "x@x.com", Email: "x@x.com"})
		assert.ErrorIs(t, err, user.ErrNotFound)

		_, err = svc.Update(ctx, user.User{})
		assert.ErrorIs(t, err, user.ErrNotFound)
	})
}

func TestService_Roles(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	teacher := testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "")
	admin := testutil.CreateUser(t, repo, "admin@x.com", "A", "B", "", user.RoleAdmin)

	exists, err := svc.RoleExists(ctx, user.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, svc.AddToRole(ctx, teacher, user.RoleTeacher), user.ErrRoleNotFound)
	require.NoError(t, svc.CreateRole(ctx, user.RoleTeacher))
	require.NoError(t, svc.AddToRole(ctx, teacher, user.RoleTeacher))
	require.NoError(t, svc.AddToRole(ctx, teacher, user.RoleTeacher)) // idempotent

	roles, err := svc.Roles(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, []user.Role{user.RoleTeacher}, roles)

	teachers, err := svc.UsersInRole(ctx, user.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, teacher.ID, teachers[0].ID)

	admins, err := svc.UsersInRole(ctx, user.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, admin.ID, admins[0].ID)

	assert.ErrorIs(t, svc.AddToRole(ctx, teacher, user.Role("Principal")), user.ErrInvalidRole)
	assert.ErrorIs(t, svc.CreateRole(ctx, user.Role("Principal")), user.ErrInvalidRole)
	_, err = svc.UsersInRole(ctx, user.Role("lol"))
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "", user.RoleTeacher)

	require.NoError(t, svc.Delete(ctx, usr))
	_, err := svc.FindByID(ctx, usr.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, usr), user.ErrNotFound)
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "1234")

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "success", email: "T1@x.com", pwd: "1234"},
		{name: "wrong password", email: "t1@x.com", pwd: "12345", wantErr: user.ErrInvalidCredentials},
		{name: "unknown email", email: "lol@x.com", pwd: "1234", wantErr: user.ErrInvalidCredentials},
		{name: "empty email", pwd: "1234", wantErr: user.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "t1@x.com", "A", "B", "1234")

	assert.Equal(t, []string{"Passwords must be at least 4 characters."}, validationMessages(t, svc.SetPassword(ctx, usr, "abc")))

	require.NoError(t, svc.SetPassword(ctx, usr, "abcd"))
	_, err := svc.Authenticate(ctx, usr.Email, "abcd")
	assert.NoError(t, err)
}
