package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/projectplatec/platec/core/user"
)

// CreateUser stores a user straight through repo, creating any missing role on the way.
// Leave pwd empty to skip hashing.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	email, firstName, lastName, pwd string,
	roles ...user.Role,
) user.User {
	t.Helper()
	ctx := context.Background()

	tstamp := time.Now().UTC()
	usr := user.User{
		Username:  email,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	for _, role := range roles {
		if err = repo.CreateRole(ctx, role); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
		if err = repo.AddUserToRole(ctx, usr.ID, role); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	if len(roles) > 0 {
		if usr, err = repo.GetUser(ctx, user.GetFilter{ID: usr.ID}); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	return usr
}
