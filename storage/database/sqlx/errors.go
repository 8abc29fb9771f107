package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core/student"
	"github.com/projectplatec/platec/core/user"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// constraint name -> domain error
var constraintErrs = map[string]error{
	"users_username_key":        user.ErrUsernameExists,
	"users_email_key":           user.ErrEmailExists,
	"user_roles_user_id_fkey":   user.ErrNotFound,
	"user_roles_role_name_fkey": user.ErrRoleNotFound,
	"students_user_id_fkey":     student.ErrUserNotFound,
}

// mapConstraintErr maps psql unique and foreign key violations to domain errors.
func mapConstraintErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		if pqErr.Code == uniqueViolation || pqErr.Code == foreignKeyViolation {
			if domainErr, ok := constraintErrs[pqErr.Constraint]; ok {
				return domainErr
			}
		}
	}
	return errors.Wrap(err, msg)
}
