package teacher

import (
	"github.com/go-playground/validator/v10"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

// NewTeacher contains information needed to create a new teacher account.
type NewTeacher struct {
	Email     string `json:"email" form:"email" validate:"required,email,max=256"`
	Password  string `json:"password" form:"password" validate:"required"`
	FirstName string `json:"first_name" form:"first_name" validate:"max=100,namechars"`
	LastName  string `json:"last_name" form:"last_name" validate:"max=100,namechars"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	return validate.Struct(nt)
}

// Redacted returns a copy safe to send back to the client.
func (nt NewTeacher) Redacted() NewTeacher {
	nt.Password = ""
	return nt
}

// UpdateTeacher defines what may be changed on an existing teacher account. The password may not.
type UpdateTeacher struct {
	Email     string `json:"email" form:"email" validate:"required,email,max=256"`
	FirstName string `json:"first_name" form:"first_name" validate:"max=100,namechars"`
	LastName  string `json:"last_name" form:"last_name" validate:"max=100,namechars"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.FirstName = core.CleanString(ut.FirstName)
	ut.LastName = core.CleanString(ut.LastName)
	return validate.Struct(ut)
}

func updateFormFor(usr user.User) UpdateTeacher {
	return UpdateTeacher{Email: usr.Email, FirstName: usr.FirstName, LastName: usr.LastName}
}
