package teacher

import (
	"context"
	"fmt"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

const (
	welcomeSubject  = "Your Teacher Account Credentials"
	welcomeTemplate = "teacher_welcome"

	msgUpdated      = "Teacher updated successfully."
	msgDeleted      = "Teacher deleted successfully."
	msgDeleteFailed = "Failed to delete teacher."
)

type (
	// Directory is what the teacher workflow needs from the user directory.
	Directory interface {
		FindByID(ctx context.Context, id string) (user.User, error)
		Create(ctx context.Context, usr user.User, pwd string) (user.User, error)
		Update(ctx context.Context, usr user.User) (user.User, error)
		Delete(ctx context.Context, usr user.User) error
		AddToRole(ctx context.Context, usr user.User, role user.Role) error
		UsersInRole(ctx context.Context, role user.Role) ([]user.User, error)
	}

	// Result is the outcome of a successful mutation: the account and the message for the list page.
	Result struct {
		Teacher user.User
		Flash   core.Flash
	}

	// Service manages teacher accounts. Callers must have checked that the actor is an admin.
	Service struct {
		dir        Directory
		mailSvc    core.EmailService
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		appName    string
	}

	welcomeData struct {
		AppName  string
		Email    string
		Password string
	}
)

func NewService(
	dir Directory,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) *Service {
	return &Service{
		dir:        dir,
		mailSvc:    mailSvc,
		logger:     logger,
		validate:   validate,
		translator: translator,
		appName:    conf.AppName,
	}
}

// List returns every user holding the Teacher role.
func (svc *Service) List(ctx context.Context) ([]user.User, error) {
	teachers, err := svc.dir.UsersInRole(ctx, user.RoleTeacher)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	return teachers, nil
}

// Create registers a teacher account and delivers its credentials.
// The credentials go by email; if sending fails the account is kept and the flash carries them instead.
func (svc *Service) Create(ctx context.Context, form NewTeacher) (Result, error) {
	if err := form.Validate(svc.validate); err != nil {
		return Result{}, core.TranslateValidationErrors(err, svc.translator)
	}

	usr, err := svc.dir.Create(ctx, user.User{
		Username:  form.Email,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}, form.Password)
	if err != nil {
		if _, ok := core.AsValidationError(err); ok {
			return Result{}, err
		}
		return Result{}, errors.Wrap(err, "creating user")
	}

	if err = svc.dir.AddToRole(ctx, usr, user.RoleTeacher); err != nil {
		return Result{}, errors.Wrap(err, "adding teacher role")
	}
	usr.Roles = append(usr.Roles, user.RoleTeacher)

	if err = svc.mailSvc.SendMessage(ctx, svc.welcomeMessage(usr, form.Password)); err != nil {
		svc.logger.Error(fmt.Sprintf("Failed to send email to teacher %s", usr.Email), err)
		return Result{
			Teacher: usr,
			Flash: core.SuccessFlash(fmt.Sprintf(
				"Teacher created successfully. Login: %s, Password: %s.", usr.Email, form.Password)),
		}, nil
	}

	return Result{
		Teacher: usr,
		Flash: core.SuccessFlash(fmt.Sprintf(
			"Teacher created successfully. Login credentials have been sent to %s.", usr.Email)),
	}, nil
}

func (svc *Service) welcomeMessage(usr user.User, pwd string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      welcomeSubject,
		TemplateName: welcomeTemplate,
		TemplateData: welcomeData{AppName: svc.appName, Email: usr.Email, Password: pwd},
	}
}

// Details returns the account with the given id, or user.ErrNotFound.
func (svc *Service) Details(ctx context.Context, id string) (user.User, error) {
	return svc.dir.FindByID(ctx, id)
}

// EditForm returns the edit form pre-filled from the account. The password is never part of it.
func (svc *Service) EditForm(ctx context.Context, id string) (UpdateTeacher, error) {
	usr, err := svc.dir.FindByID(ctx, id)
	if err != nil {
		return UpdateTeacher{}, err
	}
	return updateFormFor(usr), nil
}

// Edit overwrites the email, username and names of the account. Missing accounts are never written.
func (svc *Service) Edit(ctx context.Context, id string, form UpdateTeacher) (Result, error) {
	usr, err := svc.dir.FindByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err = form.Validate(svc.validate); err != nil {
		return Result{}, core.TranslateValidationErrors(err, svc.translator)
	}

	usr.Email = form.Email
	usr.Username = form.Email
	usr.FirstName = form.FirstName
	usr.LastName = form.LastName

	updated, err := svc.dir.Update(ctx, usr)
	if err != nil {
		if _, ok := core.AsValidationError(err); ok {
			return Result{}, err
		}
		return Result{}, errors.Wrap(err, "updating user")
	}
	return Result{Teacher: updated, Flash: core.SuccessFlash(msgUpdated)}, nil
}

// DeleteConfirm returns the account to show before deleting it.
func (svc *Service) DeleteConfirm(ctx context.Context, id string) (user.User, error) {
	return svc.dir.FindByID(ctx, id)
}

// Delete removes the account. A missing account is a no-op and yields an empty flash.
func (svc *Service) Delete(ctx context.Context, id string) (core.Flash, error) {
	usr, err := svc.dir.FindByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.Flash{}, nil
		}
		return core.Flash{}, errors.Wrap(err, "finding user by ID")
	}

	if err = svc.dir.Delete(ctx, usr); err != nil {
		svc.logger.Error(fmt.Sprintf("Failed to delete teacher %s", usr.ID), err)
		return core.ErrorFlash(msgDeleteFailed), nil
	}
	return core.SuccessFlash(msgDeleted), nil
}
