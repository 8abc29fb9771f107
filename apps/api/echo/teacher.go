package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/teacher"
	"github.com/projectplatec/platec/core/user"
)

const teachersPath = "/v1/teachers"

type (
	teacherListResponse struct {
		Teachers []user.User `json:"teachers"`
		Flash    *core.Flash `json:"flash"`
		CSRF     string      `json:"csrf"`
	}

	teacherResponse struct {
		Teacher user.User `json:"teacher"`
		CSRF    string    `json:"csrf"`
	}

	// formResponse carries a form to (re)display, with the errors of the last submission.
	formResponse struct {
		Form   interface{}         `json:"form"`
		Errors map[string][]string `json:"errors,omitempty"`
		CSRF   string              `json:"csrf"`
	}
)

type teacherApi struct {
	svc *teacher.Service
}

func registerTeacherAPI(
	g *echo.Group,
	conf *core.Config,
	jwt echo.MiddlewareFunc,
	usrSvc *user.Service,
	svc *teacher.Service,
) {
	api := teacherApi{svc: svc}

	tg := g.Group("/teachers", jwt, roleMiddleware(usrSvc, user.RoleAdmin), csrfMiddleware(conf, teachersPath))
	tg.GET("", api.list)
	tg.GET("/new", api.newForm)
	tg.POST("", api.create)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/edit", api.editForm)
	dg.POST("/edit", api.update)
	dg.GET("/delete", api.deleteConfirm)
	dg.POST("/delete", api.destroy)
}

// Handlers

func (api *teacherApi) list(ctx echo.Context) error {
	teachers, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}
	return ctx.JSON(http.StatusOK, teacherListResponse{
		Teachers: teachers,
		Flash:    popFlash(ctx, teachersPath),
		CSRF:     csrfToken(ctx),
	})
}

func (api *teacherApi) newForm(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, formResponse{Form: teacher.NewTeacher{}, CSRF: csrfToken(ctx)})
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}

	res, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		if vErr, ok := core.AsValidationError(err); ok {
			return api.invalidForm(ctx, data.Redacted(), vErr)
		}
		return errors.Wrap(err, "creating teacher")
	}

	setFlash(ctx, teachersPath, res.Flash)
	return ctx.Redirect(http.StatusSeeOther, teachersPath)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.Details(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	return ctx.JSON(http.StatusOK, teacherResponse{Teacher: usr, CSRF: csrfToken(ctx)})
}

func (api *teacherApi) editForm(ctx echo.Context) error {
	form, err := api.svc.EditForm(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "loading teacher")
	}
	return ctx.JSON(http.StatusOK, formResponse{Form: form, CSRF: csrfToken(ctx)})
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}

	res, err := api.svc.Edit(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if vErr, ok := core.AsValidationError(err); ok {
			return api.invalidForm(ctx, data, vErr)
		}
		return errors.Wrap(err, "updating teacher")
	}

	setFlash(ctx, teachersPath, res.Flash)
	return ctx.Redirect(http.StatusSeeOther, teachersPath)
}

func (api *teacherApi) deleteConfirm(ctx echo.Context) error {
	usr, err := api.svc.DeleteConfirm(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	return ctx.JSON(http.StatusOK, teacherResponse{Teacher: usr, CSRF: csrfToken(ctx)})
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	flash, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}

	setFlash(ctx, teachersPath, flash)
	return ctx.Redirect(http.StatusSeeOther, teachersPath)
}

func (api *teacherApi) invalidForm(ctx echo.Context, form interface{}, vErr *core.ValidationError) error {
	errs := vErr.FieldMap()
	if len(errs) == 0 {
		errs = map[string][]string{"": {vErr.Error()}}
	}
	return ctx.JSON(http.StatusBadRequest, formResponse{Form: form, Errors: errs, CSRF: csrfToken(ctx)})
}
