package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type userApi struct {
	svc        *user.Service
	tokens     *TokenManager
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(
	g *echo.Group,
	conf *core.Config,
	svc *user.Service,
	tokens *TokenManager,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := userApi{
		svc:        svc,
		tokens:     tokens,
		validate:   validate,
		translator: translator,
	}

	ug := g.Group("/users")
	ug.POST("/login", api.login, loginRateLimiter(conf))
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return core.NewValidationError(user.ErrInvalidCredentials)
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.Generate(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
