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

var (
	errMissingToken    = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken    = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden   = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound    = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if _, ok := errors.Cause(err).(validator.ValidationErrors); ok {
			err = core.TranslateValidationErrors(errors.Cause(err), translator)
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if origErr == user.ErrNotFound {
				code = errHttpNotFound.Code
				message = errHttpNotFound.Message
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
