package echoapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/projectplatec/platec/core"
)

const flashCookieName = "flash"

// setFlash stores f in a cookie to be shown by the next page under path.
func setFlash(ctx echo.Context, path string, f core.Flash) {
	if f.IsZero() {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(ctx echo.Context, path string) *core.Flash {
	cookie, err := ctx.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f core.Flash
	if err = json.Unmarshal(data, &f); err != nil || f.IsZero() {
		return nil
	}
	return &f
}
