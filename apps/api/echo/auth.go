package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

const (
	contextClaimsKey = "userClaims"
	contextUserKey   = "user"
	bearerPrefix     = "Bearer "
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email,omitempty"`
	Roles []user.Role `json:"roles,omitempty"`
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewTokenManager(conf *core.Config) *TokenManager {
	return &TokenManager{
		key:    []byte(conf.SecretKey),
		issuer: conf.AppName,
		ttl:    conf.Server.JWTExpirationDelta,
	}
}

func (tm *TokenManager) Claims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: usr.Email,
		Roles: usr.Roles,
	}
}

// Generate returns a signed token string representing usr.
func (tm *TokenManager) Generate(usr user.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tm.Claims(usr))
	ss, err := token.SignedString(tm.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return tm.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

// getContextUser loads the User the token was issued to, once per request.
func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.FindByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func bearerToken(ctx echo.Context) (string, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) <= len(bearerPrefix) || !strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return auth[len(bearerPrefix):], true
}
