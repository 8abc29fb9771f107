package echoapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

const (
	headerCSRF     = "X-CSRF-Token"
	csrfCookieName = "_csrf"
	csrfContextKey = "csrf"

	loginVisitorTTL = 10 * time.Minute
)

func jwtMiddleware(tokens *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr, ok := bearerToken(ctx)
			if !ok {
				return errMissingToken
			}
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				return errInvalidToken.WithInternal(err)
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// roleMiddleware lets the request through if the authenticated User currently holds any of roles.
// Roles are read from the directory, not from the token.
func roleMiddleware(svc *user.Service, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, role := range roles {
				if usr.HasRole(role) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func csrfMiddleware(conf *core.Config, path string) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + headerCSRF,
		ContextKey:     csrfContextKey,
		CookieName:     csrfCookieName,
		CookiePath:     path,
		CookieHTTPOnly: true,
		CookieSecure:   !(conf.Debug || conf.TestMode),
		CookieSameSite: http.SameSiteStrictMode,
	})
}

func csrfToken(ctx echo.Context) string {
	token, _ := ctx.Get(csrfContextKey).(string)
	return token
}

type (
	loginVisitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	// loginLimiterStore keeps one token bucket per client IP.
	loginLimiterStore struct {
		mu          sync.Mutex
		limit       rate.Limit
		burst       int
		visitors    map[string]*loginVisitor
		lastCleanup time.Time
		now         func() time.Time
	}
)

var _ middleware.RateLimiterStore = (*loginLimiterStore)(nil)

func newLoginLimiterStore(limit float64, burst int) *loginLimiterStore {
	lim := rate.Limit(limit)
	if limit <= 0 {
		lim = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &loginLimiterStore{
		limit:    lim,
		burst:    burst,
		visitors: make(map[string]*loginVisitor),
		now:      time.Now,
	}
}

func (s *loginLimiterStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastCleanup) > loginVisitorTTL {
		for id, v := range s.visitors {
			if now.Sub(v.lastSeen) > loginVisitorTTL {
				delete(s.visitors, id)
			}
		}
		s.lastCleanup = now
	}

	v, ok := s.visitors[identifier]
	if !ok {
		v = &loginVisitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[identifier] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

func loginRateLimiter(conf *core.Config) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: newLoginLimiterStore(conf.Server.LoginRateLimit, conf.Server.LoginRateBurst),
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}
