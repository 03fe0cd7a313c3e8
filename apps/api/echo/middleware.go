package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
)

// resolvePrincipal turns the verified JWT subject into an auth.Principal
// with a freshly-loaded role and permission set, cached on the request
// context. Runs after the JWT middleware.
func resolvePrincipal(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			p, err := svc.Resolve(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

func requireRole(guard *auth.Guard, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if err := guard.RequireRole(p, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

func requirePermission(guard *auth.Guard, perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if err := guard.RequirePermission(p, perm); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
