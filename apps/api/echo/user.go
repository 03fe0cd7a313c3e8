package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
		Role  string    `json:"role"`
	}

	// AuthUserResponse is the resolved identity of the calling user.
	AuthUserResponse struct {
		User        user.User `json:"user"`
		Role        string    `json:"role"`
		Permissions []string  `json:"permissions"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type authApi struct {
	deps ServerDeps
}

func registerAuthAPI(g *echo.Group, jwt, principal echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.GET("/me", api.me, jwt, principal)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			// authentication failure, not a payload problem
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return errors.Wrap(err, "authenticating")
	}

	p, err := api.deps.AuthSvc.Resolve(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "resolving principal")
	}

	token, err := GenerateToken(GetUserClaims(usr, api.deps.Conf), api.deps.Conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr, Role: p.Role})
}

func (api *authApi) me(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), p.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return auth.ErrNotAuthenticated
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, AuthUserResponse{
		User:        usr,
		Role:        p.Role,
		Permissions: p.Permissions,
	})
}
