package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/admin"
)

const (
	tokenContextKey = "adminToken"
	apiKeyHeader    = "x-api-key"
	apiKeyParam     = "api_key"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
}

func GetAdminClaims(conf *core.Config, adm admin.Admin) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   adm.ID,
			Audience:  "Dashboard",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: adm.Username,
	}
}

// GenerateToken generates a signed JWT token string representing the admin Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type authenticator struct {
	conf *core.Config
	jwt  echo.MiddlewareFunc
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwt: middleware.JWTWithConfig(middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		}),
	}
}

// triggerMiddleware accepts an API key (header or query) and falls back to the admin JWT.
func (a *authenticator) triggerMiddleware(svc AdminService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withJWT := a.jwt(next)
		return func(ctx echo.Context) error {
			key := ctx.Request().Header.Get(apiKeyHeader)
			if key == "" {
				key = ctx.QueryParam(apiKeyParam)
			}
			if key == "" {
				return withJWT(ctx)
			}

			if err := svc.CheckAPIKey(ctx.Request().Context(), key); err != nil {
				if errors.Cause(err) == admin.ErrInvalidAPIKey {
					return errInvalidAPIKey
				}
				return errors.Wrap(err, "checking API key")
			}
			return next(ctx)
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username)
	return validate.Struct(lr)
}

type authApi struct {
	auth     *authenticator
	svc      AdminService
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth *authenticator, svc AdminService, validate *validator.Validate) {
	api := authApi{auth: auth, svc: svc, validate: validate}

	ug := g.Group("/users")
	ug.POST("/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	adm, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == admin.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.auth.conf, GetAdminClaims(api.auth.conf, adm))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
