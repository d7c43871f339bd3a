package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/staff"
)

const (
	contextTokenKey = "staffToken"
	tokenAudience   = "check-in"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Staff bool `json:"staff"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func StaffClaims(conf *core.Config, username string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   username,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Staff: true,
	}
}

// GenerateToken generates a signed JWT token string representing the staff Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	cfg := newJWTConfig(conf)
	method := jwt.GetSigningMethod(cfg.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// staffOnly rejects valid tokens that were not issued to staff.
func staffOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if !claims.Staff || claims.Audience != tokenAudience {
			return echo.NewHTTPError(http.StatusForbidden, "permission denied")
		}
		return next(ctx)
	}
}

type staffApi struct {
	dir    *staff.Directory
	server *Server
}

func registerStaffAPI(g *echo.Group, dir *staff.Directory, server *Server) {
	api := staffApi{dir: dir, server: server}
	g.POST("/staff/login", api.login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (api staffApi) login(ctx echo.Context) error {
	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return errInvalidBody
	}
	username, err := api.dir.Authenticate(req.Username, req.Password)
	if err != nil {
		return errAuthenticationFailed
	}

	conf := api.server.deps.Conf
	claims := StaffClaims(conf, username)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.server.deps.Logger.Info("staff " + username + " logged in")
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: claims.ExpiresAt})
}
