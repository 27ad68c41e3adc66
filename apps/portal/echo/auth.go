package echoportal

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
)

const (
	tokenCookie      = "token"
	contextClaimsKey = "claims"
	contextTokenKey  = "userToken"

	// portals
	portalAdmin   = "admin"
	portalTeacher = "teacher"
	portalStudent = "student"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidToken = errors.New("invalid token")
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the backend; the portal only reads them.
type Claims struct {
	jwt.StandardClaims
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	IsStudent bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin   bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles     []string `json:"roles,omitempty"`
}

func GetUserClaims(usr user.User, conf *core.Config, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:  usr.Username,
		Email:     usr.Email,
		IsStudent: usr.IsStudent(),
		IsTeacher: usr.IsTeacher(),
		IsAdmin:   usr.IsAdmin(),
		Roles:     usr.Roles,
	}
}

// GenerateToken signs claims with HS256 (dev tooling & tests).
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(raw, secretKey string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// CanAccess reports whether the claims open the given portal.
func (c Claims) CanAccess(portal string) bool {
	switch portal {
	case portalAdmin:
		return c.IsAdmin
	case portalTeacher:
		return c.IsTeacher
	case portalStudent:
		return c.IsStudent
	}
	return false
}

// User is the (partial) user the claims were issued for, for logging.
func (c Claims) User() user.User {
	return user.User{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
	}
}

// claimsMiddleware reads the token cookie. A missing, expired or forged token means an anonymous request.
func claimsMiddleware(secretKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if cookie, err := ctx.Cookie(tokenCookie); err == nil && cookie.Value != "" {
				if claims, err := parseToken(cookie.Value, secretKey); err == nil {
					ctx.Set(contextClaimsKey, *claims)
					ctx.Set(contextTokenKey, cookie.Value)
				}
			}
			return next(ctx)
		}
	}
}

// portalMiddleware sends the users who cannot access portal to the login page, coming back here afterwards.
func portalMiddleware(portal, loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if claims, err := getContextClaims(ctx); err == nil && claims.CanAccess(portal) {
				return next(ctx)
			}
			if isAPIRequest(ctx.Request()) {
				return errUnauthorized
			}
			return ctx.Redirect(http.StatusSeeOther, loginRedirect(loginURL, ctx.Request().URL.RequestURI()))
		}
	}
}

func loginRedirect(loginURL, next string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextToken(ctx echo.Context) string {
	token, _ := ctx.Get(contextTokenKey).(string)
	return token
}
