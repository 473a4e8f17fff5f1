package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/cerjey13/rifa/internal/models"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// sessionTTL matches the original week-long session.
const sessionTTL = 7 * 24 * time.Hour

// claimsKey is the gin context key the middleware stores claims under.
const claimsKey = "claims"

// Sessions issues and verifies signed session tokens and manages the
// session cookie.
type Sessions struct {
	secret []byte
	secure bool
}

// NewSessions creates a session manager. The secret must be non-empty.
func NewSessions(secret string, secureCookies bool) (*Sessions, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	return &Sessions{secret: []byte(secret), secure: secureCookies}, nil
}

// GenerateToken signs a session token for a user.
func (s *Sessions) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies a session token and returns its claims.
func (s *Sessions) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf(
					"unexpected signing method: %v", token.Header["alg"],
				)
			}
			return s.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// SetCookie writes the session cookie on a response.
func (s *Sessions) SetCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// authenticate validates the session cookie and stores the claims on
// the context. Aborts with 401 and returns false on failure.
func (s *Sessions) authenticate(c *gin.Context) bool {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "not authenticated"},
		)
		return false
	}
	claims, err := s.ParseToken(cookie)
	if err != nil {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "not authenticated"},
		)
		return false
	}
	c.Set(claimsKey, claims)
	return true
}

// RequireSession aborts with 401 unless the request carries a valid
// session cookie. Claims are stored on the context for handlers.
func (s *Sessions) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 for anonymous callers and 403 for
// authenticated non-admins. It performs the session check itself.
func (s *Sessions) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			return
		}
		claims := Claims(c)
		if role, _ := claims["role"].(string); role != models.RoleAdmin {
			c.AbortWithStatusJSON(
				http.StatusForbidden,
				models.ErrorResponse{Error: "admin only"},
			)
			return
		}
		c.Next()
	}
}

// Claims returns the session claims stored by RequireSession, or nil.
func Claims(c *gin.Context) jwt.MapClaims {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(jwt.MapClaims)
	return claims
}

// UserID extracts the authenticated user's ID from the context.
func UserID(c *gin.Context) (string, error) {
	claims := Claims(c)
	if claims == nil {
		return "", fmt.Errorf("no session claims")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", fmt.Errorf("no session claims")
	}
	return id, nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a stored hash with a login attempt.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword(
		[]byte(hashed),
		[]byte(password),
	) == nil
}
