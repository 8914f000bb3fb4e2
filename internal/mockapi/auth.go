package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/marshallshelly/stockdash/pkg/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	ctxUserID   = "userID"
	ctxUserName = "userName"
	ctxRole     = "role"
)

// Claims is the payload of an issued token.
type Claims struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) generateToken(u model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Name,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) validateToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

func (s *Server) setIdentity(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserName, claims.Username)
	c.Set(ctxRole, claims.Role)
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}
		claims, err := s.validateToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		s.setIdentity(c, claims)
		c.Next()
	}
}

// optionalAuth records the caller's identity when a valid token is present
// and lets anonymous requests through.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			claims, err := s.validateToken(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			s.setIdentity(c, claims)
		}
		c.Next()
	}
}

func requireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
			return
		}
		c.Next()
	}
}

func callerRole(c *gin.Context) model.Role {
	v, _ := c.Get(ctxRole)
	role, _ := v.(model.Role)
	return role
}

func (s *Server) login(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.RLock()
	u := s.findUserByEmail(strings.TrimSpace(creds.Email))
	var user model.User
	var hash []byte
	if u != nil {
		user, hash = u.User, u.hash
	}
	s.mu.RUnlock()

	if u == nil || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.generateToken(user)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Could not generate token")
		return
	}
	c.JSON(http.StatusOK, model.LoginResponse{Username: user.Name, Role: user.Role, Token: token})
}
