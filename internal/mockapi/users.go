package mockapi

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marshallshelly/stockdash/pkg/model"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

func (s *Server) listUsers(c *gin.Context) {
	s.mu.RLock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Redacted())
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, users)
}

// createUser serves both admin creation and self-registration. Anonymous
// callers always get the user role.
func (s *Server) createUser(c *gin.Context) {
	var in model.User
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if callerRole(c) != model.RoleAdmin {
		in.Role = model.RoleUser
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}

	switch {
	case in.Name == "" || in.Email == "":
		fail(c, http.StatusBadRequest, "Name and email are required")
		return
	case !in.Role.Valid():
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Could not hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findUserByName(in.Name) != nil {
		fail(c, http.StatusConflict, "Username already exists")
		return
	}
	if s.findUserByEmail(in.Email) != nil {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}

	rec := &userRecord{
		User: model.User{ID: uuid.NewString(), Name: in.Name, Email: in.Email, Role: in.Role},
		hash: hash,
	}
	s.users = append(s.users, rec)
	c.JSON(http.StatusCreated, rec.Redacted())
}

// updateUser lets admins edit anyone and users edit themselves. Only admins
// may change roles. An empty password leaves the hash untouched.
func (s *Server) updateUser(c *gin.Context) {
	name := c.Param("username")
	caller, _ := c.Get(ctxUserName)
	isAdmin := callerRole(c) == model.RoleAdmin
	if !isAdmin && !strings.EqualFold(name, asString(caller)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
		return
	}

	var in model.User
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	var hash []byte
	if in.Password != "" {
		if utf8.RuneCountInString(in.Password) < minPasswordLength {
			fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost); err != nil {
			fail(c, http.StatusInternalServerError, "Could not hash password")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUserByName(name)
	if u == nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	if in.Name != "" && !strings.EqualFold(in.Name, u.Name) && s.findUserByName(in.Name) != nil {
		fail(c, http.StatusConflict, "Username already exists")
		return
	}
	if in.Email != "" {
		if other := s.findUserByEmail(in.Email); other != nil && other != u {
			fail(c, http.StatusConflict, "Email already registered")
			return
		}
	}
	if in.Role != "" && in.Role != u.Role {
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only admins can change roles"})
			return
		}
		if !in.Role.Valid() {
			fail(c, http.StatusBadRequest, "Invalid role")
			return
		}
		u.Role = in.Role
	}

	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if hash != nil {
		u.hash = hash
	}
	c.JSON(http.StatusOK, u.Redacted())
}

func (s *Server) deleteUser(c *gin.Context) {
	name := c.Param("username")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			s.users = append(s.users[:i], s.users[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	fail(c, http.StatusNotFound, "User not found")
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
