package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"incidentlog/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type setRoleRequest struct {
	Role Role `json:"role"`
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	username := req.Username
	if username == "" {
		username = req.Name
	}

	actor, _ := CurrentUser(c)
	res, err := h.service.Register(c.Request.Context(), RegisterInput{
		Username: username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"token":   res.Token,
		"user":    res.User,
	})
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

// GET /auth/profile
func (h *Handler) Profile(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.Unauthenticated("authentication required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "profile retrieved successfully",
		"user":    user,
	})
}

// POST /auth/logout
//
// Tokens are stateless; the client drops its copy.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "logout successful, please remove the token from client storage",
	})
}

// PUT /auth/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	user, _ := CurrentUser(c)
	if err := h.service.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}

// PUT /auth/users/:id/role (admin)
func (h *Handler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("invalid request body"))
		return
	}

	actor, _ := CurrentUser(c)
	user, err := h.service.SetRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "role updated successfully",
		"user":    user,
	})
}
