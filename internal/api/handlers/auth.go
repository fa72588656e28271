package handlers

import (
	"errors"
	"net/http"

	"github.com/bioqa/manager/internal/middleware"
	"github.com/bioqa/manager/internal/services"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// HandleRegister creates an account and returns a fresh token.
func (h *AuthHandler) HandleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	result, err := h.auth.Register(req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			utils.ErrorResponse(c, http.StatusBadRequest, "Email and a password of at least 8 characters are required", nil)
		case errors.Is(err, services.ErrEmailExists):
			utils.ErrorResponse(c, http.StatusConflict, "Email already registered", nil)
		default:
			h.logger.WithError(err).Error("Registration failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Registration failed", nil)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Account created", tokenResponse{Token: result.Token, User: result.User})
}

// HandleLogin verifies credentials and issues a token.
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	result, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidCredential):
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password", nil)
		default:
			h.logger.WithError(err).Error("Login failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Login failed", nil)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", tokenResponse{Token: result.Token, User: result.User})
}

// HandleMe echoes the authenticated identity.
func (h *AuthHandler) HandleMe(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	utils.SuccessResponse(c, http.StatusOK, "Identity retrieved", identity)
}
