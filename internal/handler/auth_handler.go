package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/exam"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
	"github.com/ujianku/practice-exam-backend/internal/model"
	"github.com/ujianku/practice-exam-backend/internal/response"
	"github.com/ujianku/practice-exam-backend/internal/service"
	"github.com/ujianku/practice-exam-backend/internal/validator"
)

// AuthHandler handles participant login.
type AuthHandler struct {
	manager     *exam.Manager
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(manager *exam.Manager, authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		manager:     manager,
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/auth/login
// Matches name and code against the registered participants, creates the
// session record, and returns a session-scoped token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	controller, user, err := h.manager.Login(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		var gwErr *gateway.Error
		switch {
		case errors.Is(err, exam.ErrLoginMismatch):
			response.Fail(c, http.StatusBadRequest, response.ErrLoginMismatch)
		case errors.As(err, &gwErr):
			// Store unreachable. No session is considered started.
			h.log.Error().Err(err).Msg("Gateway failure during login")
			response.Fail(c, http.StatusBadGateway, response.ErrGateway)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	token, err := h.authService.GenerateSessionToken(controller.SessionID(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Token generation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{
		Token:   token,
		User:    *user,
		Session: controller.Session(),
	})
}
