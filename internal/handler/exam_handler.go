package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ujianku/practice-exam-backend/internal/exam"
	"github.com/ujianku/practice-exam-backend/internal/middleware"
	"github.com/ujianku/practice-exam-backend/internal/model"
	"github.com/ujianku/practice-exam-backend/internal/response"
	"github.com/ujianku/practice-exam-backend/internal/validator"
)

// ExamHandler exposes the session controller operations over HTTP. Every
// endpoint resolves the controller from the token's session id.
type ExamHandler struct {
	manager *exam.Manager
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(manager *exam.Manager) *ExamHandler {
	return &ExamHandler{manager: manager}
}

// controller resolves the caller's controller or writes the error response.
func (h *ExamHandler) controller(c *gin.Context) *exam.Controller {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil
	}

	sessionID, err := claims.SessionUUID()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil
	}

	controller := h.manager.Get(sessionID)
	if controller == nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return nil
	}
	return controller
}

// GetPaper godoc
// GET /api/v1/exam/paper
// Returns the questions with correct answers stripped.
func (h *ExamHandler) GetPaper(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": controller.Paper()})
}

// GetState godoc
// GET /api/v1/exam/state
// Returns the full controller state so a reloaded front end can re-render.
func (h *ExamHandler) GetState(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	response.Success(c, http.StatusOK, controller.State())
}

// StartExam godoc
// POST /api/v1/exam/start
// Moves from the welcome page to the exam page.
func (h *ExamHandler) StartExam(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	if err := controller.StartExam(); err != nil {
		failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, controller.State())
}

// SwitchQuestion godoc
// POST /api/v1/exam/switch
// Makes another question the active one. Always allowed regardless of
// attempts remaining.
func (h *ExamHandler) SwitchQuestion(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}

	var req model.SwitchQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := controller.SwitchQuestion(req.QuestionID); err != nil {
		failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, controller.State())
}

// SubmitAnswer godoc
// POST /api/v1/exam/answer
// Submits an option for the current question.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.OptionIndex == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	result, err := controller.SubmitAnswer(*req.OptionIndex)
	if err != nil {
		failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"result": result,
		"state":  controller.State(),
	})
}

// FinishExam godoc
// POST /api/v1/exam/finish
// Opens the finish confirmation prompt.
func (h *ExamHandler) FinishExam(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	if err := controller.FinishExam(); err != nil {
		failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, controller.State())
}

// ConfirmFinish godoc
// POST /api/v1/exam/finish/confirm
// Ends the exam and records the end time.
func (h *ExamHandler) ConfirmFinish(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	if err := controller.ConfirmFinish(); err != nil {
		failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, controller.State())
}

// CloseModal godoc
// POST /api/v1/exam/modal/close
// Dismisses the open modal (including declining the finish prompt).
func (h *ExamHandler) CloseModal(c *gin.Context) {
	controller := h.controller(c)
	if controller == nil {
		return
	}
	controller.CloseModal()
	response.Success(c, http.StatusOK, controller.State())
}

// failFlow maps controller errors to API error codes.
func failFlow(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exam.ErrQuestionLocked):
		response.Fail(c, http.StatusConflict, response.ErrQuestionLocked)
	case errors.Is(err, exam.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, exam.ErrWrongPage), errors.Is(err, exam.ErrClosed):
		response.Fail(c, http.StatusConflict, response.ErrWrongPage)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
