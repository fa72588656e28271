package handlers

import (
	"errors"
	"net/http"

	"github.com/bioqa/manager/internal/middleware"
	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/services"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type QuestionHandler struct {
	questions *services.QuestionService
	logger    *logrus.Logger
}

func NewQuestionHandler(questions *services.QuestionService, logger *logrus.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		logger:    logger,
	}
}

type createQuestionRequest struct {
	Name            string                 `json:"name"`
	Notes           string                 `json:"notes"`
	NaturalQuestion string                 `json:"natural_question"`
	MachineQuestion models.MachineQuestion `json:"machine_question" binding:"required"`
}

// HandleCreate stores a new question owned by the caller.
func (h *QuestionHandler) HandleCreate(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	identity := middleware.GetIdentity(c)
	question, err := h.questions.Create(identity, req.Name, req.Notes, req.NaturalQuestion, req.MachineQuestion)
	if err != nil {
		h.respondError(c, err, "Failed to create question")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Question created", question)
}

// HandleList returns the caller's questions.
func (h *QuestionHandler) HandleList(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	questions, err := h.questions.ListByOwner(identity.Email)
	if err != nil {
		h.respondError(c, err, "Failed to list questions")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Questions retrieved", questions)
}

// HandleGet returns a question with its owner and answer set metadata.
func (h *QuestionHandler) HandleGet(c *gin.Context) {
	resp, err := h.questions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to load question")
		return
	}

	identity := middleware.GetIdentity(c)
	if identity.Email != "" {
		resp.User = identity
	}
	utils.SuccessResponse(c, http.StatusOK, "Question retrieved", resp)
}

// HandleEdit updates a question's presentation fields.
func (h *QuestionHandler) HandleEdit(c *gin.Context) {
	var req models.EditQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	identity := middleware.GetIdentity(c)
	question, err := h.questions.Edit(identity, c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to edit question")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Question updated", question)
}

// HandleDelete removes a question.
func (h *QuestionHandler) HandleDelete(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if err := h.questions.Delete(identity, c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete question")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Question deleted", nil)
}

// HandleFeedbackList returns all feedback on a question.
func (h *QuestionHandler) HandleFeedbackList(c *gin.Context) {
	feedback, err := h.questions.Feedback(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to load feedback")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Feedback retrieved", feedback)
}

// HandleFeedbackCreate appends a feedback note.
func (h *QuestionHandler) HandleFeedbackCreate(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	identity := middleware.GetIdentity(c)
	feedback, err := h.questions.AddFeedback(identity, c.Param("id"), req.Notes)
	if err != nil {
		h.respondError(c, err, "Failed to record feedback")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Feedback recorded", feedback)
}

// HandleAnswer dispatches an answer job and returns its id. The request
// never waits for the answer itself.
func (h *QuestionHandler) HandleAnswer(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	taskID, err := h.questions.DispatchAnswer(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to dispatch answer task")
		return
	}
	utils.SuccessResponse(c, http.StatusAccepted, "Answer task dispatched", models.TaskDispatchResponse{TaskID: taskID})
}

// HandleRefreshKG dispatches a knowledge-graph update job.
func (h *QuestionHandler) HandleRefreshKG(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	taskID, err := h.questions.DispatchRefreshKG(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to dispatch update task")
		return
	}
	utils.SuccessResponse(c, http.StatusAccepted, "Update task dispatched", models.TaskDispatchResponse{TaskID: taskID})
}

// HandleTasks reports the question's still-active background jobs.
func (h *QuestionHandler) HandleTasks(c *gin.Context) {
	buckets, err := h.questions.Tasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to list tasks")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Tasks retrieved", buckets)
}

// HandleSubgraph proxies the question's knowledge-graph neighborhood.
func (h *QuestionHandler) HandleSubgraph(c *gin.Context) {
	subgraph, err := h.questions.Subgraph(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch subgraph")
		return
	}
	c.Data(http.StatusOK, "application/json", subgraph)
}

func (h *QuestionHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrQuestionNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Invalid question key", nil)
	case errors.Is(err, services.ErrUnauthorized):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
	case errors.Is(err, services.ErrForbidden):
		utils.ErrorResponse(c, http.StatusForbidden, "Not the question owner", nil)
	case errors.Is(err, tasks.ErrBrokerUnavailable), errors.Is(err, remote.ErrServiceUnavailable):
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, message, nil)
	default:
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusInternalServerError, message, nil)
	}
}
