package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/services"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SimpleHandler struct {
	simple *services.SimpleService
	logger *logrus.Logger
}

func NewSimpleHandler(simple *services.SimpleService, logger *logrus.Logger) *SimpleHandler {
	return &SimpleHandler{
		simple: simple,
		logger: logger,
	}
}

// HandleQuick answers a machine question synchronously. The request blocks
// until the answer is ready or the wait limit is hit.
func (h *SimpleHandler) HandleQuick(c *gin.Context) {
	var req models.QuickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	maxResults := services.DefaultMaxResults
	if raw := c.Query("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "max_results must be an integer", err)
			return
		}
		maxResults = parsed
	}

	answerSet, err := h.simple.Quick(c.Request.Context(), req.MachineQuestion, maxResults, req.Rebuild)
	if err != nil {
		h.respondError(c, err, "Quick answer failed")
		return
	}
	c.Data(http.StatusOK, "application/json", answerSet)
}

// HandleExpand answers the minimal two-node question between a named entity
// and an entity type.
func (h *SimpleHandler) HandleExpand(c *gin.Context) {
	type1 := c.Param("type1")
	id1 := c.Param("id1")
	type2 := c.Param("type2")
	predicate := c.Query("predicate")
	rebuild := boolQuery(c, "rebuild")
	csv := boolQuery(c, "csv")

	result, err := h.simple.Expand(c.Request.Context(), type1, id1, type2, predicate, rebuild, csv)
	if err != nil {
		h.respondError(c, err, "Expand failed")
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

// HandleSimilarity runs a similarity search between two entity types
// evaluated through a third.
func (h *SimpleHandler) HandleSimilarity(c *gin.Context) {
	var params remote.SimilarityParams
	if raw := c.Query("threshhold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "threshhold must be a number", err)
			return
		}
		params.Threshhold = &parsed
	}
	if raw := c.Query("maxresults"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "maxresults must be an integer", err)
			return
		}
		params.MaxResults = &parsed
	}

	result, err := h.simple.Similarity(
		c.Request.Context(),
		c.Param("type1"), c.Param("id1"), c.Param("type2"), c.Param("by_type"),
		params,
		boolQuery(c, "rebuild"),
	)
	if err != nil {
		h.respondError(c, err, "Similarity search failed")
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

// HandleEnriched computes an enriched expansion for a set of identifiers.
func (h *SimpleHandler) HandleEnriched(c *gin.Context) {
	var req models.EnrichedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	result, err := h.simple.Enriched(c.Request.Context(), c.Param("type1"), c.Param("type2"), req)
	if err != nil {
		h.respondError(c, err, "Enriched expansion failed")
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

func (h *SimpleHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, remote.ErrRemoteJobTimeout):
		h.logger.WithError(err).Warn(message)
		utils.ErrorResponse(c, http.StatusGatewayTimeout, err.Error(), nil)
	case errors.Is(err, remote.ErrRemoteJobFailed), errors.Is(err, remote.ErrRemoteJobCancelled):
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusBadGateway, err.Error(), nil)
	case errors.Is(err, remote.ErrServiceUnavailable):
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, message, nil)
	default:
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusInternalServerError, message, nil)
	}
}

func boolQuery(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return err == nil && value
}
