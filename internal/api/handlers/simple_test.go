package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func simpleTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSimpleHandler(nil, logrus.New())

	router := gin.New()
	router.POST("/simple/quick/", h.HandleQuick)
	router.POST("/simple/enriched/:type1/:type2", h.HandleEnriched)
	return router
}

func TestHandleQuick_RejectsInvalidBody(t *testing.T) {
	router := simpleTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/simple/quick/", strings.NewReader("not json"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleQuick_RejectsNonIntegerMaxResults(t *testing.T) {
	router := simpleTestRouter()

	body := `{"machine_question":{"nodes":[{"id":"n0","curie":"MONDO:0005737","type":"disease"}],"edges":[]}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/simple/quick/?max_results=lots", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEnriched_RequiresIdentifiers(t *testing.T) {
	router := simpleTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/simple/enriched/disease/gene", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
