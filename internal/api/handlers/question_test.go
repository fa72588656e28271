package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bioqa/manager/internal/middleware"
	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/internal/services"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questionTestSecret = "question-test-secret"

type memQuestionRepo struct {
	questions map[string]*models.Question
	updates   int
	deletes   int
}

func (r *memQuestionRepo) Create(q *models.Question) error {
	r.questions[q.ID] = q
	return nil
}

func (r *memQuestionRepo) GetByID(id string) (*models.Question, error) {
	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *memQuestionRepo) GetByHash(hash string) (*models.Question, error) {
	for _, q := range r.questions {
		if q.Hash == hash {
			copied := *q
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memQuestionRepo) ListByOwner(email string) ([]models.Question, error) {
	var out []models.Question
	for _, q := range r.questions {
		if q.OwnerEmail == email {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *memQuestionRepo) Update(q *models.Question) error {
	r.updates++
	r.questions[q.ID] = q
	return nil
}

func (r *memQuestionRepo) Delete(id string) error {
	r.deletes++
	delete(r.questions, id)
	return nil
}

type memAnswerSetRepo struct{}

func (memAnswerSetRepo) Create(*models.AnswerSet) error { return nil }
func (memAnswerSetRepo) GetByID(uint) (*models.AnswerSet, error) {
	return nil, repository.ErrNotFound
}
func (memAnswerSetRepo) ListByQuestionHash(string) ([]models.AnswerSet, error) {
	return nil, nil
}

type memFeedbackRepo struct{ created int }

func (r *memFeedbackRepo) Create(*models.Feedback) error { r.created++; return nil }
func (r *memFeedbackRepo) ListByQuestion(string) ([]models.Feedback, error) {
	return nil, nil
}

type memUserRepo struct{}

func (memUserRepo) Create(*models.User) error { return nil }
func (memUserRepo) GetByEmail(string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

type recordingDispatcher struct {
	names  []string
	hashes []string
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, name, questionHash, questionID, userEmail string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.names = append(d.names, name)
	d.hashes = append(d.hashes, questionHash)
	return "job-1", nil
}

type fixedJobSource struct{ jobs []tasks.Job }

func (s fixedJobSource) List(context.Context) ([]tasks.Job, error) { return s.jobs, nil }

type noopCache struct{ invalidations int }

func (c *noopCache) CacheAnswerSet(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (c *noopCache) GetCachedAnswerSet(context.Context, string, interface{}) error {
	return errors.New("cache miss")
}
func (c *noopCache) InvalidateAnswerSetCache(context.Context, string) error {
	c.invalidations++
	return nil
}

type questionFixture struct {
	router     *gin.Engine
	repo       *memQuestionRepo
	dispatcher *recordingDispatcher
	cache      *noopCache
}

func newQuestionFixture(jobs []tasks.Job) *questionFixture {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()

	f := &questionFixture{
		repo: &memQuestionRepo{questions: map[string]*models.Question{
			"q1": {
				ID:              "q1",
				Hash:            "abc123",
				Name:            "Diabetes genes",
				OwnerEmail:      "alice@example.org",
				MachineQuestion: models.TwoNodeQuestion("disease", "MONDO:0005015", "gene", ""),
			},
		}},
		dispatcher: &recordingDispatcher{},
		cache:      &noopCache{},
	}

	repos := &repository.RepositoryManager{
		Question:  f.repo,
		AnswerSet: memAnswerSetRepo{},
		Feedback:  &memFeedbackRepo{},
		User:      memUserRepo{},
	}
	svc := services.NewQuestionService(repos, fixedJobSource{jobs: jobs}, f.dispatcher, nil, f.cache, logger)
	h := NewQuestionHandler(svc, logger)

	router := gin.New()
	open := router.Group("/q", middleware.OptionalAuth(questionTestSecret))
	{
		open.GET("/:id", h.HandleGet)
		open.GET("/:id/tasks", h.HandleTasks)
	}
	protected := router.Group("/q", middleware.AuthJWT(questionTestSecret))
	{
		protected.POST("/:id", h.HandleEdit)
		protected.DELETE("/:id", h.HandleDelete)
		protected.POST("/:id/answer", h.HandleAnswer)
		protected.POST("/:id/refresh_kg", h.HandleRefreshKG)
	}
	f.router = router
	return f
}

func (f *questionFixture) request(t *testing.T, method, path, email, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		token, err := utils.GenerateToken(questionTestSecret, time.Hour, email, []string{"user"})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestQuestionHandler_UnknownQuestionIs404(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "GET", "/q/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid question key")
}

func TestQuestionHandler_EditRequiresAuthentication(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/q1", "", `{"name":"renamed"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.repo.updates, "anonymous edit must not write")
}

func TestQuestionHandler_EditByNonOwnerIsForbidden(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/q1", "mallory@example.org", `{"name":"renamed"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, f.repo.updates, "forbidden edit must not write")
}

func TestQuestionHandler_OwnerCanEdit(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/q1", "alice@example.org", `{"name":"renamed"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.repo.updates)
	assert.Equal(t, "renamed", f.repo.questions["q1"].Name)
}

func TestQuestionHandler_DeleteByNonOwnerIsForbidden(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "DELETE", "/q/q1", "mallory@example.org", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, f.repo.deletes)
}

func TestQuestionHandler_AnswerDispatchReturns202(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/q1/answer", "alice@example.org", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.Data.TaskID)

	require.Len(t, f.dispatcher.names, 1)
	assert.Equal(t, tasks.KindAnswerQuestion, f.dispatcher.names[0])
	assert.Equal(t, "abc123", f.dispatcher.hashes[0])
}

func TestQuestionHandler_AnswerForUnknownQuestionDoesNotDispatch(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/missing/answer", "alice@example.org", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, f.dispatcher.names, "no job may be dispatched for an unknown question")
}

func TestQuestionHandler_RefreshKGDispatchReturns202(t *testing.T) {
	f := newQuestionFixture(nil)

	w := f.request(t, "POST", "/q/q1/refresh_kg", "alice@example.org", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.Data.TaskID)

	require.Len(t, f.dispatcher.names, 1)
	assert.Equal(t, tasks.KindUpdateKG, f.dispatcher.names[0])
	assert.Equal(t, 1, f.cache.invalidations, "stale answer cache must be dropped on refresh")
}

func TestQuestionHandler_TasksReportsActiveBuckets(t *testing.T) {
	f := newQuestionFixture([]tasks.Job{
		{ID: "1", Name: tasks.KindAnswerQuestion, Args: []string{"abc123"}, State: tasks.StateStarted},
		{ID: "2", Name: tasks.KindAnswerQuestion, Args: []string{"xyz999"}, State: tasks.StateStarted},
		{ID: "3", Name: tasks.KindUpdateKG, Args: []string{"abc123"}, State: tasks.StateSuccess},
	})

	w := f.request(t, "GET", "/q/q1/tasks", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data tasks.Buckets `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Answerers, 1)
	assert.Equal(t, "1", resp.Data.Answerers[0].ID)
	assert.Empty(t, resp.Data.Updaters)
}
