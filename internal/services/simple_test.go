package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	builderSubmits int32
	rankerSubmits  int32
	builderStatus  string
	rankerStatus   string
	answerSet      string

	builder *httptest.Server
	ranker  *httptest.Server
}

func newFakeBackend(builderStatus, rankerStatus string) *fakeBackend {
	b := &fakeBackend{
		builderStatus: builderStatus,
		rankerStatus:  rankerStatus,
		answerSet:     `{"answers":[{"nodes":[{"id":"n0:source"},{"id":"HGNC:123","name":"BRCA1"}]}]}`,
	}

	b.builder = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/":
			atomic.AddInt32(&b.builderSubmits, 1)
			json.NewEncoder(w).Encode(map[string]string{"task_id": "build-1"})
		case strings.HasPrefix(r.URL.Path, "/task/"):
			json.NewEncoder(w).Encode(map[string]string{"status": b.builderStatus})
		case strings.HasPrefix(r.URL.Path, "/synonymize/"):
			// /synonymize/{curie}/{type}/
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			json.NewEncoder(w).Encode(map[string]string{"id": "NORM:" + parts[1]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	b.ranker = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/":
			atomic.AddInt32(&b.rankerSubmits, 1)
			json.NewEncoder(w).Encode(map[string]string{"task_id": "answer-1"})
		case strings.HasPrefix(r.URL.Path, "/task/"):
			json.NewEncoder(w).Encode(map[string]string{"status": b.rankerStatus})
		case strings.HasPrefix(r.URL.Path, "/result/"):
			w.Write([]byte(b.answerSet))
		case strings.HasPrefix(r.URL.Path, "/similarity/"):
			w.Write([]byte(`[{"id":"MONDO:0005015"}]`))
		case strings.HasPrefix(r.URL.Path, "/enrichment/"):
			w.Write([]byte(`[{"id":"HGNC:123"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	return b
}

func (b *fakeBackend) Close() {
	b.builder.Close()
	b.ranker.Close()
}

func (b *fakeBackend) service() *SimpleService {
	logger := logrus.New()
	return NewSimpleService(
		remote.NewBuilderClient(b.builder.URL, logger),
		remote.NewRankerClient(b.ranker.URL, logger),
		remote.NewOntologyClient(b.builder.URL, logger),
		remote.NewPoller(time.Millisecond, time.Second, logger),
		logger,
	)
}

func TestSimpleService_Quick(t *testing.T) {
	backend := newFakeBackend("SUCCESS", "SUCCESS")
	defer backend.Close()

	answerSet, err := backend.service().Quick(context.Background(), models.TwoNodeQuestion("disease", "MONDO:0005737", "gene", ""), DefaultMaxResults, false)
	require.NoError(t, err)
	assert.Contains(t, string(answerSet), "BRCA1")

	assert.EqualValues(t, 0, backend.builderSubmits)
	assert.EqualValues(t, 1, backend.rankerSubmits)
}

func TestSimpleService_QuickRebuildRunsBuilderFirst(t *testing.T) {
	backend := newFakeBackend("SUCCESS", "SUCCESS")
	defer backend.Close()

	_, err := backend.service().Quick(context.Background(), models.TwoNodeQuestion("disease", "MONDO:0005737", "gene", ""), DefaultMaxResults, true)
	require.NoError(t, err)

	assert.EqualValues(t, 1, backend.builderSubmits)
	assert.EqualValues(t, 1, backend.rankerSubmits)
}

func TestSimpleService_QuickAbortsWhenRebuildFails(t *testing.T) {
	backend := newFakeBackend("FAILURE", "SUCCESS")
	defer backend.Close()

	_, err := backend.service().Quick(context.Background(), models.TwoNodeQuestion("disease", "MONDO:0005737", "gene", ""), DefaultMaxResults, true)
	assert.ErrorIs(t, err, remote.ErrRemoteJobFailed)

	assert.EqualValues(t, 1, backend.builderSubmits)
	assert.EqualValues(t, 0, backend.rankerSubmits, "ranker must never be contacted when the rebuild fails")
}

func TestSimpleService_ExpandCSV(t *testing.T) {
	backend := newFakeBackend("SUCCESS", "SUCCESS")
	defer backend.Close()

	result, err := backend.service().Expand(context.Background(), "disease", "MONDO:0005737", "gene", "", false, true)
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal(result, &names))
	assert.Equal(t, []string{"BRCA1(HGNC:123)"}, names)
}

func TestSimpleService_SimilarityRebuildFailureIsNonFatal(t *testing.T) {
	backend := newFakeBackend("FAILURE", "SUCCESS")
	defer backend.Close()

	result, err := backend.service().Similarity(context.Background(), "disease", "MONDO:0005737", "disease", "phenotype", remote.SimilarityParams{}, true)
	require.NoError(t, err)
	assert.Contains(t, string(result), "MONDO:0005015")

	assert.EqualValues(t, 1, backend.builderSubmits)
}

func TestSimpleService_EnrichedNormalizesAndDeduplicates(t *testing.T) {
	backend := newFakeBackend("SUCCESS", "SUCCESS")
	defer backend.Close()

	// Both raw identifiers normalize to the same curie, so the enrichment
	// request should carry it once.
	result, err := backend.service().Enriched(context.Background(), "disease", "gene", models.EnrichedRequest{
		Identifiers: []string{"MESH:D003920", "MESH:D003920"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(result), "HGNC:123")
}

func TestTerminalNodeNames(t *testing.T) {
	answerSet := json.RawMessage(`{"answers":[
		{"nodes":[{"id":"a"},{"id":"HGNC:1","name":"TP53"}]},
		{"nodes":[{"id":"a"},{"id":"HGNC:2"}]},
		{"nodes":[]}
	]}`)

	names, err := terminalNodeNames(answerSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"TP53(HGNC:1)", "HGNC:2"}, names)
}
