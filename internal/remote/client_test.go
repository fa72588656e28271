package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bioqa/manager/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestion() models.MachineQuestion {
	return models.TwoNodeQuestion("disease", "MONDO:0005737", "gene", "")
}

func TestBuilderClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]models.MachineQuestion
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["machine_question"].Nodes, 2)

		json.NewEncoder(w).Encode(SubmitResponse{TaskID: "build-42"})
	}))
	defer server.Close()

	client := NewBuilderClient(server.URL, logrus.New())
	taskID, err := client.Submit(context.Background(), testQuestion())
	require.NoError(t, err)
	assert.Equal(t, "build-42", taskID)
}

func TestBuilderClient_Synonymize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/synonymize/MESH:D003920/disease/", r.URL.Path)

		json.NewEncoder(w).Encode(SynonymizeResponse{ID: "MONDO:0005015"})
	}))
	defer server.Close()

	client := NewBuilderClient(server.URL, logrus.New())
	id, err := client.Synonymize(context.Background(), "MESH:D003920", "disease")
	require.NoError(t, err)
	assert.Equal(t, "MONDO:0005015", id)
}

func TestRankerClient_SubmitPassesMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "-1", r.URL.Query().Get("max_results"))
		json.NewEncoder(w).Encode(SubmitResponse{TaskID: "answer-7"})
	}))
	defer server.Close()

	client := NewRankerClient(server.URL, logrus.New())
	taskID, err := client.Submit(context.Background(), testQuestion(), -1)
	require.NoError(t, err)
	assert.Equal(t, "answer-7", taskID)
}

func TestRankerClient_Result(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/result/answer-7", r.URL.Path)

		w.Write([]byte(`{"answers":[{"nodes":[{"id":"MONDO:0005737"}]}]}`))
	}))
	defer server.Close()

	client := NewRankerClient(server.URL, logrus.New())
	result, err := client.Result(context.Background(), "answer-7")
	require.NoError(t, err)
	assert.Contains(t, string(result), "MONDO:0005737")
}

func TestRankerClient_SimilarityQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/similarity/disease/MONDO:0005737/disease/phenotype", r.URL.Path)
		assert.Equal(t, "0.5", r.URL.Query().Get("threshhold"))
		assert.Equal(t, "10", r.URL.Query().Get("maxresults"))

		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	threshhold := 0.5
	maxResults := 10
	client := NewRankerClient(server.URL, logrus.New())
	_, err := client.Similarity(context.Background(), "disease", "MONDO:0005737", "disease", "phenotype",
		SimilarityParams{Threshhold: &threshhold, MaxResults: &maxResults})
	require.NoError(t, err)
}

func TestClient_TaskStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/task/build-42", r.URL.Path)
		json.NewEncoder(w).Encode(TaskStatusResponse{Status: "SUCCESS"})
	}))
	defer server.Close()

	client := NewClient(server.URL, logrus.New())
	status, err := client.TaskStatus(context.Background(), "build-42")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", status)
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, logrus.New())
	_, err := client.TaskStatus(context.Background(), "build-42")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_UnreachableServiceIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewBuilderClient(server.URL, logrus.New())
	_, err := client.Submit(context.Background(), testQuestion())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestOntologyClient_Descendants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/descendants/MONDO:0005015", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{
			"descendants": {"MONDO:0005147", "MONDO:0005148"},
		})
	}))
	defer server.Close()

	client := NewOntologyClient(server.URL, logrus.New())
	descendants, err := client.Descendants(context.Background(), "MONDO:0005015")
	require.NoError(t, err)
	assert.Equal(t, []string{"MONDO:0005147", "MONDO:0005148"}, descendants)
}
