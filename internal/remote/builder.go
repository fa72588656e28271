package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bioqa/manager/internal/models"
	"github.com/sirupsen/logrus"
)

// BuilderClient talks to the knowledge-graph builder service.
type BuilderClient struct {
	*Client
}

func NewBuilderClient(baseURL string, logger *logrus.Logger) *BuilderClient {
	return &BuilderClient{Client: NewClient(baseURL, logger)}
}

// Submit asks the builder to (re)build the local knowledge graph for the
// given question. Returns the remote job id; the build itself is
// asynchronous and must be polled to completion.
func (c *BuilderClient) Submit(ctx context.Context, question models.MachineQuestion) (string, error) {
	payload := map[string]interface{}{"machine_question": question}

	var resp SubmitResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/", payload, &resp); err != nil {
		return "", fmt.Errorf("builder submission failed: %w", err)
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("builder returned no task id")
	}
	return resp.TaskID, nil
}

// Synonymize normalizes a curie to the builder's preferred identifier.
func (c *BuilderClient) Synonymize(ctx context.Context, curie, nodeType string) (string, error) {
	endpoint := fmt.Sprintf("/synonymize/%s/%s/", url.PathEscape(curie), url.PathEscape(nodeType))

	var resp SynonymizeResponse
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("synonymization failed: %w", err)
	}
	return resp.ID, nil
}
