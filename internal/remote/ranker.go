package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bioqa/manager/internal/models"
	"github.com/sirupsen/logrus"
)

// RankerClient talks to the answering/ranking service.
type RankerClient struct {
	*Client
}

func NewRankerClient(baseURL string, logger *logrus.Logger) *RankerClient {
	return &RankerClient{Client: NewClient(baseURL, logger)}
}

// Submit asks the ranker to answer the given question. maxResults of -1
// means unbounded. Returns the remote job id.
func (c *RankerClient) Submit(ctx context.Context, question models.MachineQuestion, maxResults int) (string, error) {
	payload := map[string]interface{}{"machine_question": question}
	endpoint := fmt.Sprintf("/?max_results=%d", maxResults)

	var resp SubmitResponse
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		return "", fmt.Errorf("ranker submission failed: %w", err)
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("ranker returned no task id")
	}
	return resp.TaskID, nil
}

// Result fetches the final answer payload. Only valid once the job status
// is SUCCESS.
func (c *RankerClient) Result(ctx context.Context, taskID string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.makeRequest(ctx, http.MethodGet, "/result/"+taskID, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}
	return result, nil
}

// Subgraph returns the knowledge-graph neighborhood relevant to a question.
func (c *RankerClient) Subgraph(ctx context.Context, question models.MachineQuestion) (json.RawMessage, error) {
	payload := map[string]interface{}{"machine_question": question}

	var result json.RawMessage
	if err := c.makeRequest(ctx, http.MethodPost, "/subgraph", payload, &result); err != nil {
		return nil, fmt.Errorf("subgraph request failed: %w", err)
	}
	return result, nil
}

// Similarity runs a similarity search between two entity types evaluated
// through a third.
func (c *RankerClient) Similarity(ctx context.Context, type1, id1, type2, byType string, params SimilarityParams) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/similarity/%s/%s/%s/%s",
		url.PathEscape(type1), url.PathEscape(id1), url.PathEscape(type2), url.PathEscape(byType))

	values := url.Values{}
	if params.Threshhold != nil {
		values.Set("threshhold", strconv.FormatFloat(*params.Threshhold, 'f', -1, 64))
	}
	if params.MaxResults != nil {
		values.Set("maxresults", strconv.Itoa(*params.MaxResults))
	}
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result json.RawMessage
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("similarity request failed: %w", err)
	}
	return result, nil
}

// Enrichment computes enriched expansion between two entity types for a set
// of identifiers.
func (c *RankerClient) Enrichment(ctx context.Context, type1, type2 string, params EnrichmentParams) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/enrichment/%s/%s", url.PathEscape(type1), url.PathEscape(type2))

	var result json.RawMessage
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, params, &result); err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	return result, nil
}
