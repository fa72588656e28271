package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// OntologyClient talks to the ontology service for hierarchy lookups.
type OntologyClient struct {
	*Client
}

func NewOntologyClient(baseURL string, logger *logrus.Logger) *OntologyClient {
	return &OntologyClient{Client: NewClient(baseURL, logger)}
}

type descendantsResponse struct {
	Descendants []string `json:"descendants"`
}

// Descendants returns all ontological descendants of the given identifier.
func (c *OntologyClient) Descendants(ctx context.Context, curie string) ([]string, error) {
	endpoint := fmt.Sprintf("/descendants/%s", url.PathEscape(curie))

	var resp descendantsResponse
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("descendants lookup failed: %w", err)
	}
	return resp.Descendants, nil
}
