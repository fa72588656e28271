package remote

// Response models shared by the builder and ranker services.

type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	Status string `json:"status"`
}

type SynonymizeResponse struct {
	ID string `json:"id"`
}

// SimilarityParams are the query parameters of the ranker similarity
// endpoint. Nil fields are omitted so the ranker applies its own defaults.
type SimilarityParams struct {
	Threshhold *float64
	MaxResults *int
}

// EnrichmentParams is the body of the ranker enrichment endpoint.
type EnrichmentParams struct {
	Identifiers []string `json:"identifiers"`
	Threshhold  float64  `json:"threshhold"`
	MaxResults  int      `json:"maxresults"`
	NumType1    *int     `json:"num_type1"`
}
