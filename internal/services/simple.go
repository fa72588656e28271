package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/sirupsen/logrus"
)

// DefaultMaxResults bounds quick answers unless the caller overrides it.
// UnboundedResults disables the bound.
const (
	DefaultMaxResults = 250
	UnboundedResults  = -1
)

const (
	defaultEnrichmentThreshhold = 0.05
	defaultEnrichmentMaxResults = 100
)

// SimpleService runs the synchronous analytics flows: submit remote work,
// block on completion, and return results inline. Nothing here touches the
// question store; questions are supplied by the caller and discarded.
type SimpleService struct {
	builder  *remote.BuilderClient
	ranker   *remote.RankerClient
	ontology *remote.OntologyClient
	poller   *remote.Poller
	logger   *logrus.Logger
}

func NewSimpleService(
	builder *remote.BuilderClient,
	ranker *remote.RankerClient,
	ontology *remote.OntologyClient,
	poller *remote.Poller,
	logger *logrus.Logger,
) *SimpleService {
	return &SimpleService{
		builder:  builder,
		ranker:   ranker,
		ontology: ontology,
		poller:   poller,
		logger:   logger,
	}
}

// Quick answers a question synchronously. With rebuild set, the knowledge
// graph is rebuilt first and any build failure aborts the whole request
// before the ranker is ever contacted. The stages run strictly in order.
func (s *SimpleService) Quick(ctx context.Context, question models.MachineQuestion, maxResults int, rebuild bool) (json.RawMessage, error) {
	if rebuild {
		buildID, err := s.builder.Submit(ctx, question)
		if err != nil {
			return nil, err
		}
		s.logger.WithField("task_id", buildID).Info("Updating knowledge graph")

		if err := s.poller.AwaitCompletion(ctx, s.builder.StatusFunc(buildID)); err != nil {
			return nil, fmt.Errorf("knowledge graph update failed: %w", err)
		}
		s.logger.Info("Done updating knowledge graph, answering question")
	}

	answerID, err := s.ranker.Submit(ctx, question, maxResults)
	if err != nil {
		return nil, err
	}

	if err := s.poller.AwaitCompletion(ctx, s.ranker.StatusFunc(answerID)); err != nil {
		return nil, fmt.Errorf("answering failed: %w", err)
	}

	return s.ranker.Result(ctx, answerID)
}

// Expand answers the minimal two-node question from a named entity to an
// entity type, unbounded. With csv set, the answer set is reduced to
// "name(id)" strings of the terminal nodes.
func (s *SimpleService) Expand(ctx context.Context, type1, id1, type2, predicate string, rebuild, csv bool) (json.RawMessage, error) {
	question := models.TwoNodeQuestion(type1, id1, type2, predicate)

	answerSet, err := s.Quick(ctx, question, UnboundedResults, rebuild)
	if err != nil {
		return nil, err
	}
	if !csv {
		return answerSet, nil
	}

	names, err := terminalNodeNames(answerSet)
	if err != nil {
		return nil, err
	}
	return json.Marshal(names)
}

// Similarity finds type2 entities similar to a named type1 entity, where
// similarity is evaluated through shared byType neighbors. The identifier
// is normalized first. A requested rebuild walks a chain question through
// the builder; rebuild errors are logged and the search proceeds anyway.
func (s *SimpleService) Similarity(ctx context.Context, type1, id1, type2, byType string, params remote.SimilarityParams, rebuild bool) (json.RawMessage, error) {
	normalized, err := s.builder.Synonymize(ctx, id1, type1)
	if err != nil {
		return nil, err
	}

	if rebuild {
		question := similarityChainQuestion(type1, normalized, type2, byType)
		if err := s.rebuildGraph(ctx, question); err != nil {
			s.logger.WithError(err).Error("Similarity rebuild failed, proceeding with existing graph")
		}
	}

	return s.ranker.Similarity(ctx, type1, normalized, type2, byType, params)
}

// Enriched computes an enriched expansion from a set of type1 identifiers
// to type2 entities. Identifiers are normalized and deduplicated, optionally
// extended with their ontological descendants. Rebuilds run per identifier
// and are non-fatal.
func (s *SimpleService) Enriched(ctx context.Context, type1, type2 string, req models.EnrichedRequest) (json.RawMessage, error) {
	seen := make(map[string]struct{}, len(req.Identifiers))
	normalized := make([]string, 0, len(req.Identifiers))
	for _, id := range req.Identifiers {
		normed, err := s.builder.Synonymize(ctx, id, type1)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[normed]; ok {
			continue
		}
		seen[normed] = struct{}{}
		normalized = append(normalized, normed)
	}

	if req.IncludeDescendants {
		normalized = s.addDescendants(ctx, normalized, seen)
	}

	if req.Rebuild {
		for _, normed := range normalized {
			question := enrichedChainQuestion(type1, normed, type2)
			if err := s.rebuildGraph(ctx, question); err != nil {
				s.logger.WithError(err).WithField("identifier", normed).Error("Enrichment rebuild failed, proceeding with existing graph")
			}
		}
	}

	params := remote.EnrichmentParams{
		Identifiers: normalized,
		Threshhold:  defaultEnrichmentThreshhold,
		MaxResults:  defaultEnrichmentMaxResults,
	}
	if req.Threshhold != nil {
		params.Threshhold = *req.Threshhold
	}
	if req.MaxResults != nil {
		params.MaxResults = *req.MaxResults
	}
	if req.NumType1 != nil {
		params.NumType1 = req.NumType1
	}

	return s.ranker.Enrichment(ctx, type1, type2, params)
}

// rebuildGraph submits one build and blocks on its completion.
func (s *SimpleService) rebuildGraph(ctx context.Context, question models.MachineQuestion) error {
	buildID, err := s.builder.Submit(ctx, question)
	if err != nil {
		return err
	}
	return s.poller.AwaitCompletion(ctx, s.builder.StatusFunc(buildID))
}

// addDescendants extends the identifier set with ontological descendants.
// Lookup failures drop that identifier's descendants only.
func (s *SimpleService) addDescendants(ctx context.Context, identifiers []string, seen map[string]struct{}) []string {
	extended := identifiers
	for _, id := range identifiers {
		descendants, err := s.ontology.Descendants(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("identifier", id).Warn("Descendant lookup failed")
			continue
		}
		for _, d := range descendants {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			extended = append(extended, d)
		}
	}
	return extended
}

// similarityChainQuestion spans source to candidates through the shared
// neighbor type, so the builder fills in everything similarity scoring
// needs.
func similarityChainQuestion(type1, curie, type2, byType string) models.MachineQuestion {
	return models.MachineQuestion{
		Nodes: []models.QNode{
			{ID: "n0", Curie: curie, Type: type1},
			{ID: "n1", Type: byType},
			{ID: "n2", Type: type2},
			{ID: "n3", Type: byType},
		},
		Edges: []models.QEdge{
			{SourceID: "n0", TargetID: "n1"},
			{SourceID: "n1", TargetID: "n2"},
			{SourceID: "n2", TargetID: "n3"},
		},
	}
}

// enrichedChainQuestion covers one identifier's neighborhood out to other
// type1 entities reachable through type2.
func enrichedChainQuestion(type1, curie, type2 string) models.MachineQuestion {
	return models.MachineQuestion{
		Nodes: []models.QNode{
			{ID: "n0", Curie: curie, Type: type1},
			{ID: "n1", Type: type2},
			{ID: "n2", Type: type1},
		},
		Edges: []models.QEdge{
			{SourceID: "n0", TargetID: "n1"},
			{SourceID: "n1", TargetID: "n2"},
		},
	}
}

// terminalNodeNames reduces an answer set to "name(id)" strings of each
// answer's final node. Nodes without a name fall back to the bare id.
func terminalNodeNames(answerSet json.RawMessage) ([]string, error) {
	var parsed struct {
		Answers []struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"answers"`
	}
	if err := json.Unmarshal(answerSet, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected answer set shape: %w", err)
	}

	names := make([]string, 0, len(parsed.Answers))
	for _, answer := range parsed.Answers {
		if len(answer.Nodes) == 0 {
			continue
		}
		terminal := answer.Nodes[len(answer.Nodes)-1]
		if terminal.Name != "" {
			names = append(names, fmt.Sprintf("%s(%s)", terminal.Name, terminal.ID))
		} else {
			names = append(names, terminal.ID)
		}
	}
	return names, nil
}
