package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QNode is one node of a machine question graph. A node carrying a curie is
// "named" (bound to a concrete entity); otherwise it is an unbound node of
// the given biomedical type.
type QNode struct {
	ID    string `json:"id"`
	Type  string `json:"type,omitempty"`
	Curie string `json:"curie,omitempty"`
	Name  string `json:"name,omitempty"`
}

// QEdge connects two nodes of a machine question, optionally constrained to
// a predicate type.
type QEdge struct {
	ID       string `json:"id,omitempty"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type,omitempty"`
}

// MachineQuestion is the graph specification of a question: typed entities
// and the relations connecting them.
type MachineQuestion struct {
	Nodes []QNode `json:"nodes"`
	Edges []QEdge `json:"edges"`
}

func (m MachineQuestion) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal machine question: %w", err)
	}
	return string(data), nil
}

func (m *MachineQuestion) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	case nil:
		*m = MachineQuestion{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MachineQuestion", value)
	}
}

// TwoNodeQuestion builds the minimal expand question: a named source node
// connected to an unbound target type, optionally along a predicate.
func TwoNodeQuestion(type1, curie, type2, predicate string) MachineQuestion {
	q := MachineQuestion{
		Nodes: []QNode{
			{ID: "n0", Curie: curie, Type: type1},
			{ID: "n1", Type: type2},
		},
		Edges: []QEdge{
			{ID: "e0", SourceID: "n0", TargetID: "n1"},
		},
	}
	if predicate != "" {
		q.Edges[0].Type = predicate
	}
	return q
}
