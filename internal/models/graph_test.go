package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoNodeQuestion(t *testing.T) {
	q := TwoNodeQuestion("disease", "MONDO:0005737", "gene", "")

	require.Len(t, q.Nodes, 2)
	assert.Equal(t, "n0", q.Nodes[0].ID)
	assert.Equal(t, "MONDO:0005737", q.Nodes[0].Curie)
	assert.Equal(t, "disease", q.Nodes[0].Type)
	assert.Equal(t, "gene", q.Nodes[1].Type)
	assert.Empty(t, q.Nodes[1].Curie)

	require.Len(t, q.Edges, 1)
	assert.Equal(t, "n0", q.Edges[0].SourceID)
	assert.Equal(t, "n1", q.Edges[0].TargetID)
	assert.Empty(t, q.Edges[0].Type)
}

func TestTwoNodeQuestion_WithPredicate(t *testing.T) {
	q := TwoNodeQuestion("disease", "MONDO:0005737", "gene", "gene_associated_with_condition")
	assert.Equal(t, "gene_associated_with_condition", q.Edges[0].Type)
}

func TestMachineQuestion_RoundTripsThroughSQL(t *testing.T) {
	original := TwoNodeQuestion("disease", "MONDO:0005737", "gene", "")

	value, err := original.Value()
	require.NoError(t, err)

	var scanned MachineQuestion
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}

func TestIdentity_IsAdmin(t *testing.T) {
	assert.True(t, Identity{Roles: []string{"user", "admin"}}.IsAdmin())
	assert.False(t, Identity{Roles: []string{"user"}}.IsAdmin())
	assert.False(t, Identity{}.IsAdmin())
}

func TestQuestion_SerializesMachineQuestion(t *testing.T) {
	q := Question{
		ID:              "q-1",
		Hash:            "abc123",
		OwnerEmail:      "alice@example.org",
		MachineQuestion: TwoNodeQuestion("disease", "MONDO:0005737", "gene", ""),
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"machine_question"`)
	assert.Contains(t, string(data), "MONDO:0005737")
}
