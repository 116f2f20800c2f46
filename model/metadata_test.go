package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeMetadataScan(t *testing.T) {
	t.Run("Scan stored temporal metadata", func(t *testing.T) {
		var m EdgeMetadata
		err := m.Scan([]byte(`{"temporal":{"year":2020,"year_diff":0}}`))

		require.NoError(t, err)
		require.NotNil(t, m.Temporal, "Expected temporal variant to be set")
		assert.Equal(t, 2020, m.Temporal.Year)
	})

	t.Run("Scan value written by Value", func(t *testing.T) {
		nodeID := uuid.New()
		original := EdgeMetadata{Subject: &SubjectMetadata{TaxonomyNodeID: nodeID, TaxonomyNodeName: "Physics"}}

		value, err := original.Value()
		require.NoError(t, err)

		var m EdgeMetadata
		require.NoError(t, m.Scan(value))
		require.NotNil(t, m.Subject)
		assert.Equal(t, nodeID, m.Subject.TaxonomyNodeID)
	})

	t.Run("Lenient read of broken payloads", func(t *testing.T) {
		inputs := []interface{}{nil, []byte{}, []byte("not json"), "{broken", 42}

		for _, input := range inputs {
			m := EdgeMetadata{Temporal: &TemporalMetadata{Year: 1}}
			err := m.Scan(input)

			assert.NoError(t, err, "Expected no error for %v", input)
			assert.True(t, m.IsEmpty(), "Expected empty metadata for %v", input)
		}
	})
}

func TestEdgeMetadataValidate(t *testing.T) {
	t.Run("Matching variant is valid", func(t *testing.T) {
		m := NewCoAuthorshipMetadata([]string{"Lovelace", "Babbage"})

		assert.NoError(t, m.Validate(EdgeTypeCoAuthorship))
		assert.Equal(t, []string{"Babbage", "Lovelace"}, m.CoAuthorship.SharedAuthors, "Expected shared authors to be sorted")
	})

	t.Run("Empty metadata is valid for all types", func(t *testing.T) {
		for _, edgeType := range AllEdgeTypes() {
			assert.NoError(t, EdgeMetadata{}.Validate(edgeType))
		}
	})

	t.Run("Mismatching variant is rejected", func(t *testing.T) {
		m := EdgeMetadata{Temporal: &TemporalMetadata{Year: 2020}}

		assert.ErrorIs(t, m.Validate(EdgeTypeCitation), ErrInvalidInput)
	})
}
