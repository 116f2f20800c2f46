// Package similarity holds the pure scoring functions that turn raw resource
// signals into comparable weights in [0,1].
package similarity

import (
	"math"
	"sort"

	"github.com/siherrmann/relgraph/model"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty, mismatched or zero-magnitude vectors yield 0, as do vectors with
// NaN or infinite components. The result is clamped to [-1,1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1)
}

// TagOverlapScore scores the exact, case-sensitive overlap of two subject lists.
// One shared subject scores 0.5 and every further one adds 0.1, capped at 1.
// The shared subjects are returned sorted.
func TagOverlapScore(a, b []string) (float64, []string) {
	shared := Intersection(a, b)
	if len(shared) == 0 {
		return 0, shared
	}
	return math.Min(1.0, 0.5+float64(len(shared)-1)*0.1), shared
}

// Intersection returns the sorted set intersection of a and b,
// compared exactly.
func Intersection(a, b []string) []string {
	shared := []string{}
	if len(a) == 0 || len(b) == 0 {
		return shared
	}

	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}

	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		shared = append(shared, s)
	}
	sort.Strings(shared)

	return shared
}

// ClassificationMatchScore is 1 if both codes are present and equal, 0 otherwise.
func ClassificationMatchScore(a, b *string) float64 {
	if a == nil || b == nil || *a == "" || *b == "" {
		return 0
	}
	if *a == *b {
		return 1
	}
	return 0
}

// HybridWeight fuses the three signal scores with w.
// Negative vector similarity counts as no similarity, non-finite signals count as 0.
func HybridWeight(vector, tag, classification float64, w model.ScoringWeights) float64 {
	combined := w.Vector*math.Max(0, finite(vector)) + w.Tag*finite(tag) + w.Classification*finite(classification)
	return clamp(combined, 0, 1)
}

// ConnectionTypeFor picks the dominant signal: classification, then topical, then semantic.
func ConnectionTypeFor(tag, classification float64) model.ConnectionType {
	switch {
	case classification > 0:
		return model.ConnectionTypeClassification
	case tag > 0:
		return model.ConnectionTypeTopical
	default:
		return model.ConnectionTypeSemantic
	}
}

// Score is the full soft-signal comparison of two resources.
type Score struct {
	Vector         float64
	HasVector      bool
	Tag            float64
	SharedSubjects []string
	Classification float64
	Weight         float64
	ConnectionType model.ConnectionType
}

// Compare scores a against b with the given weights.
func Compare(a, b *model.Resource, w model.ScoringWeights) Score {
	s := Score{}
	if a.HasEmbedding() && b.HasEmbedding() {
		s.Vector = CosineSimilarity(a.Embedding, b.Embedding)
		s.HasVector = true
	}
	s.Tag, s.SharedSubjects = TagOverlapScore(a.Subjects, b.Subjects)
	s.Classification = ClassificationMatchScore(a.Classification, b.Classification)
	s.Weight = HybridWeight(s.Vector, s.Tag, s.Classification, w)
	s.ConnectionType = ConnectionTypeFor(s.Tag, s.Classification)
	return s
}

// SoftEdge converts the score into an edge from source to target.
func (s Score) SoftEdge(source, target *model.Resource) *model.SoftEdge {
	edge := &model.SoftEdge{
		SourceID:       source.ID,
		TargetID:       target.ID,
		Weight:         s.Weight,
		ConnectionType: s.ConnectionType,
		SharedSubjects: s.SharedSubjects,
	}
	if s.HasVector {
		v := s.Vector
		edge.VectorSimilarity = &v
	}
	return edge
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clamp maps NaN to 0.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
