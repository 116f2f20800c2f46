package model

import (
	"fmt"
	"math"

	"github.com/siherrmann/relgraph/helper"
)

const (
	// DefaultVectorWeight is the share of cosine similarity in a hybrid weight.
	DefaultVectorWeight = 0.6
	// DefaultTagWeight is the share of subject tag overlap in a hybrid weight.
	DefaultTagWeight = 0.3
	// DefaultClassificationWeight is the share of a classification match in a hybrid weight.
	DefaultClassificationWeight = 0.1

	DefaultPathStrengthWeight = 0.5
	DefaultQualityWeight      = 0.3
	DefaultNoveltyWeight      = 0.2
	// DefaultNeutralQuality is used for resources without a quality score.
	DefaultNeutralQuality = 0.5
	DefaultNovelty        = 0.5

	DefaultCitationWeight          = 1.0
	DefaultSubjectSimilarityWeight = 0.5
	DefaultTemporalWeight          = 0.3
	DefaultMaxYearDiff             = 0
	DefaultSynthesisBatchSize      = 500

	// DefaultOverviewNoiseFloor drops overview edges scoring below it.
	DefaultOverviewNoiseFloor = 0.1

	weightSumTolerance = 1e-6
)

// ScoringWeights fuse the soft signals into one hybrid weight.
// The three weights have to sum to 1.
type ScoringWeights struct {
	Vector         float64 `json:"vector" validate:"gte=0,lte=1"`
	Tag            float64 `json:"tag" validate:"gte=0,lte=1"`
	Classification float64 `json:"classification" validate:"gte=0,lte=1"`
}

// Sum returns the sum of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.Vector + w.Tag + w.Classification
}

// NoveltyFunc scores how novel a discovered resource is, in [0,1].
type NoveltyFunc func(target *Resource) float64

// ConstantNovelty returns a NoveltyFunc that always yields v.
func ConstantNovelty(v float64) NoveltyFunc {
	return func(*Resource) float64 {
		return v
	}
}

// RankingConfig controls how multi-hop neighbors are scored.
type RankingConfig struct {
	PathStrengthWeight float64     `json:"path_strength_weight" validate:"gte=0,lte=1"`
	QualityWeight      float64     `json:"quality_weight" validate:"gte=0,lte=1"`
	NoveltyWeight      float64     `json:"novelty_weight" validate:"gte=0,lte=1"`
	NeutralQuality     float64     `json:"neutral_quality" validate:"gte=0,lte=1"`
	Novelty            NoveltyFunc `json:"-"`
}

// NoveltyOf returns the novelty of target, falling back to DefaultNovelty.
func (r RankingConfig) NoveltyOf(target *Resource) float64 {
	if r.Novelty == nil {
		return DefaultNovelty
	}
	return r.Novelty(target)
}

// SynthesisConfig controls structural edge synthesis.
type SynthesisConfig struct {
	CitationWeight          float64 `json:"citation_weight" validate:"gt=0,lte=1"`
	SubjectSimilarityWeight float64 `json:"subject_similarity_weight" validate:"gt=0,lte=1"`
	TemporalWeight          float64 `json:"temporal_weight" validate:"gt=0,lte=1"`
	MaxYearDiff             int     `json:"max_year_diff" validate:"gte=0"`
	BatchSize               int     `json:"batch_size" validate:"gte=1"`
}

// Config is the engine configuration.
type Config struct {
	Weights            ScoringWeights  `json:"weights"`
	Ranking            RankingConfig   `json:"ranking"`
	Synthesis          SynthesisConfig `json:"synthesis"`
	OverviewNoiseFloor float64         `json:"overview_noise_floor" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoringWeights{
			Vector:         DefaultVectorWeight,
			Tag:            DefaultTagWeight,
			Classification: DefaultClassificationWeight,
		},
		Ranking: RankingConfig{
			PathStrengthWeight: DefaultPathStrengthWeight,
			QualityWeight:      DefaultQualityWeight,
			NoveltyWeight:      DefaultNoveltyWeight,
			NeutralQuality:     DefaultNeutralQuality,
			Novelty:            ConstantNovelty(DefaultNovelty),
		},
		Synthesis: SynthesisConfig{
			CitationWeight:          DefaultCitationWeight,
			SubjectSimilarityWeight: DefaultSubjectSimilarityWeight,
			TemporalWeight:          DefaultTemporalWeight,
			MaxYearDiff:             DefaultMaxYearDiff,
			BatchSize:               DefaultSynthesisBatchSize,
		},
		OverviewNoiseFloor: DefaultOverviewNoiseFloor,
	}
}

// Validate checks field ranges and that the hybrid weights sum to 1.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidInput)
	}
	if err := ValidateStruct(c); err != nil {
		return err
	}
	if math.Abs(c.Weights.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: scoring weights must sum to 1, got %.4f", ErrInvalidInput, c.Weights.Sum())
	}
	return nil
}

// NewConfigFromEnv starts from DefaultConfig and overrides values set in the
// RELGRAPH_* environment variables. The result is validated.
func NewConfigFromEnv() (*Config, error) {
	c := DefaultConfig()

	floats := []struct {
		key    string
		target *float64
	}{
		{"RELGRAPH_WEIGHT_VECTOR", &c.Weights.Vector},
		{"RELGRAPH_WEIGHT_TAG", &c.Weights.Tag},
		{"RELGRAPH_WEIGHT_CLASSIFICATION", &c.Weights.Classification},
		{"RELGRAPH_RANK_PATH_STRENGTH_WEIGHT", &c.Ranking.PathStrengthWeight},
		{"RELGRAPH_RANK_QUALITY_WEIGHT", &c.Ranking.QualityWeight},
		{"RELGRAPH_RANK_NOVELTY_WEIGHT", &c.Ranking.NoveltyWeight},
		{"RELGRAPH_RANK_NEUTRAL_QUALITY", &c.Ranking.NeutralQuality},
		{"RELGRAPH_OVERVIEW_NOISE_FLOOR", &c.OverviewNoiseFloor},
	}
	for _, f := range floats {
		v, err := helper.GetEnvFloat(f.key, *f.target)
		if err != nil {
			return nil, helper.NewError("config from env", err)
		}
		*f.target = v
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"RELGRAPH_TEMPORAL_MAX_YEAR_DIFF", &c.Synthesis.MaxYearDiff},
		{"RELGRAPH_SYNTHESIS_BATCH_SIZE", &c.Synthesis.BatchSize},
	}
	for _, i := range ints {
		v, err := helper.GetEnvInt(i.key, *i.target)
		if err != nil {
			return nil, helper.NewError("config from env", err)
		}
		*i.target = v
	}

	if err := c.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	return c, nil
}
