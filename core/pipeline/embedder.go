package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/relgraph/helper"
)

const (
	// DefaultModelName produces 384-dimensional sentence embeddings.
	DefaultModelName    = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbeddingDim = 384
)

// DefaultEmbedder creates an embedder backed by DefaultModelName.
func DefaultEmbedder() (EmbedFunc, error) {
	return NewHugotEmbedder(DefaultModelName, "")
}

// NewHugotEmbedder creates an embedder running a sentence transformer with
// the pure Go hugot backend. The model is downloaded on first use.
func NewHugotEmbedder(modelName string, onnxFilePath string) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, onnxFilePath)
	if err != nil {
		return nil, helper.NewError("prepare model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "resource-embedder",
	}
	featurePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create feature pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create feature pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := featurePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}, nil
}
