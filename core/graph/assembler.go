package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/siherrmann/relgraph/core/synthesis"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
	"golang.org/x/sync/errgroup"
)

// NodeSource loads every catalog resource.
type NodeSource interface {
	SelectAllResources(ctx context.Context) ([]*model.Resource, error)
}

// EdgeSource loads every persisted structural edge.
type EdgeSource interface {
	SelectAllEdges(ctx context.Context) ([]*model.Edge, error)
}

// EdgeSynthesis persists structural edges before assembly.
type EdgeSynthesis interface {
	Run(ctx context.Context) ([]*synthesis.Report, error)
}

// Assembler builds a Graph from the catalog and the edge store.
type Assembler struct {
	nodes     NodeSource
	edges     EdgeSource
	synthesis EdgeSynthesis
	logger    *slog.Logger
}

// NewAssembler creates an assembler. synth may be nil to assemble from the
// persisted edges only.
func NewAssembler(nodes NodeSource, edges EdgeSource, synth EdgeSynthesis, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{nodes: nodes, edges: edges, synthesis: synth, logger: logger}
}

// Assemble runs the synthesizers and loads nodes and edges into a new Graph.
func (a *Assembler) Assemble(ctx context.Context) (*Graph, error) {
	if a.synthesis != nil {
		_, err := a.synthesis.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, helper.NewError("synthesize edges", err)
			}
			a.logger.Warn("Assembling with partially synthesized edges", slog.String("error", err.Error()))
		}
	}

	var resources []*model.Resource
	var edges []*model.Edge

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		resources, err = a.nodes.SelectAllResources(egCtx)
		if err != nil {
			return helper.NewError("load resources", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		edges, err = a.edges.SelectAllEdges(egCtx)
		if err != nil {
			return helper.NewError("load edges", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, helper.NewError("assemble graph", err)
	}

	g, dropped := NewGraph(resources, edges)
	for _, e := range dropped {
		a.logger.Debug("Dropped edge with unknown endpoint",
			slog.String("edge_id", e.ID.String()),
			slog.String("edge_type", string(e.EdgeType)),
		)
	}

	a.logger.Info("Assembled graph",
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("dropped_edges", len(dropped)),
	)

	return g, nil
}
