package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/relgraph"
	"github.com/siherrmann/relgraph/database"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

type sampleResource struct {
	title          string
	subjects       []string
	classification string
}

var samples = []sampleResource{
	{"Introduction to Quantum Mechanics", []string{"Physics", "Quantum Mechanics"}, "QC174"},
	{"Quantum Computation and Quantum Information", []string{"Quantum Mechanics", "Computing"}, "QA76"},
	{"Principles of Optics", []string{"Physics", "Optics"}, "QC355"},
	{"Laser Physics", []string{"Optics", "Lasers"}, "QC355"},
	{"Structure and Interpretation of Computer Programs", []string{"Computing"}, "QA76"},
	{"A History of Rome", []string{"History"}, "DG209"},
}

func main() {
	ctx := context.Background()

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Engine settings can be overridden with RELGRAPH_* variables
	config, err := model.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	r, err := relgraph.NewRelgraph(dbConfig, config, 384)
	if err != nil {
		log.Fatalf("Failed to create relgraph: %v", err)
	}
	defer r.Close()

	// Insert without embeddings first and backfill afterwards
	resources := make([]*model.Resource, 0, len(samples))
	for _, sample := range samples {
		classification := sample.classification
		resource := &model.Resource{Title: sample.title, Subjects: sample.subjects, Classification: &classification}
		if err := r.InsertResource(ctx, resource); err != nil {
			log.Fatalf("Failed to insert resource: %v", err)
		}
		resources = append(resources, resource)
	}

	if err := r.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}
	updated, err := r.BackfillEmbeddings(ctx)
	if err != nil {
		log.Fatalf("Failed to backfill embeddings: %v", err)
	}
	fmt.Printf("Embedded %d resources\n", updated)

	if err := r.ChangeIndexType(ctx, database.IndexTypeIVFFlat, database.IndexParams{Lists: 10}); err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	// Taxonomy memberships become subject similarity edges
	physics := &model.TaxonomyNode{Name: "Physics"}
	if err := r.AddTaxonomyNode(ctx, physics); err != nil {
		log.Fatalf("Failed to add taxonomy node: %v", err)
	}
	for _, resource := range resources[:4] {
		if _, err := r.AddTaxonomyMembership(ctx, physics.ID, resource.ID); err != nil {
			log.Fatalf("Failed to add membership: %v", err)
		}
	}

	reports, err := r.SynthesizeEdges(ctx)
	if err != nil {
		log.Printf("Synthesis finished with errors: %v", err)
	}
	for _, report := range reports {
		fmt.Printf("%-20s candidates=%d created=%d (%s)\n", report.EdgeType, report.Candidates, report.Created, report.Duration)
	}

	fmt.Printf("\nSoft neighbors of %q:\n", resources[2].Title)
	neighbors, err := r.FindNeighbors(ctx, resources[2].ID, 3)
	if err != nil {
		log.Fatalf("Failed to find neighbors: %v", err)
	}
	printGraph(neighbors)

	fmt.Println("\nCollection overview:")
	overview, err := r.Overview(ctx, 5, 0.5)
	if err != nil {
		log.Fatalf("Failed to build overview: %v", err)
	}
	printGraph(overview)

	query := model.NeighborQuery{
		SourceID:  resources[0].ID,
		Hops:      2,
		EdgeTypes: []model.EdgeType{model.EdgeTypeSubjectSimilarity},
		Limit:     5,
	}
	results, err := r.GetNeighborsMultihop(ctx, query)
	if err != nil {
		log.Fatalf("Failed to get neighbors: %v", err)
	}
	fmt.Printf("\n%d structural neighbors of %q\n", len(results), resources[0].Title)

	stats := r.CacheStats()
	fmt.Fprintf(os.Stdout, "Cache: hits=%d misses=%d builds=%d invalidations=%d\n", stats.Hits, stats.Misses, stats.Builds, stats.Invalidations)
}

func printGraph(g *model.RelationshipGraph) {
	titles := map[string]string{}
	for _, node := range g.Nodes {
		titles[node.ID.String()] = node.Title
	}
	for _, edge := range g.Edges {
		fmt.Printf("  %s <-> %s  weight=%.3f type=%s shared=%v\n",
			titles[edge.SourceID.String()], titles[edge.TargetID.String()], edge.Weight, edge.ConnectionType, edge.SharedSubjects)
	}
}
