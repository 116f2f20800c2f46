package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/relgraph"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := relgraph.NewRelgraph(dbConfig, nil, 384)
	if err != nil {
		log.Fatalf("Failed to create relgraph: %v", err)
	}
	defer r.Close()

	// Embed resources on insert
	if err := r.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	year := func(y int) *int { return &y }
	resources := []*model.Resource{
		{Title: "Attention Is All You Need", Subjects: []string{"Machine Learning"}, Authors: []string{"Vaswani", "Shazeer"}, PublicationYear: year(2017)},
		{Title: "BERT: Pre-training of Deep Bidirectional Transformers", Subjects: []string{"Machine Learning", "NLP"}, Authors: []string{"Devlin"}, PublicationYear: year(2018)},
		{Title: "Language Models are Few-Shot Learners", Subjects: []string{"NLP"}, Authors: []string{"Brown"}, PublicationYear: year(2020)},
		{Title: "Scaling Laws for Neural Language Models", Subjects: []string{"NLP"}, Authors: []string{"Kaplan", "Brown"}, PublicationYear: year(2020)},
	}

	fmt.Println("Inserting resources...")
	for _, resource := range resources {
		if err := r.InsertResource(ctx, resource); err != nil {
			log.Fatalf("Failed to insert resource: %v", err)
		}
	}

	// BERT and GPT-3 cite the transformer paper
	for _, citing := range resources[1:3] {
		citation := &model.Citation{CitingID: citing.ID, CitedID: &resources[0].ID, RawReference: "Vaswani et al. 2017"}
		if err := r.AddCitation(ctx, citation); err != nil {
			log.Fatalf("Failed to add citation: %v", err)
		}
	}

	// Synthesizes the structural edges and caches the graph
	g, err := r.BuildMultilayerGraph(ctx, false)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	fmt.Printf("Graph has %d nodes and %d edges\n", g.NodeCount(), g.EdgeCount())
	for edgeType, count := range g.EdgeCountByType() {
		fmt.Printf("  %s: %d\n", edgeType, count)
	}

	query := model.DefaultNeighborQuery(resources[2].ID)
	query.Hops = 2

	results, err := r.GetNeighborsMultihop(ctx, query)
	if err != nil {
		log.Fatalf("Failed to get neighbors: %v", err)
	}

	titles := map[string]string{}
	for _, resource := range resources {
		titles[resource.ID.String()] = resource.Title
	}

	fmt.Printf("\nNeighbors of %q:\n", resources[2].Title)
	for i, result := range results {
		fmt.Printf("%d. %s (distance %d, via %v, strength %.2f, score %.3f)\n",
			i+1, titles[result.ResourceID.String()], result.Distance, result.EdgeTypes, result.PathStrength, result.Score)
	}
}
