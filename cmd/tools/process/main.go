package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/david/funding-tracker/internal/ai"
	"github.com/david/funding-tracker/internal/db"
	"github.com/david/funding-tracker/internal/ingest"
)

func main() {
	limit := flag.Int("limit", 50, "max articles to process")
	noAI := flag.Bool("no-ai", false, "disable the AI relevance gate and enrichment")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	registry, err := ingest.LoadRegistry("internal/ingest/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	var aiClient *ai.OllamaClient
	if !*noAI {
		aiClient = ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), "", "")
	}

	pipeline := ingest.NewPipeline(db.NewStore(pool), registry, aiClient)

	stored, err := pipeline.ProcessUnprocessed(ctx, *limit)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	log.Printf("Stored %d funding events", stored)
}
