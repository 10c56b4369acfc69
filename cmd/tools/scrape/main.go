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
	sourceID := flag.String("source", "", "scrape a single source by ID instead of the full cycle")
	noAI := flag.Bool("no-ai", false, "disable the AI relevance gate and enrichment")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	registry, err := ingest.LoadRegistry("internal/ingest/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	var aiClient *ai.OllamaClient
	if !*noAI {
		aiClient = ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), "", "")
	}

	pipeline := ingest.NewPipeline(db.NewStore(pool), registry, aiClient)

	if *sourceID != "" {
		source, ok := registry.Find(*sourceID)
		if !ok {
			log.Fatalf("Unknown source ID %q", *sourceID)
		}
		articles, err := pipeline.ScrapeSource(ctx, source)
		if err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Printf("Scraped %d articles from %s", len(articles), source.Name)

		stored := 0
		for _, article := range articles {
			event, err := pipeline.ProcessArticle(ctx, article)
			if err != nil {
				log.Printf("Error processing %s: %v", article.URL, err)
				continue
			}
			if event != nil {
				stored++
			}
		}
		log.Printf("Stored %d funding events", stored)
		return
	}

	stored, err := pipeline.RunScrapingCycle(ctx)
	if err != nil {
		log.Fatalf("Scraping cycle failed: %v", err)
	}
	log.Printf("Stored %d funding events", stored)
}
