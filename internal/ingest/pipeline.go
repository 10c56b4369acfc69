package ingest

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/david/funding-tracker/internal/ai"
	"github.com/david/funding-tracker/internal/clean"
	"github.com/david/funding-tracker/internal/db"
	"github.com/david/funding-tracker/internal/extract"
	"github.com/david/funding-tracker/internal/models"
	"github.com/david/funding-tracker/internal/validate"
)

// Pipeline coordinates scraping, extraction, normalization, validation and
// storage. The AI client is optional: when nil, the relevance gate and
// enrichment steps are skipped and events are stored from regex extraction
// alone.
type Pipeline struct {
	store     *db.Store
	registry  *Registry
	extractor *extract.Extractor
	cleaner   *clean.Cleaner
	validator *validate.Validator
	ai        *ai.OllamaClient
	scrapers  map[Strategy]Scraper
	fetcher   ContentFetcher
}

// NewPipeline wires the default scrapers and the extraction/cleaning/
// validation stages. Vocabularies and validation rules come from the
// embedded defaults unless VOCAB_PATH or RULES_PATH point at override
// files; an unparseable override is logged and ignored.
func NewPipeline(store *db.Store, registry *Registry, aiClient *ai.OllamaClient) *Pipeline {
	vocab, err := clean.LoadVocab(os.Getenv("VOCAB_PATH"))
	if err != nil {
		log.Printf("Ignoring vocab override: %v", err)
		vocab = clean.DefaultVocab()
	}
	rules, err := validate.LoadRules(os.Getenv("RULES_PATH"))
	if err != nil {
		log.Printf("Ignoring validation rules override: %v", err)
		rules = validate.DefaultRules()
	}

	techcrunch := NewTechCrunchScraper()

	return &Pipeline{
		store:     store,
		registry:  registry,
		extractor: extract.New(vocab.FundingStages),
		cleaner:   clean.New(vocab),
		validator: validate.New(rules),
		ai:        aiClient,
		scrapers: map[Strategy]Scraper{
			StrategyRSS:        NewRSSScraper(),
			StrategyTechCrunch: techcrunch,
			StrategyHTML:       NewHTMLScraper(nil),
		},
		fetcher: techcrunch,
	}
}

// ScrapeSource collects article candidates from one configured source.
func (p *Pipeline) ScrapeSource(ctx context.Context, source SourceConfig) ([]Article, error) {
	scraper, ok := p.scrapers[source.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown scrape strategy %q for source %s", source.Strategy, source.ID)
	}
	return scraper.Scrape(ctx, source)
}

// RunScrapingCycle scrapes every enabled source and runs each new article
// through the pipeline. A failing source or article is logged and skipped;
// the cycle never aborts part way. Returns the number of stored events.
func (p *Pipeline) RunScrapingCycle(ctx context.Context) (int, error) {
	sources := p.registry.Enabled()
	log.Printf("Starting scraping cycle across %d sources", len(sources))

	var articles []Article
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		found, err := p.ScrapeSource(ctx, source)
		if err != nil {
			log.Printf("Error scraping %s: %v", source.Name, err)
			continue
		}
		log.Printf("Found %d articles from %s", len(found), source.Name)
		articles = append(articles, found...)
	}

	articles = clean.DetectDuplicates(articles, func(a Article) (string, string, string) {
		return a.URL, a.Title, a.Content
	})

	stored := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		event, err := p.ProcessArticle(ctx, article)
		if err != nil {
			log.Printf("Error processing article %s: %v", article.URL, err)
			continue
		}
		if event != nil {
			stored++
		}
	}

	log.Printf("Scraping cycle done: %d funding events stored", stored)
	return stored, nil
}

// ProcessUnprocessed runs the pipeline over articles that were stored by an
// earlier scrape but never processed.
func (p *Pipeline) ProcessUnprocessed(ctx context.Context, limit int) (int, error) {
	raw, err := p.store.GetUnprocessedArticles(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load unprocessed articles: %w", err)
	}
	log.Printf("Found %d unprocessed articles", len(raw))

	stored := 0
	for _, r := range raw {
		article := Article{
			URL:           r.URL,
			Title:         r.Title,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
			SourceName:    r.SourceName,
		}

		event, err := p.processStoredArticle(ctx, r.ID, article)
		if err != nil {
			log.Printf("Error processing article %s: %v", article.URL, err)
			continue
		}
		if event != nil {
			stored++
		}
	}
	return stored, nil
}

// ProcessArticle stores the raw article and, when it is new, runs the full
// extraction pipeline over it. Returns nil without error when the article
// is a duplicate or turns out not to be a climate-tech funding event.
func (p *Pipeline) ProcessArticle(ctx context.Context, article Article) (*models.FundingEvent, error) {
	raw := &models.RawArticle{
		URL:           article.URL,
		Title:         article.Title,
		Content:       article.Content,
		PublishedDate: article.PublishedDate,
		SourceName:    article.SourceName,
		ContentHash:   clean.Fingerprint(article.Title + " " + article.Content),
	}

	inserted, err := p.store.SaveRawArticle(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to save raw article: %w", err)
	}
	if !inserted {
		return nil, nil
	}

	return p.processStoredArticle(ctx, raw.ID, article)
}

func (p *Pipeline) processStoredArticle(ctx context.Context, articleID uuid.UUID, article Article) (*models.FundingEvent, error) {
	log.Printf("Processing article: %s", article.Title)

	// Resolve full content when only the listing was scraped.
	if article.Content == "" {
		content, err := p.fetcher.FetchContent(ctx, article.URL)
		if err != nil {
			p.markProcessed(ctx, articleID)
			return nil, fmt.Errorf("could not fetch article content: %w", err)
		}
		article.Content = content
	}

	text := p.cleaner.NormalizeText(article.Content)

	// Relevance gate: skip articles that are not climate-tech funding news.
	if p.ai != nil {
		relevance, err := p.ai.ValidateFundingEvent(ctx, text)
		if err != nil {
			log.Printf("Relevance check failed for %s, continuing without gate: %v", article.URL, err)
		} else if !relevance.IsFundingEvent || !relevance.IsClimateTech {
			log.Printf("Skipping %s: not a climate tech funding event", article.URL)
			p.markProcessed(ctx, articleID)
			return nil, nil
		}
	}

	entities := p.extractor.ExtractAll(text)

	// AI extraction supplements regex extraction but never overrides it.
	var aiData *ai.ExtractedData
	if p.ai != nil {
		data, err := p.ai.ExtractFundingData(ctx, text)
		if err != nil {
			log.Printf("AI extraction failed for %s: %v", article.URL, err)
		} else {
			aiData = data
			mergeAIData(&entities, aiData)
		}
	}

	if len(entities.Companies) == 0 || entities.FundingAmount == nil {
		log.Printf("Skipping %s: missing company or amount", article.URL)
		p.markProcessed(ctx, articleID)
		return nil, nil
	}

	companyName := entities.Companies[0]

	sector := "Other"
	if p.ai != nil {
		classificationText := text
		if len(classificationText) < 100 {
			classificationText = article.Title + " " + article.Excerpt
		}
		if classification, err := p.ai.ClassifySector(ctx, classificationText, companyName, p.validator.Sectors()); err == nil {
			sector = classification.Sector
		}
	}

	summary := article.Excerpt
	if p.ai != nil {
		if summaryData, err := p.ai.Summarize(ctx, text, &entities); err == nil && summaryData.Summary != "" {
			summary = summaryData.Summary
		}
	}

	event := models.FundingEvent{
		CompanyName:      companyName,
		CompanySector:    sector,
		Amount:           &entities.FundingAmount.Amount,
		AmountText:       entities.FundingAmount.AmountText,
		Currency:         entities.FundingAmount.Currency,
		FundingStage:     entities.FundingStage,
		AnnouncementDate: article.PublishedDate,
		SourceURL:        article.URL,
		SourceName:       article.SourceName,
		Title:            article.Title,
		Summary:          summary,
		Confidence:       entities.FundingAmount.Confidence,
	}
	for _, inv := range entities.Investors {
		event.Investors = append(event.Investors, models.EventInvestor{
			Name:   inv.Name,
			IsLead: inv.Role == extract.RoleLead,
		})
	}

	event = p.cleaner.CleanFundingEvent(event)

	validation := p.validator.ValidateFundingEvent(event)
	event.QualityScore = validation.Score
	event.ValidationErrors = validation.Errors
	event.ValidationWarns = validation.Warnings

	if aiData != nil {
		applyAIEnrichment(&event, aiData)
	}

	companyID, err := p.store.GetOrCreateCompany(ctx, event.CompanyName, event.CompanySector, event.Location, event.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert company: %w", err)
	}
	event.CompanyID = companyID

	if p.ai != nil {
		embeddingText := truncateText(event.CompanyName+" "+event.Title+" "+event.Summary, 2000)
		if embedding, err := p.ai.GenerateEmbedding(ctx, embeddingText); err == nil {
			event.Embedding = embedding
		} else {
			log.Printf("Embedding generation failed for %s: %v", event.CompanyName, err)
		}
	}

	if err := p.store.CreateFundingEvent(ctx, &event); err != nil {
		return nil, fmt.Errorf("failed to store funding event: %w", err)
	}

	for _, inv := range event.Investors {
		investorID, err := p.store.GetOrCreateInvestor(ctx, inv.Name, inv.Type)
		if err != nil {
			log.Printf("Failed to upsert investor %q: %v", inv.Name, err)
			continue
		}
		if err := p.store.AddInvestorToFunding(ctx, event.ID, investorID, inv.IsLead); err != nil {
			log.Printf("Failed to link investor %q: %v", inv.Name, err)
		}
	}

	p.markProcessed(ctx, articleID)

	log.Printf("Stored funding event: %s - %s (score %.2f)", event.CompanyName, event.AmountText, event.QualityScore)
	return &event, nil
}

func (p *Pipeline) markProcessed(ctx context.Context, articleID uuid.UUID) {
	if err := p.store.MarkArticleProcessed(ctx, articleID); err != nil {
		log.Printf("Failed to mark article processed: %v", err)
	}
}

// mergeAIData folds AI-extracted fields into the regex entities. The AI
// company name is only used when regex extraction found none; other fields
// fill gaps and never replace an extracted value.
func mergeAIData(entities *extract.Entities, data *ai.ExtractedData) {
	if data == nil {
		return
	}

	if len(entities.Companies) == 0 && data.CompanyName != nil && *data.CompanyName != "" {
		entities.Companies = []string{*data.CompanyName}
	}
	if entities.FundingStage == "" && data.FundingStage != nil {
		entities.FundingStage = *data.FundingStage
	}
	if len(entities.Investors) == 0 && data.LeadInvestor != nil && *data.LeadInvestor != "" {
		// The lead often reappears in the participant list under a case
		// variant; fold the two lists into one unique set, lead first.
		names := mergeUniqueFold([]string{*data.LeadInvestor}, data.OtherInvestors)
		for i, name := range names {
			role := extract.RoleParticipant
			if i == 0 {
				role = extract.RoleLead
			}
			entities.Investors = append(entities.Investors, extract.Investor{
				Name:       name,
				Role:       role,
				Confidence: 0.8,
			})
		}
	}
}

// applyAIEnrichment fills descriptive event fields from AI extraction after
// cleaning and validation, so enrichment never affects the quality score of
// what was actually extracted.
func applyAIEnrichment(event *models.FundingEvent, data *ai.ExtractedData) {
	if data.CompanyDescription != nil && event.Description == "" {
		event.Description = *data.CompanyDescription
	}
	if data.UseOfFunds != nil && event.UseOfFunds == "" {
		event.UseOfFunds = *data.UseOfFunds
	}
	if data.Location != nil && event.Location == "" {
		event.Location = *data.Location
	}
	if data.AnnouncementDate != nil && event.AnnouncementDate == "" {
		event.AnnouncementDate = *data.AnnouncementDate
	}
}
