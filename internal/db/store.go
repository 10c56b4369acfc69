package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/david/funding-tracker/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListParams filters and orders a funding-event listing.
type ListParams struct {
	Query          string
	QueryEmbedding []float32
	Sector         string
	Stage          string
	SourceName     string
	MinAmount      float64
	MaxAmount      float64
	MinScore       float64
	Limit          int
	Offset         int
	SortBy         string // "newest", "amount_desc", "score", default "relevance"
}

type ListResult struct {
	Events []models.FundingEvent `json:"events"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// selectCols is the column list shared by every funding-event query; it must
// stay in sync with ScanFundingEvent.
const selectCols = `id, company_id, company_name, company_sector, amount, amount_text, currency,
	funding_stage, announcement_date, source_url, source_name, title, summary, description,
	use_of_funds, location, confidence, quality_score, validation_errors, validation_warnings,
	created_at, updated_at`

func ScanFundingEvent(scan func(dest ...any) error) (models.FundingEvent, error) {
	var ev models.FundingEvent
	var companyID *uuid.UUID
	var errorsRaw, warningsRaw []byte

	err := scan(
		&ev.ID, &companyID, &ev.CompanyName, &ev.CompanySector, &ev.Amount, &ev.AmountText, &ev.Currency,
		&ev.FundingStage, &ev.AnnouncementDate, &ev.SourceURL, &ev.SourceName, &ev.Title, &ev.Summary, &ev.Description,
		&ev.UseOfFunds, &ev.Location, &ev.Confidence, &ev.QualityScore, &errorsRaw, &warningsRaw,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return ev, err
	}

	if companyID != nil {
		ev.CompanyID = *companyID
	}
	if len(errorsRaw) > 0 {
		_ = json.Unmarshal(errorsRaw, &ev.ValidationErrors)
	}
	if len(warningsRaw) > 0 {
		_ = json.Unmarshal(warningsRaw, &ev.ValidationWarns)
	}

	return ev, nil
}

// SaveRawArticle stores a scraped article. Returns false when an article
// with the same URL already exists, which callers use as the cheap
// first-level duplicate check.
func (s *Store) SaveRawArticle(ctx context.Context, article *models.RawArticle) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO raw_articles (url, title, content, published_date, source_name, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO NOTHING
	`, article.URL, article.Title, article.Content, article.PublishedDate, article.SourceName, article.ContentHash)
	if err != nil {
		return false, fmt.Errorf("failed to save raw article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	err = s.pool.QueryRow(ctx, "SELECT id, created_at FROM raw_articles WHERE url = $1", article.URL).
		Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return true, fmt.Errorf("failed to read back raw article: %w", err)
	}
	return true, nil
}

func (s *Store) MarkArticleProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "UPDATE raw_articles SET processed = TRUE WHERE id = $1", id)
	return err
}

// GetUnprocessedArticles returns stored articles that have not been run
// through the pipeline yet, oldest first.
func (s *Store) GetUnprocessedArticles(ctx context.Context, limit int) ([]models.RawArticle, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, url, title, content, published_date, source_name, content_hash, processed, created_at
		FROM raw_articles
		WHERE processed = FALSE
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var articles []models.RawArticle
	for rows.Next() {
		var a models.RawArticle
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Content, &a.PublishedDate, &a.SourceName,
			&a.ContentHash, &a.Processed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetOrCreateCompany resolves a canonical company name to its row, creating
// it when missing. Later sightings fill in sector/location/description only
// where the stored value is still empty.
func (s *Store) GetOrCreateCompany(ctx context.Context, name, sector, location, description string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (name, sector, location, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			sector = CASE WHEN companies.sector = '' THEN EXCLUDED.sector ELSE companies.sector END,
			location = CASE WHEN companies.location = '' THEN EXCLUDED.location ELSE companies.location END,
			description = CASE WHEN companies.description = '' THEN EXCLUDED.description ELSE companies.description END
		RETURNING id
	`, name, sector, location, description).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert company: %w", err)
	}
	return id, nil
}

// GetOrCreateInvestor resolves a canonical investor name to its row.
func (s *Store) GetOrCreateInvestor(ctx context.Context, name, investorType string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO investors (name, investor_type)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			investor_type = CASE WHEN investors.investor_type = '' THEN EXCLUDED.investor_type ELSE investors.investor_type END
		RETURNING id
	`, name, investorType).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert investor: %w", err)
	}
	return id, nil
}

// CreateFundingEvent inserts an event and fills in its generated ID and
// timestamps. Investors are linked separately via AddInvestorToFunding.
func (s *Store) CreateFundingEvent(ctx context.Context, ev *models.FundingEvent) error {
	errorsJSON, err := json.Marshal(emptyIfNil(ev.ValidationErrors))
	if err != nil {
		return fmt.Errorf("failed to marshal validation errors: %w", err)
	}
	warningsJSON, err := json.Marshal(emptyIfNil(ev.ValidationWarns))
	if err != nil {
		return fmt.Errorf("failed to marshal validation warnings: %w", err)
	}

	var companyID any
	if ev.CompanyID != uuid.Nil {
		companyID = ev.CompanyID
	}

	var embedding any
	if len(ev.Embedding) > 0 {
		embedding = pgvector.NewVector(ev.Embedding)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO funding_events (
			company_id, company_name, company_sector, amount, amount_text, currency,
			funding_stage, announcement_date, source_url, source_name, title, summary,
			description, use_of_funds, location, confidence, quality_score,
			validation_errors, validation_warnings, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`,
		companyID, ev.CompanyName, ev.CompanySector, ev.Amount, ev.AmountText, ev.Currency,
		ev.FundingStage, ev.AnnouncementDate, ev.SourceURL, ev.SourceName, ev.Title, ev.Summary,
		ev.Description, ev.UseOfFunds, ev.Location, ev.Confidence, ev.QualityScore,
		errorsJSON, warningsJSON, embedding,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert funding event: %w", err)
	}
	return nil
}

func (s *Store) AddInvestorToFunding(ctx context.Context, eventID, investorID uuid.UUID, isLead bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO funding_investors (funding_event_id, investor_id, is_lead)
		VALUES ($1, $2, $3)
		ON CONFLICT (funding_event_id, investor_id) DO UPDATE SET is_lead = EXCLUDED.is_lead
	`, eventID, investorID, isLead)
	return err
}

func (s *Store) loadEventInvestors(ctx context.Context, eventID uuid.UUID) ([]models.EventInvestor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.name, i.investor_type, fi.is_lead
		FROM funding_investors fi
		JOIN investors i ON i.id = fi.investor_id
		WHERE fi.funding_event_id = $1
		ORDER BY fi.is_lead DESC, i.name ASC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investors []models.EventInvestor
	for rows.Next() {
		var inv models.EventInvestor
		if err := rows.Scan(&inv.Name, &inv.Type, &inv.IsLead); err != nil {
			return nil, err
		}
		investors = append(investors, inv)
	}
	return investors, rows.Err()
}

func (s *Store) GetFundingEvent(ctx context.Context, id string) (*models.FundingEvent, error) {
	sql := fmt.Sprintf("SELECT %s FROM funding_events WHERE id = $1", selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	ev, err := ScanFundingEvent(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}

	investors, err := s.loadEventInvestors(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load investors: %w", err)
	}
	ev.Investors = investors

	return &ev, nil
}

// ListFundingEvents runs a filtered, optionally hybrid-ranked listing.
// Investors are not attached here; use GetFundingEvent for the full record.
func (s *Store) ListFundingEvents(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.Query != "" {
		where += fmt.Sprintf(" AND (search_vector @@ plainto_tsquery('english', $%d) OR company_name ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.Sector != "" {
		where += fmt.Sprintf(" AND company_sector = $%d", argIdx)
		args = append(args, params.Sector)
		argIdx++
	}
	if params.Stage != "" {
		where += fmt.Sprintf(" AND funding_stage = $%d", argIdx)
		args = append(args, params.Stage)
		argIdx++
	}
	if params.SourceName != "" {
		where += fmt.Sprintf(" AND source_name = $%d", argIdx)
		args = append(args, params.SourceName)
		argIdx++
	}
	if params.MinAmount > 0 {
		where += fmt.Sprintf(" AND amount >= $%d", argIdx)
		args = append(args, params.MinAmount)
		argIdx++
	}
	if params.MaxAmount > 0 {
		where += fmt.Sprintf(" AND amount <= $%d", argIdx)
		args = append(args, params.MaxAmount)
		argIdx++
	}
	if params.MinScore > 0 {
		where += fmt.Sprintf(" AND quality_score >= $%d", argIdx)
		args = append(args, params.MinScore)
		argIdx++
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM funding_events " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	selectSQL := fmt.Sprintf("SELECT %s FROM funding_events %s", selectCols, where)

	switch params.SortBy {
	case "newest":
		selectSQL += " ORDER BY announcement_date DESC NULLS LAST, created_at DESC"
	case "amount_desc":
		selectSQL += " ORDER BY amount DESC NULLS LAST"
	case "score":
		selectSQL += " ORDER BY quality_score DESC, created_at DESC"
	default: // relevance
		if len(params.QueryEmbedding) > 0 {
			vectorArg := argIdx
			args = append(args, pgvector.NewVector(params.QueryEmbedding))
			argIdx++

			selectSQL += fmt.Sprintf(`
				ORDER BY
					CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
					COALESCE(1 - (embedding <=> $%d), -1) DESC,
					created_at DESC
			`, vectorArg)
		} else if params.Query != "" {
			queryArg := argIdx
			args = append(args, params.Query)
			argIdx++
			selectSQL += fmt.Sprintf(" ORDER BY ts_rank(search_vector, plainto_tsquery('english', $%d::text)) DESC, created_at DESC", queryArg)
		} else {
			selectSQL += " ORDER BY created_at DESC"
		}
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}
	selectSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var events []models.FundingEvent
	for rows.Next() {
		ev, err := ScanFundingEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if events == nil {
		events = []models.FundingEvent{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// GetRecentEvents returns the latest events with their investors attached,
// for reporting.
func (s *Store) GetRecentEvents(ctx context.Context, limit int) ([]models.FundingEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	sql := fmt.Sprintf("SELECT %s FROM funding_events ORDER BY created_at DESC LIMIT $1", selectCols)
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var events []models.FundingEvent
	for rows.Next() {
		ev, err := ScanFundingEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		investors, err := s.loadEventInvestors(ctx, events[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load investors: %w", err)
		}
		events[i].Investors = investors
	}
	return events, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, sector, location, created_at
		FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.Sector, &c.Location, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCompanies(ctx context.Context, query string, limit, offset int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []any{}
	if query != "" {
		where = "WHERE name ILIKE '%' || $1 || '%'"
		args = append(args, query)
	}
	args = append(args, limit, offset)

	sql := fmt.Sprintf(`
		SELECT id, name, description, sector, location, created_at
		FROM companies %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Sector, &c.Location, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *Store) ListInvestors(ctx context.Context, limit int) ([]models.Investor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, investor_type, created_at
		FROM investors
		ORDER BY name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var investors []models.Investor
	for rows.Next() {
		var inv models.Investor
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.InvestorType, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		investors = append(investors, inv)
	}
	return investors, rows.Err()
}

// GetSources lists the distinct source names that contributed events.
func (s *Store) GetSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT source_name FROM funding_events WHERE source_name != '' ORDER BY source_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err == nil {
			sources = append(sources, src)
		}
	}
	return sources, rows.Err()
}

func (s *Store) GetStats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any)

	var totalEvents int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM funding_events").Scan(&totalEvents)
	stats["total_events"] = totalEvents

	var totalCompanies int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&totalCompanies)
	stats["total_companies"] = totalCompanies

	var totalInvestors int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM investors").Scan(&totalInvestors)
	stats["total_investors"] = totalInvestors

	var totalAmount float64
	s.pool.QueryRow(ctx, "SELECT COALESCE(SUM(amount), 0) FROM funding_events").Scan(&totalAmount)
	stats["total_amount"] = totalAmount

	var avgScore float64
	s.pool.QueryRow(ctx, "SELECT COALESCE(AVG(quality_score), 0) FROM funding_events").Scan(&avgScore)
	stats["avg_quality_score"] = avgScore

	var unprocessed int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM raw_articles WHERE processed = FALSE").Scan(&unprocessed)
	stats["unprocessed_articles"] = unprocessed

	stageCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT funding_stage, COUNT(*) FROM funding_events WHERE funding_stage != '' GROUP BY funding_stage")
	if err == nil {
		for rows.Next() {
			var stage string
			var count int
			if scanErr := rows.Scan(&stage, &count); scanErr == nil {
				stageCounts[stage] = count
			}
		}
		rows.Close()
	}
	stats["by_stage"] = stageCounts

	sectorCounts := map[string]int{}
	rows, err = s.pool.Query(ctx, "SELECT company_sector, COUNT(*) FROM funding_events WHERE company_sector != '' GROUP BY company_sector")
	if err == nil {
		for rows.Next() {
			var sector string
			var count int
			if scanErr := rows.Scan(&sector, &count); scanErr == nil {
				sectorCounts[sector] = count
			}
		}
		rows.Close()
	}
	stats["by_sector"] = sectorCounts

	return stats, nil
}

// GetValidationReport summarizes data quality across stored events: score
// distribution, how many events carry validation errors or warnings, and
// the most frequent individual messages.
func (s *Store) GetValidationReport(ctx context.Context) (map[string]any, error) {
	report := make(map[string]any)

	var total, highQuality, mediumQuality, lowQuality, withErrors, withWarnings int
	var avgScore float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(quality_score), 0),
		       COUNT(*) FILTER (WHERE quality_score >= 0.8),
		       COUNT(*) FILTER (WHERE quality_score >= 0.5 AND quality_score < 0.8),
		       COUNT(*) FILTER (WHERE quality_score < 0.5),
		       COUNT(*) FILTER (WHERE jsonb_array_length(validation_errors) > 0),
		       COUNT(*) FILTER (WHERE jsonb_array_length(validation_warnings) > 0)
		FROM funding_events`,
	).Scan(&total, &avgScore, &highQuality, &mediumQuality, &lowQuality, &withErrors, &withWarnings)
	if err != nil {
		return nil, err
	}

	report["total_events"] = total
	report["avg_quality_score"] = avgScore
	report["high_quality"] = highQuality
	report["medium_quality"] = mediumQuality
	report["low_quality"] = lowQuality
	report["events_with_errors"] = withErrors
	report["events_with_warnings"] = withWarnings

	topMessages := func(column string) map[string]int {
		counts := map[string]int{}
		rows, err := s.pool.Query(ctx, fmt.Sprintf(`
			SELECT msg, COUNT(*) FROM funding_events,
			       jsonb_array_elements_text(%s) AS msg
			GROUP BY msg ORDER BY COUNT(*) DESC LIMIT 10`, column))
		if err != nil {
			return counts
		}
		defer rows.Close()
		for rows.Next() {
			var msg string
			var count int
			if scanErr := rows.Scan(&msg, &count); scanErr == nil {
				counts[msg] = count
			}
		}
		return counts
	}
	report["top_errors"] = topMessages("validation_errors")
	report["top_warnings"] = topMessages("validation_warnings")

	return report, nil
}

// DedupeRawArticles marks later copies of articles that share a content
// fingerprint as processed, keeping the earliest stored copy eligible for
// processing. Returns the number of duplicates retired.
func (s *Store) DedupeRawArticles(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE raw_articles SET processed = TRUE
		WHERE processed = FALSE AND id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY content_hash ORDER BY created_at, id
				) AS rn
				FROM raw_articles
				WHERE content_hash != ''
			) ranked
			WHERE ranked.rn > 1
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to dedupe raw articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HasArticleURL reports whether a raw article with this URL is already
// stored.
func (s *Store) HasArticleURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM raw_articles WHERE url = $1)", url).Scan(&exists)
	return exists, err
}

// IsErrNoRows reports whether err is the pgx no-rows sentinel, so handlers
// can map it to a 404 without importing pgx.
func IsErrNoRows(err error) bool {
	return err != nil && (err == pgx.ErrNoRows || strings.Contains(err.Error(), pgx.ErrNoRows.Error()))
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
