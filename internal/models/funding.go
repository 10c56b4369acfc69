package models

import (
	"time"

	"github.com/google/uuid"
)

// RawArticle is a scraped article as stored, before any extraction.
type RawArticle struct {
	ID            uuid.UUID `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	PublishedDate string    `json:"published_date"`
	SourceName    string    `json:"source_name"`
	ContentHash   string    `json:"content_hash"`
	Processed     bool      `json:"processed"`
	CreatedAt     time.Time `json:"created_at"`
}

type Company struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sector      string    `json:"sector"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

type Investor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	InvestorType string    `json:"investor_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventInvestor is an investor's participation in a single funding event.
// Type is optional ("VC", "Angel", "Corporate VC", ...) and usually supplied
// by AI enrichment rather than extraction.
type EventInvestor struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	IsLead bool   `json:"is_lead"`
}

// FundingEvent is the canonical, validated record emitted by the pipeline.
// Scalar fields are stored in already-standardized form: company name with
// canonical suffix casing, currency as an ISO 4217 code, announcement date
// as YYYY-MM-DD.
type FundingEvent struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	CompanyName      string          `json:"company_name"`
	CompanySector    string          `json:"company_sector"`
	Amount           *float64        `json:"amount"`
	AmountText       string          `json:"amount_text"`
	Currency         string          `json:"currency"`
	FundingStage     string          `json:"funding_stage"`
	AnnouncementDate string          `json:"announcement_date"`
	SourceURL        string          `json:"source_url"`
	SourceName       string          `json:"source_name"`
	Title            string          `json:"title"`
	Summary          string          `json:"summary"`
	Description      string          `json:"description"`
	UseOfFunds       string          `json:"use_of_funds"`
	Location         string          `json:"location"`
	Investors        []EventInvestor `json:"investors"`
	Confidence       float64         `json:"confidence"`
	QualityScore     float64         `json:"quality_score"`
	ValidationErrors []string        `json:"validation_errors"`
	ValidationWarns  []string        `json:"validation_warnings"`
	Embedding        []float32       `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
