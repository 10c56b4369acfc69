package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/david/funding-tracker/internal/ai"
	"github.com/david/funding-tracker/internal/extract"
	"github.com/david/funding-tracker/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMergeAIDataFillsGapsOnly(t *testing.T) {
	entities := extract.Entities{
		Companies:    []string{"VoltCell"},
		FundingStage: "Series B",
		Investors: []extract.Investor{
			{Name: "Breakthrough Energy Ventures", Role: extract.RoleLead, Confidence: 0.9},
		},
	}

	mergeAIData(&entities, &ai.ExtractedData{
		CompanyName:    strPtr("SomeOtherCo"),
		FundingStage:   strPtr("Seed"),
		LeadInvestor:   strPtr("Acme Capital"),
		OtherInvestors: []string{"GV"},
	})

	if entities.Companies[0] != "VoltCell" {
		t.Errorf("regex company overridden: %v", entities.Companies)
	}
	if entities.FundingStage != "Series B" {
		t.Errorf("regex stage overridden: %q", entities.FundingStage)
	}
	if len(entities.Investors) != 1 || entities.Investors[0].Name != "Breakthrough Energy Ventures" {
		t.Errorf("regex investors overridden: %v", entities.Investors)
	}
}

func TestMergeAIDataSupplementsMissing(t *testing.T) {
	entities := extract.Entities{}

	mergeAIData(&entities, &ai.ExtractedData{
		CompanyName:    strPtr("CarbonLoop"),
		FundingStage:   strPtr("Seed"),
		LeadInvestor:   strPtr("Lowercarbon Capital"),
		OtherInvestors: []string{"GV", ""},
	})

	if len(entities.Companies) != 1 || entities.Companies[0] != "CarbonLoop" {
		t.Errorf("companies = %v", entities.Companies)
	}
	if entities.FundingStage != "Seed" {
		t.Errorf("stage = %q", entities.FundingStage)
	}
	if len(entities.Investors) != 2 {
		t.Fatalf("investors = %v", entities.Investors)
	}
	if entities.Investors[0].Role != extract.RoleLead || entities.Investors[0].Name != "Lowercarbon Capital" {
		t.Errorf("lead = %+v", entities.Investors[0])
	}
	if entities.Investors[1].Role != extract.RoleParticipant || entities.Investors[1].Name != "GV" {
		t.Errorf("participant = %+v", entities.Investors[1])
	}
}

func TestMergeAIDataDedupesInvestors(t *testing.T) {
	entities := extract.Entities{}

	mergeAIData(&entities, &ai.ExtractedData{
		LeadInvestor:   strPtr("Lowercarbon Capital"),
		OtherInvestors: []string{"lowercarbon capital", "GV", " gv ", "", "Khosla Ventures"},
	})

	if len(entities.Investors) != 3 {
		t.Fatalf("investors = %v, want lead + 2 unique participants", entities.Investors)
	}
	if entities.Investors[0].Name != "Lowercarbon Capital" || entities.Investors[0].Role != extract.RoleLead {
		t.Errorf("lead = %+v", entities.Investors[0])
	}
	if entities.Investors[1].Name != "GV" || entities.Investors[1].Role != extract.RoleParticipant {
		t.Errorf("first participant = %+v", entities.Investors[1])
	}
	if entities.Investors[2].Name != "Khosla Ventures" {
		t.Errorf("second participant = %+v", entities.Investors[2])
	}
}

func TestNewPipelineVocabOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	override := "funding_stages:\n  - \"mega round\"\n"
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("writing override vocab: %v", err)
	}
	t.Setenv("VOCAB_PATH", path)

	p := NewPipeline(nil, &Registry{}, nil)

	if got := p.extractor.ExtractFundingStage("VoltCell closed a mega round today"); got != "Mega Round" {
		t.Errorf("override stage not extracted: got %q", got)
	}
	// The built-in stage list is replaced, not merged.
	if got := p.extractor.ExtractFundingStage("VoltCell raised a Series A round"); got != "" {
		t.Errorf("built-in stage still extracted with override in place: got %q", got)
	}
}

func TestNewPipelineDefaultsWithoutOverride(t *testing.T) {
	t.Setenv("VOCAB_PATH", "")
	t.Setenv("RULES_PATH", "")

	p := NewPipeline(nil, &Registry{}, nil)

	if got := p.extractor.ExtractFundingStage("VoltCell raised a Series B round"); got != "Series B" {
		t.Errorf("default stage list not in effect: got %q", got)
	}
	if len(p.validator.Sectors()) == 0 {
		t.Error("default validation rules not loaded")
	}
}

func TestApplyAIEnrichmentNeverOverrides(t *testing.T) {
	event := models.FundingEvent{
		Description: "existing description",
	}

	applyAIEnrichment(&event, &ai.ExtractedData{
		CompanyDescription: strPtr("ai description"),
		UseOfFunds:         strPtr("expand manufacturing"),
		Location:           strPtr("Berlin, Germany"),
		AnnouncementDate:   strPtr("2024-05-01"),
	})

	if event.Description != "existing description" {
		t.Errorf("description overridden: %q", event.Description)
	}
	if event.UseOfFunds != "expand manufacturing" {
		t.Errorf("use of funds = %q", event.UseOfFunds)
	}
	if event.Location != "Berlin, Germany" {
		t.Errorf("location = %q", event.Location)
	}
	if event.AnnouncementDate != "2024-05-01" {
		t.Errorf("date = %q", event.AnnouncementDate)
	}
}
