package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/david/funding-tracker/internal/extract"
)

// SectorResult is a climate tech sector classification for one company.
type SectorResult struct {
	Sector     string  `json:"sector"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SummaryResult is a generated digest of a funding event.
type SummaryResult struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	TechnologyFocus string   `json:"technology_focus"`
	ImpactArea      string   `json:"impact_area"`
}

// ClassifySector asks the model to place the company into one of the given
// climate tech sectors. A sector outside the list is coerced to "Other" with
// lowered confidence so hallucinated labels never reach storage.
func (c *OllamaClient) ClassifySector(ctx context.Context, text, companyName string, sectors []string) (*SectorResult, error) {
	companyLine := ""
	if companyName != "" {
		companyLine = fmt.Sprintf("Company name: %s\n", companyName)
	}

	prompt := fmt.Sprintf(`Based on the following text about a climate tech company or funding event,
classify it into one of these climate tech sectors: %s

Text: %s

%s
Return a JSON object with:
- "sector": the most appropriate sector from the list
- "confidence": confidence score between 0 and 1
- "reasoning": brief explanation (max 50 words)

If the text doesn't clearly fit any category, use "Other" with lower confidence.
Respond ONLY with the JSON object.`, strings.Join(sectors, ", "), truncate(text, 2000), companyLine)

	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result SectorResult
	if err := decodeLLMJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse sector json: %w (response: %s)", err, resp)
	}

	if canonical, ok := matchSector(result.Sector, sectors); ok {
		result.Sector = canonical
	} else {
		result.Sector = "Other"
		result.Confidence = 0.5
	}

	return &result, nil
}

// matchSector resolves the model's sector label against the allowed list,
// tolerating case differences but nothing else.
func matchSector(sector string, sectors []string) (string, bool) {
	for _, s := range sectors {
		if strings.EqualFold(strings.TrimSpace(sector), s) {
			return s, true
		}
	}
	return "", false
}

// Summarize generates a short digest of the funding event. The regex-derived
// entities are passed along as context so the summary stays anchored to what
// was actually extracted.
func (c *OllamaClient) Summarize(ctx context.Context, text string, entities *extract.Entities) (*SummaryResult, error) {
	var entityCtx strings.Builder
	if entities != nil {
		if len(entities.Companies) > 0 {
			fmt.Fprintf(&entityCtx, "Companies mentioned: %s\n", strings.Join(entities.Companies, ", "))
		}
		if entities.FundingAmount != nil {
			fmt.Fprintf(&entityCtx, "Funding amount: %s\n", entities.FundingAmount.AmountText)
		}
		if entities.FundingStage != "" {
			fmt.Fprintf(&entityCtx, "Funding stage: %s\n", entities.FundingStage)
		}
		if len(entities.Investors) > 0 {
			names := make([]string, len(entities.Investors))
			for i, inv := range entities.Investors {
				names[i] = inv.Name
			}
			fmt.Fprintf(&entityCtx, "Investors: %s\n", strings.Join(names, ", "))
		}
	}

	prompt := fmt.Sprintf(`Generate a concise summary of this climate tech funding event.

%s
Article text: %s

Return a JSON object with:
- "summary": 2-3 sentence summary of the funding event
- "key_points": list of 3-5 key points
- "technology_focus": brief description of the technology/solution
- "impact_area": environmental impact area (e.g., "carbon reduction", "renewable energy")

Respond ONLY with the JSON object.`, entityCtx.String(), truncate(text, 2000))

	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := decodeLLMJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse summary json: %w (response: %s)", err, resp)
	}
	return &result, nil
}
