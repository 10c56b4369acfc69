package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// ExtractedData is the structured extraction result for one funding article.
// Nil pointer fields mean the model could not find that value in the text;
// the pipeline treats everything here as untrusted supplementary input.
type ExtractedData struct {
	CompanyName        *string  `json:"company_name"`
	CompanyDescription *string  `json:"company_description"`
	FundingAmount      *string  `json:"funding_amount"`
	FundingStage       *string  `json:"funding_stage"`
	LeadInvestor       *string  `json:"lead_investor"`
	OtherInvestors     []string `json:"other_investors"`
	UseOfFunds         *string  `json:"use_of_funds"`
	Location           *string  `json:"location"`
	AnnouncementDate   *string  `json:"announcement_date"`
}

// RelevanceResult is the model's judgment on whether an article is worth
// processing at all.
type RelevanceResult struct {
	IsFundingEvent bool    `json:"is_funding_event"`
	IsClimateTech  bool    `json:"is_climate_tech"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// ValidateFundingEvent asks the model whether the text describes a climate
// tech funding event. Used as a cheap relevance gate before full extraction.
func (c *OllamaClient) ValidateFundingEvent(ctx context.Context, text string) (*RelevanceResult, error) {
	prompt := fmt.Sprintf(`Determine if this text is about a climate tech funding event.

Text: %s

Return a JSON object with:
- "is_funding_event": boolean indicating if this is a funding event
- "is_climate_tech": boolean indicating if this is related to climate technology
- "confidence": confidence score between 0 and 1
- "reasoning": brief explanation

Respond ONLY with the JSON object.`, truncate(text, 1000))

	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var result RelevanceResult
	if err := decodeLLMJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse relevance json: %w (response: %s)", err, resp)
	}
	return &result, nil
}

// ExtractFundingData runs a structured extraction over the article text.
// JSON mode is tried first; if the model returns something unparseable the
// call is retried in text mode and the first balanced JSON object is dug out
// of the response.
func (c *OllamaClient) ExtractFundingData(ctx context.Context, text string) (*ExtractedData, error) {
	prompt := fmt.Sprintf(`Extract structured information from this climate tech funding announcement.

Text: %s

Return a JSON object with:
- "company_name": name of the funded company
- "company_description": brief description of what the company does
- "funding_amount": amount raised (as string, e.g., "$10M")
- "funding_stage": funding round stage
- "lead_investor": name of lead investor if mentioned
- "other_investors": list of other investors
- "use_of_funds": what the funding will be used for
- "location": company location if mentioned
- "announcement_date": date if mentioned (YYYY-MM-DD)

For any field not found in the text, use null.
Respond ONLY with the JSON object.`, truncate(text, 2000))

	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err == nil {
		var data ExtractedData
		if parseErr := decodeLLMJSON(resp, &data); parseErr == nil {
			return &data, nil
		} else {
			log.Printf("JSON mode failed parsing: %v. Retrying with text mode...", parseErr)
		}
	} else {
		log.Printf("JSON mode generation failed: %v. Retrying with text mode...", err)
	}

	resp, err = c.GenerateCompletion(ctx, prompt, false)
	if err != nil {
		return nil, err
	}

	var data ExtractedData
	if err := decodeLLMJSON(resp, &data); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON after retry: %w (response: %s)", err, resp)
	}
	return &data, nil
}

// decodeLLMJSON unmarshals a model response into v, tolerating markdown code
// fences and prose around the first balanced JSON object.
func decodeLLMJSON(resp string, v any) error {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if jsonStr, ok := extractFirstJSONObject(cleaned); ok {
		cleaned = jsonStr
	}

	return json.Unmarshal([]byte(cleaned), v)
}

// extractFirstJSONObject finds the first outermost balanced {...}
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}

		if char == '\\' {
			escaped = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
