package ai

import "testing"

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"plain json", `{"company_name": "CarbonCure", "funding_stage": "Series C"}`},
		{"fenced json", "```json\n{\"company_name\": \"CarbonCure\", \"funding_stage\": \"Series C\"}\n```"},
		{"prose around json", `Here is the extraction: {"company_name": "CarbonCure", "funding_stage": "Series C"} Let me know if you need more.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data ExtractedData
			if err := decodeLLMJSON(tt.resp, &data); err != nil {
				t.Fatalf("decodeLLMJSON failed: %v", err)
			}
			if data.CompanyName == nil || *data.CompanyName != "CarbonCure" {
				t.Errorf("company_name = %v", data.CompanyName)
			}
			if data.FundingStage == nil || *data.FundingStage != "Series C" {
				t.Errorf("funding_stage = %v", data.FundingStage)
			}
		})
	}
}

func TestDecodeLLMJSONNullFields(t *testing.T) {
	var data ExtractedData
	resp := `{"company_name": "Northvolt", "funding_amount": null, "other_investors": null}`
	if err := decodeLLMJSON(resp, &data); err != nil {
		t.Fatalf("decodeLLMJSON failed: %v", err)
	}
	if data.FundingAmount != nil {
		t.Errorf("expected nil funding_amount, got %v", *data.FundingAmount)
	}
	if data.OtherInvestors != nil {
		t.Errorf("expected nil other_investors, got %v", data.OtherInvestors)
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		ok       bool
	}{
		{`{"a": 1}`, `{"a": 1}`, true},
		{`noise {"a": {"b": 2}} trailing`, `{"a": {"b": 2}}`, true},
		{`{"s": "brace } in string"}`, `{"s": "brace } in string"}`, true},
		{`no json at all`, ``, false},
		{`{"unterminated": true`, ``, false},
	}

	for _, tt := range tests {
		got, ok := extractFirstJSONObject(tt.in)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("extractFirstJSONObject(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.expected, tt.ok)
		}
	}
}
