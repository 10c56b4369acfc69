package extract

import (
	"reflect"
	"testing"
)

const carbonCureText = "Climate tech startup CarbonCure Technologies raised $30 million in Series C funding led by Breakthrough Energy Ventures with participation from Amazon Climate Pledge Fund."

func TestExtractFundingAmount(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		text     string
		amount   float64
		currency string
	}{
		{"symbol and magnitude word", "CarbonCure raised $30 million in funding", 30_000_000, "USD"},
		{"symbol and letter", "secured a $10M round", 10_000_000, "USD"},
		{"billions", "Northvolt announces $2.75 billion funding round", 2_750_000_000, "USD"},
		{"explicit currency code", "the company secured 50 million EUR", 50_000_000, "EUR"},
		{"thousands separators", "a grant worth $10,000,000 was awarded", 10_000_000, "USD"},
		{"raised without magnitude", "the startup raised $500 from friends", 500, "USD"},
		{"funding of phrase", "after funding of $5m closed last week", 5_000_000, "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractFundingAmount(tt.text)
			if got == nil {
				t.Fatalf("ExtractFundingAmount(%q) = nil", tt.text)
			}
			if got.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", got.Amount, tt.amount)
			}
			if got.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", got.Currency, tt.currency)
			}
			if got.Confidence != 0.9 {
				t.Errorf("confidence = %v, want 0.9", got.Confidence)
			}
		})
	}
}

func TestExtractFundingAmountNoMatch(t *testing.T) {
	e := New(nil)

	for _, text := range []string{"", "no numbers here", "an undisclosed sum"} {
		if got := e.ExtractFundingAmount(text); got != nil {
			t.Errorf("ExtractFundingAmount(%q) = %+v, want nil", text, got)
		}
	}
}

func TestExtractFundingStage(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"series round", "raised $30 million in Series C funding", "Series C"},
		{"pre-seed before seed", "closed a pre-seed round", "Pre-Seed"},
		{"seed round", "announced its seed round today", "Seed"},
		{"growth", "a growth investment from late backers", "Growth"},
		{"seed without pre fallback", "the company got seeded with angel money", "Seed"},
		{"no stage", "the company hired a new CFO", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ExtractFundingStage(tt.text); got != tt.expected {
				t.Errorf("ExtractFundingStage(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestExtractCompanyNames(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			"funding verb",
			"CarbonCure Technologies raised $30 million",
			[]string{"CarbonCure Technologies"},
		},
		{
			"legal suffix",
			"Tesla Inc. delivered record numbers",
			[]string{"Tesla"},
		},
		{
			"quoted name",
			`Battery maker "VoltCell" raised a new round`,
			[]string{"VoltCell"},
		},
		{
			"stop list filtered",
			"That raised questions among analysts",
			nil,
		},
		{
			"first seen dedupe",
			"Northvolt announces a round. Northvolt secures the deal.",
			[]string{"Northvolt"},
		},
		{
			"nothing capitalized",
			"the startup raised money quietly",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractCompanyNames(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractCompanyNames(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestExtractInvestors(t *testing.T) {
	e := New(nil)

	got := e.ExtractInvestors(carbonCureText)
	if len(got) != 2 {
		t.Fatalf("expected 2 investors, got %d: %+v", len(got), got)
	}

	lead := got[0]
	if lead.Name != "Breakthrough Energy Ventures" || lead.Role != RoleLead || lead.Confidence != 0.9 {
		t.Errorf("unexpected lead: %+v", lead)
	}

	part := got[1]
	if part.Name != "Amazon Climate Pledge Fund" || part.Role != RoleParticipant || part.Confidence != 0.8 {
		t.Errorf("unexpected participant: %+v", part)
	}
}

func TestExtractInvestorsLeadNeverReAdded(t *testing.T) {
	e := New(nil)

	text := "The round was led by Khosla Ventures. Investors include Khosla Ventures among returning backers."
	got := e.ExtractInvestors(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 investor, got %d: %+v", len(got), got)
	}
	if got[0].Role != RoleLead {
		t.Errorf("role = %q, want lead", got[0].Role)
	}
}

func TestExtractInvestorsNameCleaning(t *testing.T) {
	e := New(nil)

	// Trailing parenthetical stripped, lowercase fragments dropped.
	got := e.ExtractInvestors("with participation from Prelude Ventures (climate fund). Later they were joined by strategic angels.")
	if len(got) != 1 {
		t.Fatalf("expected 1 investor, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Prelude Ventures" {
		t.Errorf("name = %q, want %q", got[0].Name, "Prelude Ventures")
	}
}

func TestExtractAll(t *testing.T) {
	e := New(nil)

	got := e.ExtractAll(carbonCureText)

	if !reflect.DeepEqual(got.Companies, []string{"CarbonCure Technologies"}) {
		t.Errorf("companies = %v", got.Companies)
	}
	if got.FundingAmount == nil || got.FundingAmount.Amount != 30_000_000 || got.FundingAmount.Currency != "USD" {
		t.Errorf("funding amount = %+v", got.FundingAmount)
	}
	if got.FundingStage != "Series C" {
		t.Errorf("stage = %q, want Series C", got.FundingStage)
	}
	if len(got.Investors) != 2 {
		t.Errorf("investors = %+v", got.Investors)
	}
}

func TestExtractAllEmptyText(t *testing.T) {
	e := New(nil)

	got := e.ExtractAll("")
	if len(got.Companies) != 0 || got.FundingAmount != nil || got.FundingStage != "" || len(got.Investors) != 0 {
		t.Errorf("expected empty draft, got %+v", got)
	}
}
