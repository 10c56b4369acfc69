package clean

import (
	"testing"
)

func TestStandardizeCompanyName(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"canonical suffix from bare word", "tesla inc", "tesla Inc."},
		{"all caps gets title cased", "GOOGLE LLC", "Google LLC"},
		{"all caps with bare suffix", "GREENTECH INC", "Greentech Inc."},
		{"already canonical stays put", "Apple Inc.", "Apple Inc."},
		{"corporation suffix", "Microsoft Corporation", "Microsoft Corporation"},
		{"filler prefix stripped", "startup ClimateAI Ltd", "ClimateAI Ltd"},
		{"the prefix stripped", "the Carbon Collective", "Carbon Collective"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.StandardizeCompanyName(tt.in); got != tt.expected {
				t.Errorf("StandardizeCompanyName(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestStandardizeCompanyNameIdempotent(t *testing.T) {
	c := New(nil)

	inputs := []string{
		"tesla inc", "GOOGLE LLC", "Apple Inc.", "startup GREENTECH inc.",
		"Northvolt AB", "NASA", "  Perfect   Day  ", "",
	}
	for _, in := range inputs {
		once := c.StandardizeCompanyName(in)
		twice := c.StandardizeCompanyName(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestStandardizeInvestorName(t *testing.T) {
	c := New(nil)

	tests := []struct {
		in       string
		expected string
	}{
		{"a16z", "Andreessen Horowitz"},
		{"Sequoia", "Sequoia Capital"},
		{"Google Ventures", "Google Ventures"},
		{"Breakthrough Energy", "Breakthrough Energy Ventures"},
		{"YC", "Y Combinator"},
		{"Unknown Capital Partners", "Unknown Capital Partners"},
	}

	for _, tt := range tests {
		if got := c.StandardizeInvestorName(tt.in); got != tt.expected {
			t.Errorf("StandardizeInvestorName(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestStandardizeFundingStage(t *testing.T) {
	c := New(nil)

	tests := []struct {
		in       string
		expected string
	}{
		{"series-a", "Series A"},
		{"Series B", "Series B"},
		{"pre seed", "Pre-Seed"},
		{"growth round", "Growth"},
		{"ipo", "IPO"},
		{"a round", "Series A"},
		{"series   c", "Series C"},
		{"mezzanine", "Mezzanine"},
	}

	for _, tt := range tests {
		if got := c.StandardizeFundingStage(tt.in); got != tt.expected {
			t.Errorf("StandardizeFundingStage(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestStandardizeAmount(t *testing.T) {
	c := New(nil)

	tests := []struct {
		in       string
		amount   float64
		currency string
	}{
		{"$10M", 10_000_000, "USD"},
		{"50 million", 50_000_000, "USD"},
		{"€2.5B", 2_500_000_000, "EUR"},
		{"100K", 100_000, "USD"},
		{"$1.2 billion", 1_200_000_000, "USD"},
		{"£75m", 75_000_000, "GBP"},
		{"42", 42, "USD"},
	}

	for _, tt := range tests {
		amount, text, currency := c.StandardizeAmount(tt.in)
		if amount == nil {
			t.Errorf("StandardizeAmount(%q) returned nil amount", tt.in)
			continue
		}
		if *amount != tt.amount {
			t.Errorf("StandardizeAmount(%q) amount = %v, want %v", tt.in, *amount, tt.amount)
		}
		if text != tt.in {
			t.Errorf("StandardizeAmount(%q) text = %q, want original", tt.in, text)
		}
		if currency != tt.currency {
			t.Errorf("StandardizeAmount(%q) currency = %q, want %q", tt.in, currency, tt.currency)
		}
	}
}

func TestStandardizeAmountNoNumber(t *testing.T) {
	c := New(nil)

	amount, text, currency := c.StandardizeAmount("undisclosed sum")
	if amount != nil {
		t.Errorf("expected nil amount, got %v", *amount)
	}
	if text != "undisclosed sum" {
		t.Errorf("expected original text back, got %q", text)
	}
	if currency != "USD" {
		t.Errorf("expected USD default, got %q", currency)
	}
}

func TestStandardizeDate(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"iso passthrough", "2025-01-15", "2025-01-15"},
		{"us slashes", "01/15/2025", "2025-01-15"},
		{"day first when over twelve", "15-01-2025", "2025-01-15"},
		{"month first otherwise", "03-04-2025", "2025-03-04"},
		{"year slashes", "2025/01/15", "2025-01-15"},
		{"embedded in text", "announced on 2025-06-02 in Berlin", "2025-06-02"},
		{"invalid calendar date skipped", "2025-13-40", ""},
		{"no date", "sometime soon", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.StandardizeDate(tt.in); got != tt.expected {
				t.Errorf("StandardizeDate(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	c := New(nil)

	inputs := []string{
		"GreenTech    raises   funding!!!",
		"  spaced\tout\ntext  ",
		"keep .-&() punctuation",
		"emoji 🌱 stripped",
	}
	for _, in := range inputs {
		once := c.NormalizeText(in)
		twice := c.NormalizeText(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestFingerprintIgnoresFormatting(t *testing.T) {
	a := Fingerprint("CarbonCure raises $30M in Series C!")
	b := Fingerprint("  carboncure   raises 30M in series c  ")
	if a != b {
		t.Errorf("fingerprints differ for formatting-only variants: %s vs %s", a, b)
	}

	other := Fingerprint("Northvolt announces $2.75 billion round")
	if a == other {
		t.Error("distinct contents produced the same fingerprint")
	}
}

func TestDeduper(t *testing.T) {
	d := NewDeduper()

	if d.Seen("https://example.com/a", "Title", "Content one") {
		t.Error("first occurrence reported as seen")
	}
	if !d.Seen("https://example.com/a", "Different title", "Different content") {
		t.Error("repeated URL not reported as seen")
	}
	// Same content behind a different URL collapses via fingerprint.
	if !d.Seen("https://example.com/b", "TITLE", "content   ONE!") {
		t.Error("formatting-variant duplicate not caught by fingerprint")
	}
	if d.Seen("https://example.com/c", "Another", "Entirely new content") {
		t.Error("unique article reported as duplicate")
	}
}

func TestDetectDuplicates(t *testing.T) {
	type article struct {
		url, title, content string
	}
	batch := []article{
		{"https://example.com/a", "VoltCell raises $20M", "VoltCell announced a $20M round."},
		{"https://example.com/a", "Repost", "Different body"},
		{"https://example.com/b", "voltcell RAISES $20M", "VoltCell  announced a 20M round"},
		{"https://example.com/c", "CarbonLoop seed round", "CarbonLoop raised seed funding."},
	}

	unique := DetectDuplicates(batch, func(a article) (string, string, string) {
		return a.url, a.title, a.content
	})

	if len(unique) != 2 {
		t.Fatalf("expected 2 unique articles, got %d: %v", len(unique), unique)
	}
	if unique[0].url != "https://example.com/a" || unique[1].url != "https://example.com/c" {
		t.Errorf("first occurrences not kept in order: %v", unique)
	}
}
