package clean

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/david/funding-tracker/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^\w\s\.\-\&\(\)]`)
	// Multiplier alternation keeps the single letters after the full words so
	// "million" is consumed whole; "mn"/"bn" falling through to "m"/"b" is fine
	// since they carry the same magnitude.
	amountRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(million|billion|m|b|mn|bn|k|thousand)?`)
	seriesRe = regexp.MustCompile(`^series\s*([a-f])`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),   // YYYY-MM-DD
		regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`),   // MM/DD/YYYY
		regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`),   // MM-DD-YYYY
		regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),   // YYYY/MM/DD
	}

	currencySymbols = []struct {
		Symbol string
		Code   string
	}{
		{"$", "USD"},
		{"€", "EUR"},
		{"£", "GBP"},
		{"¥", "JPY"},
	}
)

// titleCase title-cases each word. A fresh Caser per call: cases.Caser is a
// stateful transformer and not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Cleaner canonicalizes extracted fields using the static vocabulary tables.
// All methods are pure and idempotent: applying one twice yields the same
// result as applying it once.
type Cleaner struct {
	vocab *Vocab
}

func New(vocab *Vocab) *Cleaner {
	if vocab == nil {
		vocab = DefaultVocab()
	}
	return &Cleaner{vocab: vocab}
}

// NormalizeText applies Unicode compatibility decomposition, drops characters
// outside the word/whitespace/".-&()" whitelist, and collapses whitespace.
func (c *Cleaner) NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKD.String(s)
	s = disallowedRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// StandardizeCompanyName normalizes a company name: filler prefixes removed,
// a trailing legal-entity suffix rewritten to its canonical spelling, and
// pure-caps names title-cased (names with any lowercase are left alone so
// genuine acronyms inside mixed-case names survive).
func (c *Cleaner) StandardizeCompanyName(name string) string {
	if name == "" {
		return ""
	}

	cleaned := c.NormalizeText(name)

	for _, filler := range c.vocab.CompanyFillers {
		if strings.HasPrefix(strings.ToLower(cleaned), strings.ToLower(filler)) {
			cleaned = strings.TrimSpace(cleaned[len(filler):])
		}
	}

	if cleaned != "" && !strings.ContainsFunc(cleaned, unicode.IsLower) {
		cleaned = titleCase(cleaned)
	}

	words := strings.Fields(cleaned)
	if len(words) > 0 {
		last := words[len(words)-1]
		for _, suffix := range c.vocab.CompanySuffixes {
			if strings.EqualFold(last, strings.ReplaceAll(suffix, ".", "")) {
				words[len(words)-1] = suffix
				break
			}
		}
		cleaned = strings.Join(words, " ")
	}

	return cleaned
}

// StandardizeInvestorName resolves an investor name against the alias table.
// An alias matches either exactly (case-insensitive) or as a substring of the
// normalized name; the first matching table entry wins. Unknown names pass
// through normalized but otherwise unchanged.
func (c *Cleaner) StandardizeInvestorName(name string) string {
	if name == "" {
		return ""
	}

	cleaned := c.NormalizeText(name)
	cleanedLower := strings.ToLower(cleaned)

	for _, entry := range c.vocab.InvestorAliases {
		for _, alias := range entry.Aliases {
			if cleanedLower == strings.ToLower(alias) {
				return entry.Canonical
			}
		}
		for _, alias := range entry.Aliases {
			if strings.Contains(cleanedLower, strings.ToLower(alias)) {
				return entry.Canonical
			}
		}
	}

	return cleaned
}

// StandardizeFundingStage maps a raw stage string onto the closed stage
// vocabulary. Unrecognized input falls back to a "series X" pattern match and
// finally to a title-cased passthrough, so the result is best-effort rather
// than guaranteed to be in the vocabulary.
func (c *Cleaner) StandardizeFundingStage(stage string) string {
	if stage == "" {
		return ""
	}

	stageLower := strings.ToLower(strings.TrimSpace(stage))

	for _, entry := range c.vocab.StageAliases {
		for _, alias := range entry.Aliases {
			if stageLower == alias {
				return entry.Canonical
			}
		}
	}

	if m := seriesRe.FindStringSubmatch(stageLower); m != nil {
		return "Series " + strings.ToUpper(m[1])
	}

	return titleCase(stage)
}

// StandardizeAmount parses a funding amount string like "$10M" or "2.5
// billion" into a numeric value with an ISO currency code. The original text
// is returned alongside so callers can keep it for display and consistency
// checks. A nil amount means no numeric token was found.
func (c *Cleaner) StandardizeAmount(text string) (*float64, string, string) {
	if text == "" {
		return nil, "", "USD"
	}

	cleaned := strings.ToLower(strings.TrimSpace(text))

	currency := "USD"
	currencyFound := false
	for _, cs := range currencySymbols {
		if strings.Contains(cleaned, cs.Symbol) {
			if !currencyFound {
				currency = cs.Code
				currencyFound = true
			}
			cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, cs.Symbol, ""))
		}
	}

	m := amountRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, text, currency
	}

	number, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, text, currency
	}

	switch m[2] {
	case "million", "m", "mn":
		number *= 1_000_000
	case "billion", "b", "bn":
		number *= 1_000_000_000
	case "thousand", "k":
		number *= 1_000
	}

	return &number, text, currency
}

// StandardizeDate extracts a date from free text and returns it as
// YYYY-MM-DD. Four shapes are tried in order; when the first numeric group is
// not a year, values above 12 mean day-first, otherwise month-first. A shape
// that matches textually but produces an impossible calendar date is skipped,
// not fatal. Empty result means no parseable date.
func (c *Cleaner) StandardizeDate(text string) string {
	if text == "" {
		return ""
	}

	for _, re := range datePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		var yearStr, monthStr, dayStr string
		if len(m[1]) == 4 {
			yearStr, monthStr, dayStr = m[1], m[2], m[3]
		} else if first, _ := strconv.Atoi(m[1]); first > 12 {
			dayStr, monthStr, yearStr = m[1], m[2], m[3]
		} else {
			monthStr, dayStr, yearStr = m[1], m[2], m[3]
		}

		year, _ := strconv.Atoi(yearStr)
		month, _ := strconv.Atoi(monthStr)
		day, _ := strconv.Atoi(dayStr)

		// time.Date normalizes out-of-range components (month 13 becomes
		// January next year), so round-trip the parts to validate.
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			continue
		}

		return t.Format("2006-01-02")
	}

	return ""
}

// CleanFundingEvent returns a copy of the event with every scalar field in
// canonical form. The input is not mutated.
func (c *Cleaner) CleanFundingEvent(ev models.FundingEvent) models.FundingEvent {
	out := ev

	out.CompanyName = c.StandardizeCompanyName(ev.CompanyName)

	if ev.AmountText != "" {
		amount, text, currency := c.StandardizeAmount(ev.AmountText)
		out.Amount = amount
		out.AmountText = text
		out.Currency = currency
	}

	out.FundingStage = c.StandardizeFundingStage(ev.FundingStage)
	out.AnnouncementDate = c.StandardizeDate(ev.AnnouncementDate)

	if len(ev.Investors) > 0 {
		investors := make([]models.EventInvestor, 0, len(ev.Investors))
		for _, inv := range ev.Investors {
			inv.Name = c.StandardizeInvestorName(inv.Name)
			investors = append(investors, inv)
		}
		out.Investors = investors
	}

	out.Title = c.NormalizeText(ev.Title)
	out.Summary = c.NormalizeText(ev.Summary)
	out.Description = c.NormalizeText(ev.Description)

	return out
}
