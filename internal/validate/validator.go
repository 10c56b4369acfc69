package validate

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/david/funding-tracker/internal/models"
)

// Fixed penalty per violated rule. These came out of tuning against real
// scraped data; they are deliberately not weights to optimize.
const (
	penaltyNameLength      = 0.3
	penaltyNamePattern     = 0.1
	penaltyNamePlaceholder = 0.2
	penaltyNameAllCaps     = 0.1

	penaltyAmountTextMissing    = 0.2
	penaltyAmountTextShape      = 0.1
	penaltyAmountBounds         = 0.4
	penaltyAmountVeryLarge      = 0.1
	penaltyAmountNumericMissing = 0.3
	penaltyCurrencyUnknown      = 0.1
	penaltyAmountInconsistent   = 0.2

	penaltyVocabFuzzy   = 0.1
	penaltyVocabUnknown = 0.2

	penaltyDateBounds  = 0.4
	penaltyDateRecent  = 0.1
	penaltyDateWeekend = 0.05

	bonusURLTrusted     = 0.1
	penaltyURLBlog      = 0.1
	penaltyURLLocalhost = 0.5

	penaltyInvestorEmptyName = 0.2
	penaltyInvestorShortName = 0.1
	penaltyInvestorType      = 0.05
	penaltyNoLeadInvestor    = 0.1
)

// Fixed scores assigned when an optional field is absent entirely. The value
// reflects how much the field matters for a usable record.
const (
	missingStageScore     = 0.7
	missingSectorScore    = 0.7
	missingDateScore      = 0.6
	missingURLScore       = 0.5
	missingInvestorsScore = 0.3
)

var (
	companyNameRe = regexp.MustCompile(`^[A-Za-z0-9\s\-\.\&\(\)]+$`)
	urlRe         = regexp.MustCompile(`^https?://(?:[-\w.])+(?:[:\d]+)?(?:/(?:[\w/_.])*(?:\?(?:[\w&=%.])*)?(?:#(?:\w*))?)?`)
	amountTextRe  = regexp.MustCompile(`(?i)^\$?\d+(?:,\d{3})*(?:\.\d+)?\s*[KMB]?$`)
	numberRe      = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Result is the outcome of validating one record or one field. Errors are
// hard problems that make the record invalid; warnings only lower the score.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Score    float64  `json:"score"`
}

func result(errors, warnings []string, score float64) Result {
	return Result{
		IsValid:  len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
		Score:    score,
	}
}

// Validator scores funding-event records against the rule set. It never
// returns a Go error: malformed input is itself a validation finding.
type Validator struct {
	rules *Rules
}

// New builds a Validator. A nil rules value uses the embedded defaults.
func New(rules *Rules) *Validator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

// Sectors returns the sector vocabulary in use, for callers that classify
// into the same label set.
func (v *Validator) Sectors() []string {
	return v.rules.Sectors
}

// ValidateFundingEvent checks a complete record. The overall score is the
// unweighted mean over all components; the presence of each required field
// (company name, amount text) counts as its own all-or-nothing component.
func (v *Validator) ValidateFundingEvent(ev models.FundingEvent) Result {
	var errors, warnings []string
	var components []float64

	required := []struct {
		field string
		value string
	}{
		{"company_name", ev.CompanyName},
		{"amount_text", ev.AmountText},
	}
	for _, req := range required {
		if req.value == "" {
			errors = append(errors, fmt.Sprintf("Missing required field: %s", req.field))
			components = append(components, 0.0)
		} else {
			components = append(components, 1.0)
		}
	}

	results := []Result{
		v.ValidateCompanyName(ev.CompanyName),
		v.ValidateFundingAmount(ev.AmountText, ev.Amount, ev.Currency),
		v.ValidateFundingStage(ev.FundingStage),
		v.ValidateSector(ev.CompanySector),
		v.ValidateDate(ev.AnnouncementDate),
		v.ValidateURL(ev.SourceURL),
		v.ValidateInvestors(ev.Investors),
	}
	for _, r := range results {
		errors = append(errors, r.Errors...)
		warnings = append(warnings, r.Warnings...)
		components = append(components, r.Score)
	}

	var sum float64
	for _, c := range components {
		sum += c
	}
	return result(errors, warnings, sum/float64(len(components)))
}

// ValidateCompanyName checks length bounds, character set, placeholder values
// and all-caps formatting.
func (v *Validator) ValidateCompanyName(name string) Result {
	var errors, warnings []string
	score := 1.0

	if name == "" {
		errors = append(errors, "Company name is required")
		return result(errors, warnings, 0.0)
	}

	if len(name) < v.rules.MinCompanyNameLength {
		errors = append(errors, fmt.Sprintf("Company name too short (minimum %d characters)", v.rules.MinCompanyNameLength))
		score -= penaltyNameLength
	}
	if len(name) > v.rules.MaxCompanyNameLength {
		errors = append(errors, fmt.Sprintf("Company name too long (maximum %d characters)", v.rules.MaxCompanyNameLength))
		score -= penaltyNameLength
	}

	if !companyNameRe.MatchString(name) {
		warnings = append(warnings, "Company name contains unusual characters")
		score -= penaltyNamePattern
	}

	lower := strings.ToLower(strings.TrimSpace(name))
	for _, placeholder := range v.rules.PlaceholderNames {
		if lower == placeholder {
			warnings = append(warnings, "Company name appears to be placeholder text")
			score -= penaltyNamePlaceholder
			break
		}
	}

	if isAllUpper(name) && len(name) > 10 {
		warnings = append(warnings, "Company name is all uppercase - may need formatting")
		score -= penaltyNameAllCaps
	}

	return result(errors, warnings, math.Max(0.0, score))
}

// ValidateFundingAmount checks the amount text shape, the numeric bounds, the
// currency code, and the consistency between text and numeric value.
func (v *Validator) ValidateFundingAmount(amountText string, amount *float64, currency string) Result {
	var errors, warnings []string
	score := 1.0

	if amountText == "" {
		warnings = append(warnings, "Amount text not provided")
		score -= penaltyAmountTextMissing
	} else if !amountTextRe.MatchString(strings.ReplaceAll(amountText, " ", "")) {
		warnings = append(warnings, "Amount text format appears unusual")
		score -= penaltyAmountTextShape
	}

	if amount != nil {
		if *amount < v.rules.MinAmount {
			errors = append(errors, fmt.Sprintf("Amount too small (minimum $%.0f)", v.rules.MinAmount))
			score -= penaltyAmountBounds
		}
		if *amount > v.rules.MaxAmount {
			errors = append(errors, fmt.Sprintf("Amount too large (maximum $%.0f)", v.rules.MaxAmount))
			score -= penaltyAmountBounds
		}
		if *amount > v.rules.LargeAmount {
			warnings = append(warnings, "Very large funding amount - please verify accuracy")
			score -= penaltyAmountVeryLarge
		}
	} else {
		warnings = append(warnings, "Numeric amount not extracted")
		score -= penaltyAmountNumericMissing
	}

	if currency != "" && !contains(v.rules.Currencies, currency) {
		warnings = append(warnings, fmt.Sprintf("Unusual currency code: %s", currency))
		score -= penaltyCurrencyUnknown
	}

	// Consistency: re-derive a number from the text and compare against the
	// numeric value, tolerating a small variance.
	if amountText != "" && amount != nil && *amount != 0 {
		if textNumber, ok := amountFromText(amountText); ok {
			if math.Abs(textNumber-*amount) / *amount > v.rules.AmountVariance {
				warnings = append(warnings, "Amount text and numeric value may be inconsistent")
				score -= penaltyAmountInconsistent
			}
		}
	}

	return result(errors, warnings, math.Max(0.0, score))
}

// ValidateFundingStage checks the stage against the closed vocabulary, with a
// fuzzy fallback that suggests the closest label.
func (v *Validator) ValidateFundingStage(stage string) Result {
	if stage == "" {
		return result(nil, []string{"Funding stage not provided"}, missingStageScore)
	}
	return v.vocabularyCheck(stage, v.rules.Stages,
		fmt.Sprintf("Unusual funding stage: %s", stage))
}

// ValidateSector checks the sector against the climate-tech vocabulary, with
// the same fuzzy fallback as stages.
func (v *Validator) ValidateSector(sector string) Result {
	if sector == "" {
		return result(nil, []string{"Company sector not provided"}, missingSectorScore)
	}
	return v.vocabularyCheck(sector, v.rules.Sectors,
		fmt.Sprintf("Sector not in standard climate tech categories: %s", sector))
}

func (v *Validator) vocabularyCheck(value string, vocabulary []string, unknownWarning string) Result {
	var warnings []string
	score := 1.0

	if !contains(vocabulary, value) {
		valueLower := strings.ToLower(strings.TrimSpace(value))

		matched := false
		for _, candidate := range vocabulary {
			candidateLower := strings.ToLower(candidate)
			if strings.Contains(candidateLower, valueLower) || strings.Contains(valueLower, candidateLower) {
				warnings = append(warnings, fmt.Sprintf("'%s' might be '%s'", value, candidate))
				score -= penaltyVocabFuzzy
				matched = true
				break
			}
		}
		if !matched {
			warnings = append(warnings, unknownWarning)
			score -= penaltyVocabUnknown
		}
	}

	return result(nil, warnings, math.Max(0.0, score))
}

// ValidateDate checks a strict YYYY-MM-DD announcement date for plausibility:
// not before 2000, not more than the allowed days in the future, and flags
// very recent or weekend dates.
func (v *Validator) ValidateDate(dateStr string) Result {
	var errors, warnings []string
	score := 1.0

	if dateStr == "" {
		return result(nil, []string{"Announcement date not provided"}, missingDateScore)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		errors = append(errors, fmt.Sprintf("Invalid date format: %s (expected YYYY-MM-DD)", dateStr))
		return result(errors, warnings, 0.0)
	}

	now := time.Now()

	if date.Year() < 2000 {
		errors = append(errors, fmt.Sprintf("Date too far in past: %s", dateStr))
		score -= penaltyDateBounds
	}

	if date.After(now.AddDate(0, 0, v.rules.MaxFutureDays)) {
		errors = append(errors, fmt.Sprintf("Date too far in future: %s", dateStr))
		score -= penaltyDateBounds
	}

	if int(now.Sub(date).Hours()/24) < 1 {
		warnings = append(warnings, "Very recent date - please verify accuracy")
		score -= penaltyDateRecent
	}

	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		warnings = append(warnings, "Weekend announcement date (unusual but possible)")
		score -= penaltyDateWeekend
	}

	return result(errors, warnings, math.Max(0.0, score))
}

// ValidateURL checks the source URL shape and reputation: trusted news
// domains and .edu/.gov get a bonus, blog platforms a warning, localhost an
// error. Score is clamped to [0,1] since the bonus can push it past 1.
func (v *Validator) ValidateURL(rawURL string) Result {
	var errors, warnings []string
	score := 1.0

	if rawURL == "" {
		return result(nil, []string{"Source URL not provided"}, missingURLScore)
	}

	if !urlRe.MatchString(rawURL) {
		errors = append(errors, "Invalid URL format")
		return result(errors, warnings, 0.0)
	}

	domain := ""
	if u, err := url.Parse(rawURL); err == nil {
		domain = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}

	switch {
	case contains(v.rules.TrustedDomains, domain):
		score += bonusURLTrusted
	case strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".gov"):
		score += bonusURLTrusted
	default:
		urlLower := strings.ToLower(rawURL)
		for _, platform := range v.rules.BlogPlatforms {
			if strings.Contains(urlLower, platform) {
				warnings = append(warnings, "URL from blog platform - verify credibility")
				score -= penaltyURLBlog
				break
			}
		}
	}

	if strings.Contains(rawURL, "localhost") || strings.Contains(rawURL, "127.0.0.1") {
		errors = append(errors, "URL points to localhost")
		score -= penaltyURLLocalhost
	}

	return result(errors, warnings, math.Max(0.0, math.Min(1.0, score)))
}

// ValidateInvestors accepts either structured entries or plain name strings;
// any other shape is a validation error, not a panic. With more than one
// investor, somebody should be flagged as lead.
func (v *Validator) ValidateInvestors(investors any) Result {
	var errors, warnings []string
	score := 1.0

	missing := result(nil, []string{"No investor information provided"}, missingInvestorsScore)

	hasLead := false
	count := 0

	switch list := investors.(type) {
	case nil:
		return missing

	case []models.EventInvestor:
		if len(list) == 0 {
			return missing
		}
		count = len(list)
		for i, inv := range list {
			if strings.TrimSpace(inv.Name) == "" {
				errors = append(errors, fmt.Sprintf("Investor at position %d missing name", i))
				score -= penaltyInvestorEmptyName
			}
			if inv.Type != "" && !contains(v.rules.InvestorTypes, inv.Type) {
				warnings = append(warnings, fmt.Sprintf("Unusual investor type: %s", inv.Type))
				score -= penaltyInvestorType
			}
			if inv.IsLead {
				hasLead = true
			}
		}

	case []string:
		if len(list) == 0 {
			return missing
		}
		count = len(list)
		for i, name := range list {
			if strings.TrimSpace(name) == "" {
				errors = append(errors, fmt.Sprintf("Empty investor name at position %d", i))
				score -= penaltyInvestorEmptyName
			} else if len(name) < 2 {
				warnings = append(warnings, fmt.Sprintf("Very short investor name: '%s'", name))
				score -= penaltyInvestorShortName
			}
		}

	default:
		errors = append(errors, "Investors should be a list")
		return result(errors, warnings, 0.0)
	}

	if !hasLead && count > 1 {
		warnings = append(warnings, "No lead investor specified")
		score -= penaltyNoLeadInvestor
	}

	return result(errors, warnings, math.Max(0.0, score))
}

// amountFromText pulls the first number out of an amount string and applies
// its magnitude suffix, for consistency checks against the numeric amount.
func amountFromText(text string) (float64, bool) {
	m := numberRe.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0, false
	}
	number, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}

	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "M"):
		number *= 1_000_000
	case strings.Contains(upper, "B"):
		number *= 1_000_000_000
	case strings.Contains(upper, "K"):
		number *= 1_000
	}

	return number, true
}

func isAllUpper(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
